package config

import "testing"

func TestEnvtoInt(t *testing.T) {
	if got := EnvtoInt("42"); got != 42 {
		t.Fatalf("EnvtoInt(42) = %d", got)
	}
	if got := EnvtoInt("not-a-number"); got != 0 {
		t.Fatalf("EnvtoInt(garbage) = %d, want 0", got)
	}
}

func TestEnvtoIntDefault(t *testing.T) {
	if got := EnvtoIntDefault("", 7); got != 7 {
		t.Fatalf("empty input = %d, want default 7", got)
	}
	if got := EnvtoIntDefault("3", 7); got != 3 {
		t.Fatalf("parsed input = %d, want 3", got)
	}
}

func TestEnvtoFloat(t *testing.T) {
	if got := EnvtoFloat("1.5", 2.0); got != 1.5 {
		t.Fatalf("parsed input = %v, want 1.5", got)
	}
	if got := EnvtoFloat("", 2.0); got != 2.0 {
		t.Fatalf("empty input = %v, want default 2.0", got)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("SOME_TEST_KEY", "value")
	if got := envOrDefault("SOME_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("set key = %q", got)
	}
	if got := envOrDefault("SOME_MISSING_KEY", "fallback"); got != "fallback" {
		t.Fatalf("missing key = %q, want fallback", got)
	}
}

func TestGetSymbolsDefaultsAndSplit(t *testing.T) {
	t.Setenv("TRADING_SYMBOLS", "")
	symbols := getSymbols()
	if len(symbols) != 2 || symbols[0] != "EURUSD" {
		t.Fatalf("default symbols = %v", symbols)
	}

	t.Setenv("TRADING_SYMBOLS", "USDJPY,XAUUSD,GBPUSD")
	symbols = getSymbols()
	if len(symbols) != 3 || symbols[1] != "XAUUSD" {
		t.Fatalf("split symbols = %v", symbols)
	}
}
