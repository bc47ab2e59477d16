package config

type Config struct {
	Exchange    ExchangeConfig
	Database    DatabaseConfig
	Trading     TradingConfig
	Monitor     MonitorConfig
	Symbols     []string
	LogLevel    string
	MetricsAddr string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// TradingConfig carries the risk settings threaded into the sizer and
// executor; nothing reads them from ambient state.
type TradingConfig struct {
	RiskPercent      float64
	StopLossPips     float64
	TakeProfitPips   float64
	SpreadCeiling    float64 // points
	MaxRetries       int
	RetryDelaySecs   int
	DefaultTimeframe string
	DefaultStrategy  string
}

type MonitorConfig struct {
	IntervalSecs int
	BarWindow    int
}
