package strategy

// Direction is the graded decision side.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// Risk tiers and decision horizons carried by a strategy config.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"

	HorizonShort  = "SHORT"
	HorizonMedium = "MEDIUM"
	HorizonLong   = "LONG"
)

// Config is the immutable descriptor of a strategy variant, created once at
// construction. Parameters hold the tunable weights and thresholds; the
// values set by the constructors are defaults, not constants.
type Config struct {
	Name                string
	Description         string
	RiskLevel           string
	RequiredIndicators  []string
	Parameters          map[string]float64
	ConfidenceThreshold float64
	Horizon             string
}

// Decision is one graded evaluation of the latest bar. Factors list the
// named conditions that fired, in the order they were checked.
type Decision struct {
	Direction   Direction
	Strength    float64 // 0-100
	Factors     []string
	Description string
}

func hold(description string) Decision {
	return Decision{
		Direction:   DirectionHold,
		Strength:    0,
		Description: description,
	}
}
