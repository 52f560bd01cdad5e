package domain

// RiskClass is the binary decision derived by comparing the model
// probability to the artifact threshold.
type RiskClass string

const (
	RiskLow  RiskClass = "low"
	RiskHigh RiskClass = "high"
)
