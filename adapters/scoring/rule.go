package scoring

import (
	"riskfusion/domain/frame"
)

// Rule thresholds: hot and dry
const (
	RuleTemperatureAbove = 30.0
	RuleHumidityBelow    = 30.0
)

// RuleStage flags rows that are strictly hotter than 30 and strictly drier than 30.
type RuleStage struct{}

// NewRuleStage creates the symbolic rule engine
func NewRuleStage() *RuleStage {
	return &RuleStage{}
}

func (s *RuleStage) Name() string { return "rule" }

func (s *RuleStage) Group() frame.ColumnGroup { return frame.GroupRule }

// Apply appends rule_high_risk_flag and rule_risk_level
func (s *RuleStage) Apply(f *frame.Frame) error {
	if err := requireFinite(f, []string{frame.ColTemperature, frame.ColHumidity}); err != nil {
		return err
	}

	for i := range f.Records {
		f.Records[i].Rule = Evaluate(f.Records[i].Temperature, f.Records[i].Humidity)
	}
	f.AddGroup(s.Group())
	return nil
}

// Evaluate applies the rule to one reading
func Evaluate(temperature, humidity float64) *frame.RuleOutput {
	if temperature > RuleTemperatureAbove && humidity < RuleHumidityBelow {
		return &frame.RuleOutput{HighRiskFlag: 1, RiskLevel: frame.RiskLevelHigh}
	}
	return &frame.RuleOutput{HighRiskFlag: 0, RiskLevel: frame.RiskLevelLow}
}
