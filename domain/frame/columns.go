package frame

// Input columns
const (
	ColTemperature     = "temperature"
	ColHumidity        = "humidity"
	ColRainfall        = "rainfall"
	ColVegetationIndex = "vegetation_index"
	ColSoilMoisture    = "soil_moisture"

	DefaultLabelColumn = "outbreak_risk"
)

// Stage output columns
const (
	ColRuleHighRiskFlag = "rule_high_risk_flag"
	ColRuleRiskLevel    = "rule_risk_level"

	ColMLProbability    = "ml_probability"
	ColMLPredictedClass = "ml_predicted_class"

	ColNeutroTruth         = "neutro_truth"
	ColNeutroIndeterminacy = "neutro_indeterminacy"
	ColNeutroFalsity       = "neutro_falsity"

	ColAHPPriorityScore = "ahp_priority_score"

	ColTOPSISDistanceBest  = "topsis_distance_best"
	ColTOPSISDistanceWorst = "topsis_distance_worst"
	ColTOPSISScore         = "topsis_score"

	ColGreyRelationGrade = "grey_relation_grade"
)

// Risk levels written by the rule engine
const (
	RiskLevelHigh = "High"
	RiskLevelLow  = "Low"
)

// InputFeatures are the raw environmental features every row must carry, in
// vector order.
var InputFeatures = []string{
	ColTemperature,
	ColHumidity,
	ColRainfall,
	ColVegetationIndex,
	ColSoilMoisture,
}

// TrainingFeatures is the engineered feature set a risk model is fit on.
var TrainingFeatures = []string{
	ColTemperature,
	ColHumidity,
	ColRainfall,
	ColVegetationIndex,
	ColSoilMoisture,
	ColMLProbability,
	ColRuleHighRiskFlag,
	ColNeutroTruth,
	ColNeutroIndeterminacy,
	ColNeutroFalsity,
	ColAHPPriorityScore,
	ColTOPSISScore,
	ColGreyRelationGrade,
}

// ColumnGroup identifies the set of columns one stage appends.
type ColumnGroup string

const (
	GroupRule         ColumnGroup = "rule"
	GroupClassifier   ColumnGroup = "classifier"
	GroupNeutrosophic ColumnGroup = "neutrosophic"
	GroupAHP          ColumnGroup = "ahp"
	GroupTOPSIS       ColumnGroup = "topsis"
	GroupGrey         ColumnGroup = "grey"
)

// Columns returns the column names of the group in output order.
func (g ColumnGroup) Columns() []string {
	switch g {
	case GroupRule:
		return []string{ColRuleHighRiskFlag, ColRuleRiskLevel}
	case GroupClassifier:
		return []string{ColMLProbability, ColMLPredictedClass}
	case GroupNeutrosophic:
		return []string{ColNeutroTruth, ColNeutroIndeterminacy, ColNeutroFalsity}
	case GroupAHP:
		return []string{ColAHPPriorityScore}
	case GroupTOPSIS:
		return []string{ColTOPSISDistanceBest, ColTOPSISDistanceWorst, ColTOPSISScore}
	case GroupGrey:
		return []string{ColGreyRelationGrade}
	}
	return nil
}

func isInputFeature(column string) bool {
	for _, c := range InputFeatures {
		if c == column {
			return true
		}
	}
	return false
}

// GroupOf returns the stage group that produces column. Input features and
// unknown names report false.
func GroupOf(column string) (ColumnGroup, bool) {
	for _, g := range []ColumnGroup{GroupRule, GroupClassifier, GroupNeutrosophic, GroupAHP, GroupTOPSIS, GroupGrey} {
		for _, c := range g.Columns() {
			if c == column {
				return g, true
			}
		}
	}
	return "", false
}
