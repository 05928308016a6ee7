package types

// FraudAssessment is the verdict for a billing card's fraud risk.
type FraudAssessment string

const (
	FraudAssessmentSafe       FraudAssessment = "safe"
	FraudAssessmentValidate   FraudAssessment = "validate"
	FraudAssessmentRejected   FraudAssessment = "rejected"
	FraudAssessmentUnassessed FraudAssessment = "unassessed"
)

// fraudTier maps a half-open score band [Min, Max) to a verdict.
// Bands are lower-bound inclusive, so a score sitting exactly on a
// boundary resolves to the higher (riskier) band: 15 -> validate,
// 40 -> rejected. 100 is folded into the rejected band explicitly.
type fraudTier struct {
	Min        float64
	Max        float64
	Assessment FraudAssessment
}

var fraudTiers = []fraudTier{
	{Min: 0, Max: 15, Assessment: FraudAssessmentSafe},
	{Min: 15, Max: 40, Assessment: FraudAssessmentValidate},
	{Min: 40, Max: 100, Assessment: FraudAssessmentRejected},
}

// AssessFraudScore classifies a risk score from the fraud service.
// Scores outside [0, 100] fall back to validate so a malformed score
// always lands in manual review rather than auto-pass or auto-reject.
func AssessFraudScore(score float64) FraudAssessment {
	if score == 100 {
		return FraudAssessmentRejected
	}
	for _, tier := range fraudTiers {
		if score >= tier.Min && score < tier.Max {
			return tier.Assessment
		}
	}
	return FraudAssessmentValidate
}
