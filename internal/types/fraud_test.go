package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessFraudScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  FraudAssessment
	}{
		{"zero is safe", 0, FraudAssessmentSafe},
		{"just under safe boundary", 14.9, FraudAssessmentSafe},
		{"safe boundary resolves upward", 15, FraudAssessmentValidate},
		{"just under rejected boundary", 39.9, FraudAssessmentValidate},
		{"rejected boundary resolves upward", 40, FraudAssessmentRejected},
		{"high score rejected", 99.9, FraudAssessmentRejected},
		{"maximum score rejected", 100, FraudAssessmentRejected},
		{"above range falls back to validate", 150, FraudAssessmentValidate},
		{"below range falls back to validate", -1, FraudAssessmentValidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessFraudScore(tt.score))
		})
	}
}
