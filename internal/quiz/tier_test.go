package quiz

import (
	"testing"

	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFallbackTier(t *testing.T) {
	tests := []struct {
		name    string
		current model.Tier
		correct bool
		want    model.Tier
	}{
		{"easy correct", model.TierEasy, true, model.TierMedium},
		{"medium correct", model.TierMedium, true, model.TierHard},
		{"hard correct saturates", model.TierHard, true, model.TierHard},
		{"hard incorrect", model.TierHard, false, model.TierMedium},
		{"medium incorrect", model.TierMedium, false, model.TierEasy},
		{"easy incorrect saturates", model.TierEasy, false, model.TierEasy},
		{"unknown correct", model.Tier("expert"), true, model.TierMedium},
		{"unknown incorrect", model.Tier(""), false, model.TierMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackTier(tt.current, tt.correct)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}
