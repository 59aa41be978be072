package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/scoring"
)

func newConfig() scoring.Config {
	return scoring.NewConfig(config.DecayConfig{
		FastDays:   90,
		MediumDays: 180,
		SlowDays:   365,
	})
}

func TestScoreBounds(t *testing.T) {
	cfg := newConfig()

	tests := []struct {
		name string
		in   scoring.Inputs
	}{
		{
			name: "zero usage",
			in: scoring.Inputs{
				UsageCount:      0,
				Reliability:     models.ReliabilityC,
				DecayClass:      models.DecayFast,
				Role:            models.RoleUnclassified,
				CitationQuality: 0,
			},
		},
		{
			name: "maximal inputs",
			in: scoring.Inputs{
				UsageCount:      1000000,
				Reliability:     models.ReliabilityA,
				DecayClass:      models.DecaySlow,
				Role:            models.RoleAuthority,
				CitationQuality: 1.0,
				IsSeed:          true,
			},
		},
		{
			name: "very stale",
			in: scoring.Inputs{
				UsageCount:       50,
				DaysSinceLastUse: 10000,
				Reliability:      models.ReliabilityB,
				DecayClass:       models.DecayFast,
				CitationQuality:  0.5,
			},
		},
		{
			name: "quality out of range",
			in: scoring.Inputs{
				UsageCount:      10,
				Reliability:     models.ReliabilityA,
				DecayClass:      models.DecayMedium,
				CitationQuality: 7.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := cfg.Score(tt.in)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestScoreFreshnessDecay(t *testing.T) {
	cfg := newConfig()

	base := scoring.Inputs{
		UsageCount:      10,
		Reliability:     models.ReliabilityA,
		DecayClass:      models.DecayFast,
		Role:            models.RoleUnclassified,
		CitationQuality: 0.5,
	}

	fresh := cfg.Score(base)

	base.DaysSinceLastUse = 90 // one fast half-life
	halved := cfg.Score(base)
	assert.InDelta(t, fresh/2, halved, 0.001)

	base.DaysSinceLastUse = 180 // two half-lives
	quartered := cfg.Score(base)
	assert.InDelta(t, fresh/4, quartered, 0.001)
}

func TestScoreDecayClassMatters(t *testing.T) {
	cfg := newConfig()

	in := scoring.Inputs{
		UsageCount:       10,
		DaysSinceLastUse: 90,
		Reliability:      models.ReliabilityA,
		CitationQuality:  0.5,
	}

	in.DecayClass = models.DecayFast
	fast := cfg.Score(in)

	in.DecayClass = models.DecaySlow
	slow := cfg.Score(in)

	assert.Greater(t, slow, fast, "slow-decay sources should retain score longer")
}

func TestScoreUsageSaturates(t *testing.T) {
	cfg := newConfig()

	in := scoring.Inputs{
		Reliability:     models.ReliabilityA,
		DecayClass:      models.DecayMedium,
		CitationQuality: 0.5,
	}

	in.UsageCount = 99
	atSaturation := cfg.Score(in)

	in.UsageCount = 100000
	beyond := cfg.Score(in)

	assert.InDelta(t, atSaturation, beyond, 0.2, "usage factor should saturate at ~100 uses")
}

func TestScoreExactValue(t *testing.T) {
	cfg := newConfig()

	// usage 9 -> log10(10)/log10(100) = 0.5; fresh; quality 0.5.
	// 50 * (0.3 + 0.7*0.5) * (0.4 + 0.6*0.5) * 1.0 * 1.0 * 1.0 = 22.75
	score := cfg.Score(scoring.Inputs{
		UsageCount:      9,
		Reliability:     models.ReliabilityA,
		DecayClass:      models.DecayMedium,
		Role:            models.RoleUnclassified,
		CitationQuality: 0.5,
	})
	assert.InDelta(t, 22.75, score, 0.001)
}

func TestScoreReliabilityWeights(t *testing.T) {
	cfg := newConfig()

	in := scoring.Inputs{
		UsageCount:      20,
		DecayClass:      models.DecayMedium,
		CitationQuality: 0.5,
	}

	in.Reliability = models.ReliabilityA
	a := cfg.Score(in)
	in.Reliability = models.ReliabilityB
	b := cfg.Score(in)
	in.Reliability = models.ReliabilityC
	c := cfg.Score(in)

	assert.Greater(t, a, b)
	assert.Greater(t, b, c)
	assert.InDelta(t, a*0.8, b, 0.001)
	assert.InDelta(t, a*0.6, c, 0.001)
}

func TestScoreSeedAndRoleBonus(t *testing.T) {
	cfg := newConfig()

	in := scoring.Inputs{
		UsageCount:      20,
		Reliability:     models.ReliabilityB,
		DecayClass:      models.DecayMedium,
		Role:            models.RoleUnclassified,
		CitationQuality: 0.5,
	}

	plain := cfg.Score(in)

	in.Role = models.RoleAuthority
	authority := cfg.Score(in)
	assert.InDelta(t, plain*1.2, authority, 0.001)

	in.Role = models.RoleUnclassified
	in.IsSeed = true
	seeded := cfg.Score(in)
	assert.InDelta(t, plain*1.2, seeded, 0.001)
}

func TestStagingScoreDefaults(t *testing.T) {
	cfg := newConfig()

	source := &models.StagedSource{CitationCount: 9}
	got := cfg.StagingScore(source, 0)

	// Staged sources score with B reliability, medium decay, default quality:
	// 22.75 * 0.8 = 18.2
	assert.InDelta(t, 18.2, got, 0.001)
}

func TestCitationQuality(t *testing.T) {
	assert.InDelta(t, scoring.DefaultCitationQuality, scoring.CitationQuality(nil), 0.001)

	coCited := []models.CatalogSource{
		{Score: 80},
		{Score: 40},
	}
	assert.InDelta(t, 0.6, scoring.CitationQuality(coCited), 0.001)

	perfect := []models.CatalogSource{{Score: 100}}
	assert.InDelta(t, 1.0, scoring.CitationQuality(perfect), 0.001)
}
