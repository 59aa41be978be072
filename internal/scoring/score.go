// Package scoring computes the composite trust/usage/decay score shared by
// enrichment, promotion, and periodic recomputation. Score is a pure function
// of its inputs; callers derive citation quality and pass it in.
package scoring

import (
	"math"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/models"
)

const (
	// MaxScore is the upper bound of the score range.
	MaxScore = 100.0

	// DefaultCitationQuality is used when no co-citation signal exists yet.
	DefaultCitationQuality = 0.5

	baseScore = 50.0

	usageFloor   = 0.3
	usageWeight  = 0.7
	qualityFloor = 0.4
	qualityScale = 0.6

	// usageSaturation is the usage count at which the log-scaled usage
	// factor saturates at 1.0.
	usageSaturation = 100.0

	roleBonusAuthority = 1.2
	seedBonus          = 1.2
)

// Config holds the tunable scoring parameters. Construct it from the service
// configuration so recomputation stays deterministic and testable.
type Config struct {
	// HalfLifeDays maps each decay class to its freshness half-life.
	HalfLifeDays map[models.DecayClass]int

	// InaccessiblePenalty is multiplied into the score of sources the
	// link-rot monitor has flagged. 1.0 disables the penalty.
	InaccessiblePenalty float64
}

// NewConfig builds a scoring config from the service decay settings.
func NewConfig(decay config.DecayConfig) Config {
	return Config{
		HalfLifeDays: map[models.DecayClass]int{
			models.DecayFast:   decay.FastDays,
			models.DecayMedium: decay.MediumDays,
			models.DecaySlow:   decay.SlowDays,
		},
		InaccessiblePenalty: 0.5,
	}
}

// Inputs are the arguments to Score.
type Inputs struct {
	UsageCount       int
	DaysSinceLastUse float64
	DecayClass       models.DecayClass
	Reliability      models.Reliability
	Role             models.Role
	CitationQuality  float64 // in [0,1]; DefaultCitationQuality if unknown
	IsSeed           bool
}

// Score returns a value in [0,100]. Usage is log-scaled so a single
// over-cited source cannot dominate; freshness decays exponentially with the
// half-life of the source's decay class.
func (c Config) Score(in Inputs) float64 {
	halfLife := float64(c.HalfLifeDays[in.DecayClass])
	if halfLife <= 0 {
		halfLife = float64(c.HalfLifeDays[models.DecayMedium])
	}
	if halfLife <= 0 {
		halfLife = 180
	}

	usageFactor := math.Log10(float64(in.UsageCount)+1) / math.Log10(usageSaturation)
	usageFactor = math.Min(1.0, usageFactor)

	days := math.Max(0, in.DaysSinceLastUse)
	freshness := math.Pow(0.5, days/halfLife)

	quality := in.CitationQuality
	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}

	score := baseScore *
		(usageFloor + usageWeight*usageFactor) *
		(qualityFloor + qualityScale*quality) *
		freshness *
		reliabilityWeight(in.Reliability) *
		roleBonus(in.Role)

	if in.IsSeed {
		score *= seedBonus
	}

	return clamp(score, 0, MaxScore)
}

// StagingScore scores a silver-tier source from its merged counters. Staged
// sources have no reliability grade or verified role yet, so conservative
// defaults apply until promotion.
func (c Config) StagingScore(source *models.StagedSource, daysSinceLastSeen float64) float64 {
	return c.Score(Inputs{
		UsageCount:       source.CitationCount,
		DaysSinceLastUse: daysSinceLastSeen,
		DecayClass:       models.DecayMedium,
		Reliability:      models.ReliabilityB,
		Role:             models.RoleUnclassified,
		CitationQuality:  DefaultCitationQuality,
		IsSeed:           false,
	})
}

// CitationQuality averages the scores of co-cited sources into [0,1]. This is
// a one-hop approximation of citation-network prestige, not an iterative
// fixed point. Returns DefaultCitationQuality when no co-citations exist.
func CitationQuality(coCited []models.CatalogSource) float64 {
	if len(coCited) == 0 {
		return DefaultCitationQuality
	}

	var total float64
	for i := range coCited {
		total += coCited[i].Score
	}
	return clamp(total/float64(len(coCited))/MaxScore, 0, 1)
}

func reliabilityWeight(r models.Reliability) float64 {
	switch r {
	case models.ReliabilityA:
		return 1.0
	case models.ReliabilityB:
		return 0.8
	case models.ReliabilityC:
		return 0.6
	default:
		return 0.6
	}
}

func roleBonus(r models.Role) float64 {
	if r == models.RoleAuthority {
		return roleBonusAuthority
	}
	return 1.0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
