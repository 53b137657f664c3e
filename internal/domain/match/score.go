package match

import (
	"sort"
	"strings"

	"github.com/stridemate/stridemate-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY SCORING
//
// Compatibility between two runners is the sum of four independent
// dimensions, each worth up to 25 points:
//
//   pace      - how close their typical paces are
//   distance  - whether they train for the same race distance
//   location  - whether they can realistically meet for a run
//   time      - whether their training schedules overlap
//
// A dimension is skipped entirely (contributes 0, adds no reason) when
// either runner has not filled in the corresponding profile field. The
// total is therefore 0-100, and every non-zero subscore comes with a
// human-readable reason for the match card.
// ══════════════════════════════════════════════════════════════════════════════

// Subscores holds the per-dimension contribution to a compatibility score.
type Subscores struct {
	Pace     int `json:"pace"`
	Distance int `json:"distance"`
	Location int `json:"location"`
	Time     int `json:"time"`
}

// Total sums the four dimensions.
func (s Subscores) Total() int {
	return s.Pace + s.Distance + s.Location + s.Time
}

// MatchScore is the scored result for one candidate, shaped for the API.
type MatchScore struct {
	// CandidateID - the candidate runner being scored.
	CandidateID string `json:"userId"`

	// TotalScore - sum of all subscores (0-100).
	TotalScore int `json:"score"`

	// Reasons - human-readable explanations for the match card.
	Reasons []string `json:"reasons"`

	// Subscores - per-dimension breakdown.
	Subscores Subscores `json:"compatibility"`
}

// Pace delta breakpoints, in seconds per kilometer.
const (
	paceDeltaSimilar    = 30
	paceDeltaCompatible = 60
	paceDeltaManageable = 120
)

// Scorer computes compatibility scores between runner profiles.
type Scorer struct {
	// cityReference is the substring used for the coarse same-city check
	// when locations differ. Configurable for deployments outside the
	// original launch city.
	cityReference string
}

// NewScorer creates a scorer with the given city reference. An empty
// reference disables the same-city fallback.
func NewScorer(cityReference string) *Scorer {
	return &Scorer{cityReference: cityReference}
}

// Score computes the compatibility of a candidate against the requesting
// runner. Reasons are phrased from the requester's perspective.
func (s *Scorer) Score(self, candidate *profile.Profile) MatchScore {
	reasons := make([]string, 0, 4)
	var sub Subscores

	// Pace compatibility (0-25 points)
	if self.HasPace() && candidate.HasPace() {
		delta := *self.PreferredPaceSeconds - *candidate.PreferredPaceSeconds
		if delta < 0 {
			delta = -delta
		}
		switch {
		case delta <= paceDeltaSimilar:
			sub.Pace = 25
			reasons = append(reasons, "Similar running pace")
		case delta <= paceDeltaCompatible:
			sub.Pace = 15
			reasons = append(reasons, "Compatible running pace")
		case delta <= paceDeltaManageable:
			sub.Pace = 5
			reasons = append(reasons, "Different but manageable pace")
		}
	}

	// Distance compatibility (0-25 points)
	if self.HasDistance() && candidate.HasDistance() {
		switch {
		case self.PreferredDistance == candidate.PreferredDistance:
			sub.Distance = 25
			reasons = append(reasons, "Same preferred distance")
		case self.PreferredDistance.IsShort() && candidate.PreferredDistance.IsShort():
			sub.Distance = 20
			reasons = append(reasons, "Compatible distances")
		default:
			sub.Distance = 10
			reasons = append(reasons, "Different distance preferences")
		}
	}

	// Location compatibility (0-25 points)
	if self.HasLocation() && candidate.HasLocation() {
		switch {
		case self.Location == candidate.Location:
			sub.Location = 25
			reasons = append(reasons, "Same location")
		case s.sameCity(self.Location, candidate.Location):
			sub.Location = 20
			reasons = append(reasons, "Same city")
		default:
			sub.Location = 5
			reasons = append(reasons, "Different locations")
		}
	}

	// Time compatibility (0-25 points)
	if self.HasRunningTimes() && candidate.HasRunningTimes() {
		shared := self.SharedRunningTimes(candidate)
		switch {
		case len(shared) > 0:
			sub.Time = 25
			reasons = append(reasons, "Both prefer "+joinTimes(shared)+" runs")
		case morningEveningSplit(self, candidate):
			sub.Time = 10
			reasons = append(reasons, "Different time preferences")
		default:
			sub.Time = 5
			reasons = append(reasons, "Flexible scheduling needed")
		}
	}

	return MatchScore{
		CandidateID: candidate.ID,
		TotalScore:  sub.Total(),
		Reasons:     reasons,
		Subscores:   sub,
	}
}

// sameCity reports whether both locations mention the reference city.
// Crude substring check, good enough until real geocoding lands.
func (s *Scorer) sameCity(a, b string) bool {
	if s.cityReference == "" {
		return false
	}
	return strings.Contains(a, s.cityReference) && strings.Contains(b, s.cityReference)
}

// morningEveningSplit reports whether one runner prefers mornings and the
// other evenings. Opposite ends of the day still allow occasional shared
// runs, so this scores above the generic fallback.
func morningEveningSplit(a, b *profile.Profile) bool {
	return (a.PrefersTime(profile.TimeMorning) && b.PrefersTime(profile.TimeEvening)) ||
		(a.PrefersTime(profile.TimeEvening) && b.PrefersTime(profile.TimeMorning))
}

func joinTimes(times []profile.RunningTime) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE LIST
// ══════════════════════════════════════════════════════════════════════════════

// MatchScoreList is a list of scored candidates with ranking helpers.
type MatchScoreList []MatchScore

// Sort orders the list by score descending. The sort is stable, so
// candidates with equal scores keep their fetch order.
func (l MatchScoreList) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].TotalScore > l[j].TotalScore
	})
}

// TopN returns the first n results.
func (l MatchScoreList) TopN(n int) MatchScoreList {
	if n >= len(l) {
		return l
	}
	return l[:n]
}
