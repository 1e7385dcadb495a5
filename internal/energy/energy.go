// Package energy matches tasks to the caller's current energy.
//
// Everything here is pure: no I/O, no clock, no shared state. The same
// inputs always produce the same scores, rankings and adjustments.
package energy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/HendryAvila/tempo/internal/model"
)

// Readiness thresholds for the energy level (ranking / goal adjustment).
const (
	HighLevelMin   = 85
	MediumLevelMin = 70
)

// Readiness thresholds for the filtering gate. Independent of the level
// thresholds above: readiness 72 ranks as medium but passes the gate fully.
const (
	GateAllAbove  = 75
	GateMediumMin = 60
)

// Score bounds.
const (
	MinEnergyScore = 0
	MaxEnergyScore = 165
)

// Goal adjustment multipliers.
const (
	highMultiplier = 1.15
	lowMultiplier  = 0.75
)

// MapReadinessToEnergyLevel maps a 0-100 readiness score to an energy level.
func MapReadinessToEnergyLevel(score int) model.Level {
	switch {
	case score >= HighLevelMin:
		return model.LevelHigh
	case score >= MediumLevelMin:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// Band is a filtering gate band.
type Band string

const (
	BandAll       Band = "all"
	BandLowMedium Band = "low_medium"
	BandLowOnly   Band = "low_only"
)

// GateBand maps readiness to the filtering band.
func GateBand(score int) Band {
	switch {
	case score > GateAllAbove:
		return BandAll
	case score >= GateMediumMin:
		return BandLowMedium
	default:
		return BandLowOnly
	}
}

// allows reports whether a task with the given cognitive load passes the band.
func (b Band) allows(load model.Level) bool {
	switch b {
	case BandAll:
		return true
	case BandLowMedium:
		return load != model.LevelHigh
	default:
		return load == model.LevelLow
	}
}

// ─── Scoring ─────────────────────────────────────────────────────────────────

// Score is a task's fit for an energy level with its justification.
type Score struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// CalculateEnergyScore scores how well a task fits the energy level.
func CalculateEnergyScore(t model.Task, level model.Level) Score {
	load := t.Load()
	var (
		score   int
		reasons []string
	)

	switch d := abs(load.Rank() - level.Rank()); d {
	case 0:
		score = 100
		reasons = append(reasons, fmt.Sprintf("%s load matches %s energy", load, level))
	case 1:
		score = 50
		reasons = append(reasons, fmt.Sprintf("%s load is close to %s energy", load, level))
	default:
		reasons = append(reasons, fmt.Sprintf("%s load mismatches %s energy", load, level))
	}

	if tierFits(t.ValueTier, level) {
		score += 20
		reasons = append(reasons, fmt.Sprintf("%s work suits %s energy", t.ValueTier, level))
	}

	if drainFits(t.DrainType, level) {
		score += 10
		reasons = append(reasons, fmt.Sprintf("%s drain suits %s energy", strings.ToLower(t.DrainType), level))
	}

	if bonus, why := sizeBonus(t.EffortHours, level); bonus > 0 {
		score += bonus
		reasons = append(reasons, why)
	}

	if level == model.LevelLow && t.Category == model.CategoryPersonal {
		score += 5
		reasons = append(reasons, "personal task on a low day")
	}

	if t.Status == model.StatusActive {
		score += 5
		reasons = append(reasons, "already in progress")
	}

	return Score{Score: clamp(score, MinEnergyScore, MaxEnergyScore), Reason: strings.Join(reasons, "; ")}
}

func tierFits(tier model.ValueTier, level model.Level) bool {
	switch level {
	case model.LevelHigh:
		return tier == model.TierMilestone || tier == model.TierDeliverable
	case model.LevelMedium:
		return tier == model.TierProgress
	default:
		return tier == model.TierCheckbox
	}
}

func drainFits(drain string, level model.Level) bool {
	drain = strings.ToLower(strings.TrimSpace(drain))
	switch level {
	case model.LevelHigh:
		return drain == "deep"
	case model.LevelMedium:
		return drain == "shallow"
	default:
		return drain == "admin"
	}
}

func sizeBonus(hours int, level model.Level) (int, string) {
	switch level {
	case model.LevelHigh:
		switch {
		case hours >= 4:
			return 15, "big block for a high-energy day"
		case hours >= 2:
			return 5, "substantial block for a high-energy day"
		}
	case model.LevelMedium:
		if hours >= 2 && hours <= 3 {
			return 5, "moderate size for a medium day"
		}
	default:
		switch {
		case hours <= 1:
			return 15, "quick win for a low day"
		case hours <= 2:
			return 5, "short task for a low day"
		}
	}
	return 0, ""
}

// ─── Ranking ─────────────────────────────────────────────────────────────────

// Ranked is a task with its energy score.
type Ranked struct {
	Task   model.Task `json:"task"`
	Score  int        `json:"energy_score"`
	Reason string     `json:"reason"`
}

// RankTasksByEnergy scores every task and returns them by descending score.
// Ties keep input order. limit <= 0 returns all.
func RankTasksByEnergy(tasks []model.Task, level model.Level, limit int) []Ranked {
	out := make([]Ranked, len(tasks))
	for i, t := range tasks {
		s := CalculateEnergyScore(t, level)
		out[i] = Ranked{Task: t, Score: s.Score, Reason: s.Reason}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ─── Filtering ───────────────────────────────────────────────────────────────

// FilterResult splits tasks by whether the readiness gate admits them.
type FilterResult struct {
	Readiness      *int                `json:"readiness,omitempty"`
	Band           Band                `json:"band"`
	Allowed        []model.Task        `json:"allowed"`
	Excluded       []model.Task        `json:"excluded"`
	ExcludedByLoad map[model.Level]int `json:"excluded_by_load"`
	Message        string              `json:"message"`
}

// FilterTasksByEnergy hides tasks too demanding for the readiness score. A
// nil readiness means no data: every task is allowed.
func FilterTasksByEnergy(tasks []model.Task, readiness *int) FilterResult {
	res := FilterResult{
		Readiness:      readiness,
		Band:           BandAll,
		Allowed:        []model.Task{},
		Excluded:       []model.Task{},
		ExcludedByLoad: map[model.Level]int{},
	}
	if readiness != nil {
		res.Band = GateBand(*readiness)
	}

	for _, t := range tasks {
		if res.Band.allows(t.Load()) {
			res.Allowed = append(res.Allowed, t)
			continue
		}
		res.Excluded = append(res.Excluded, t)
		res.ExcludedByLoad[t.Load()]++
	}

	switch {
	case readiness == nil:
		res.Message = "No readiness data; showing all tasks."
	case res.Band == BandAll:
		res.Message = fmt.Sprintf("Readiness %d: all tasks available.", *readiness)
	case res.Band == BandLowMedium:
		res.Message = fmt.Sprintf("Readiness %d: hiding %d high-load task(s); stick to low and medium load.",
			*readiness, len(res.Excluded))
	default:
		res.Message = fmt.Sprintf("Readiness %d: recovery day; hiding %d task(s) above low load.",
			*readiness, len(res.Excluded))
	}
	return res
}

// ─── Goal adjustment ─────────────────────────────────────────────────────────

// Adjustment is a readiness-driven change to the daily points target.
type Adjustment struct {
	BaseTarget        int         `json:"base_target"`
	AdjustedTarget    int         `json:"adjusted_target"`
	AdjustmentPercent int         `json:"adjustment_percent"`
	EnergyLevel       model.Level `json:"energy_level,omitempty"`
	Readiness         *int        `json:"readiness,omitempty"`
	Reason            string      `json:"reason"`
}

// CalculateDailyGoalAdjustment scales base by the energy level derived from
// readiness: +15% high, unchanged medium, -25% low. A nil readiness leaves
// the target unchanged.
func CalculateDailyGoalAdjustment(readiness *int, base int) Adjustment {
	adj := Adjustment{BaseTarget: base, AdjustedTarget: base, Readiness: readiness}
	if readiness == nil {
		adj.Reason = "No readiness data; keeping the base target."
		return adj
	}

	adj.EnergyLevel = MapReadinessToEnergyLevel(*readiness)
	switch adj.EnergyLevel {
	case model.LevelHigh:
		adj.AdjustedTarget = int(math.Round(float64(base) * highMultiplier))
		adj.AdjustmentPercent = 15
		adj.Reason = fmt.Sprintf("Readiness %d is high; target raised 15%%.", *readiness)
	case model.LevelMedium:
		adj.Reason = fmt.Sprintf("Readiness %d is moderate; keeping the base target.", *readiness)
	default:
		adj.AdjustedTarget = int(math.Round(float64(base) * lowMultiplier))
		adj.AdjustmentPercent = -25
		adj.Reason = fmt.Sprintf("Readiness %d is low; target reduced 25%%.", *readiness)
	}
	return adj
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
