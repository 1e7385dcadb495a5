package energy

import (
	"strings"
	"testing"

	"github.com/HendryAvila/tempo/internal/model"
)

func readiness(v int) *int { return &v }

func TestMapReadinessToEnergyLevel(t *testing.T) {
	tests := []struct {
		score int
		want  model.Level
	}{
		{100, model.LevelHigh},
		{85, model.LevelHigh},
		{84, model.LevelMedium},
		{70, model.LevelMedium},
		{69, model.LevelLow},
		{0, model.LevelLow},
	}
	for _, tt := range tests {
		if got := MapReadinessToEnergyLevel(tt.score); got != tt.want {
			t.Errorf("MapReadinessToEnergyLevel(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestGateBand(t *testing.T) {
	tests := []struct {
		score int
		want  Band
	}{
		{76, BandAll},
		{75, BandLowMedium},
		{60, BandLowMedium},
		{59, BandLowOnly},
	}
	for _, tt := range tests {
		if got := GateBand(tt.score); got != tt.want {
			t.Errorf("GateBand(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCalculateEnergyScore(t *testing.T) {
	tests := []struct {
		name      string
		task      model.Task
		level     model.Level
		want      int
		wantParts int
	}{
		{
			name:      "perfect high-energy match",
			task:      model.Task{CognitiveLoad: model.LevelHigh, ValueTier: model.TierMilestone, DrainType: "deep", EffortHours: 4, Status: model.StatusActive},
			level:     model.LevelHigh,
			want:      100 + 20 + 10 + 15 + 5,
			wantParts: 5,
		},
		{
			name:      "low day quick personal admin",
			task:      model.Task{CognitiveLoad: model.LevelLow, ValueTier: model.TierCheckbox, DrainType: "Admin", EffortHours: 1, Category: model.CategoryPersonal, Status: model.StatusActive},
			level:     model.LevelLow,
			want:      100 + 20 + 10 + 15 + 5 + 5,
			wantParts: 6,
		},
		{
			name:      "adjacent load",
			task:      model.Task{CognitiveLoad: model.LevelMedium, ValueTier: model.TierProgress},
			level:     model.LevelHigh,
			want:      50,
			wantParts: 1,
		},
		{
			name:      "opposite load",
			task:      model.Task{CognitiveLoad: model.LevelHigh, EffortHours: 5},
			level:     model.LevelLow,
			want:      0,
			wantParts: 1,
		},
		{
			name:      "missing load treated as medium",
			task:      model.Task{ValueTier: model.TierProgress, DrainType: "shallow", EffortHours: 3},
			level:     model.LevelMedium,
			want:      100 + 20 + 10 + 5,
			wantParts: 4,
		},
		{
			name:      "high energy mid-size block",
			task:      model.Task{CognitiveLoad: model.LevelHigh, EffortHours: 2},
			level:     model.LevelHigh,
			want:      105,
			wantParts: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateEnergyScore(tt.task, tt.level)
			if got.Score != tt.want {
				t.Errorf("Score = %d, want %d (reason %q)", got.Score, tt.want, got.Reason)
			}
			if parts := len(strings.Split(got.Reason, "; ")); parts != tt.wantParts {
				t.Errorf("reason has %d parts, want %d: %q", parts, tt.wantParts, got.Reason)
			}
			if got.Score < MinEnergyScore || got.Score > MaxEnergyScore {
				t.Errorf("Score %d out of bounds", got.Score)
			}
		})
	}
}

func TestCalculateEnergyScore_IsDeterministic(t *testing.T) {
	task := model.Task{CognitiveLoad: model.LevelMedium, ValueTier: model.TierDeliverable, DrainType: "deep", EffortHours: 3}
	first := CalculateEnergyScore(task, model.LevelHigh)
	for i := 0; i < 10; i++ {
		if got := CalculateEnergyScore(task, model.LevelHigh); got != first {
			t.Fatalf("run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestRankTasksByEnergy(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, CognitiveLoad: model.LevelLow},
		{ID: 2, CognitiveLoad: model.LevelHigh, ValueTier: model.TierMilestone},
		{ID: 3, CognitiveLoad: model.LevelLow},
		{ID: 4, CognitiveLoad: model.LevelMedium},
	}

	ranked := RankTasksByEnergy(tasks, model.LevelHigh, 0)
	var ids []int64
	for _, r := range ranked {
		ids = append(ids, r.Task.ID)
	}
	// 2 (120), 4 (50), then ties 1 and 3 (0) in input order.
	want := []int64{2, 4, 1, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("not descending at %d: %d > %d", i, ranked[i].Score, ranked[i-1].Score)
		}
	}

	if got := RankTasksByEnergy(tasks, model.LevelHigh, 2); len(got) != 2 {
		t.Errorf("limit 2 returned %d", len(got))
	}
	if got := RankTasksByEnergy(nil, model.LevelLow, 5); len(got) != 0 {
		t.Errorf("empty input returned %d", len(got))
	}
}

func TestFilterTasksByEnergy(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, CognitiveLoad: model.LevelLow},
		{ID: 2, CognitiveLoad: model.LevelMedium},
		{ID: 3, CognitiveLoad: model.LevelHigh},
		{ID: 4, CognitiveLoad: model.LevelHigh},
	}

	tests := []struct {
		name         string
		readiness    *int
		wantBand     Band
		wantAllowed  int
		wantExcluded map[model.Level]int
	}{
		{"no data", nil, BandAll, 4, map[model.Level]int{}},
		{"rested", readiness(80), BandAll, 4, map[model.Level]int{}},
		{"moderate", readiness(65), BandLowMedium, 2, map[model.Level]int{model.LevelHigh: 2}},
		{"recovery", readiness(40), BandLowOnly, 1, map[model.Level]int{model.LevelMedium: 1, model.LevelHigh: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FilterTasksByEnergy(tasks, tt.readiness)
			if res.Band != tt.wantBand {
				t.Errorf("Band = %s, want %s", res.Band, tt.wantBand)
			}
			if len(res.Allowed) != tt.wantAllowed {
				t.Errorf("allowed = %d, want %d", len(res.Allowed), tt.wantAllowed)
			}
			if len(res.Allowed)+len(res.Excluded) != len(tasks) {
				t.Errorf("allowed+excluded = %d, want %d", len(res.Allowed)+len(res.Excluded), len(tasks))
			}
			if len(res.ExcludedByLoad) != len(tt.wantExcluded) {
				t.Errorf("ExcludedByLoad = %v, want %v", res.ExcludedByLoad, tt.wantExcluded)
			}
			for k, v := range tt.wantExcluded {
				if res.ExcludedByLoad[k] != v {
					t.Errorf("ExcludedByLoad[%s] = %d, want %d", k, res.ExcludedByLoad[k], v)
				}
			}
			if res.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestCalculateDailyGoalAdjustment(t *testing.T) {
	tests := []struct {
		name        string
		readiness   *int
		want        int
		wantPercent int
		wantLevel   model.Level
	}{
		{"high", readiness(90), 21, 15, model.LevelHigh},
		{"medium", readiness(75), 18, 0, model.LevelMedium},
		{"low", readiness(50), 14, -25, model.LevelLow},
		{"no data", nil, 18, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := CalculateDailyGoalAdjustment(tt.readiness, 18)
			if adj.AdjustedTarget != tt.want {
				t.Errorf("AdjustedTarget = %d, want %d", adj.AdjustedTarget, tt.want)
			}
			if adj.AdjustmentPercent != tt.wantPercent {
				t.Errorf("AdjustmentPercent = %d, want %d", adj.AdjustmentPercent, tt.wantPercent)
			}
			if adj.EnergyLevel != tt.wantLevel {
				t.Errorf("EnergyLevel = %q, want %q", adj.EnergyLevel, tt.wantLevel)
			}
			if adj.BaseTarget != 18 {
				t.Errorf("BaseTarget = %d, want 18", adj.BaseTarget)
			}
		})
	}
}
