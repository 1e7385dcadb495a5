package tools

import (
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

// All builds every tool in registration order, grouped by domain.
func All(r remote.Accessor, e *syncer.Engine, baseTarget int) []Tool {
	return []Tool{
		// Tasks
		NewListTasksTool(e),
		NewGetTaskTool(e),
		NewCreateTaskTool(r, e),
		NewUpdateTaskTool(r, e),
		NewCompleteTaskTool(r, e),
		NewDeleteTaskTool(r, e),
		NewListClientsTool(e),
		NewCreateClientTool(r, e),
		NewDailyStatsTool(e, baseTarget),
		NewSyncCacheTool(e),
		NewCacheStatusTool(e),

		// Habits
		NewListHabitsTool(e),
		NewCreateHabitTool(r, e),
		NewCompleteHabitTool(r, e),

		// Energy
		NewGetEnergyLevelTool(),
		NewRankTasksByEnergyTool(e),
		NewFilterTasksByEnergyTool(e),
		NewAdjustDailyGoalTool(r, e, baseTarget),
		NewGetDailyGoalTool(e, baseTarget),

		// Brain dumps
		NewAddBrainDumpTool(r),
		NewListBrainDumpsTool(r),
		NewProcessBrainDumpTool(r, e),

		// Personal tasks
		NewListPersonalTasksTool(e),
		NewCreatePersonalTaskTool(r, e),
		NewCompletePersonalTaskTool(r, e),
	}
}
