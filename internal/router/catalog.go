package router

// ToolID names one operation exposed to callers.
type ToolID string

// Group is a domain handler family.
type Group string

const (
	GroupTasks     Group = "tasks"
	GroupHabits    Group = "habits"
	GroupEnergy    Group = "energy"
	GroupBrainDump Group = "brain-dump"
	GroupPersonal  Group = "personal-tasks"
)

// Groups lists every group in registration order.
func Groups() []Group {
	return []Group{GroupTasks, GroupHabits, GroupEnergy, GroupBrainDump, GroupPersonal}
}

// Tasks group.
const (
	ListTasks      ToolID = "list_tasks"
	GetTask        ToolID = "get_task"
	CreateTask     ToolID = "create_task"
	UpdateTask     ToolID = "update_task"
	CompleteTask   ToolID = "complete_task"
	DeleteTask     ToolID = "delete_task"
	ListClients    ToolID = "list_clients"
	CreateClient   ToolID = "create_client"
	GetDailyStats  ToolID = "get_daily_stats"
	SyncCache      ToolID = "sync_cache"
	GetCacheStatus ToolID = "get_cache_status"
)

// Habits group.
const (
	ListHabits    ToolID = "list_habits"
	CreateHabit   ToolID = "create_habit"
	CompleteHabit ToolID = "complete_habit"
)

// Energy group.
const (
	GetEnergyLevel      ToolID = "get_energy_level"
	RankTasksByEnergy   ToolID = "rank_tasks_by_energy"
	FilterTasksByEnergy ToolID = "filter_tasks_by_energy"
	AdjustDailyGoal     ToolID = "adjust_daily_goal"
	GetDailyGoal        ToolID = "get_daily_goal"
)

// Brain-dump group.
const (
	AddBrainDump     ToolID = "add_brain_dump"
	ListBrainDumps   ToolID = "list_brain_dumps"
	ProcessBrainDump ToolID = "process_brain_dump"
)

// Personal-tasks group.
const (
	ListPersonalTasks    ToolID = "list_personal_tasks"
	CreatePersonalTask   ToolID = "create_personal_task"
	CompletePersonalTask ToolID = "complete_personal_task"
)

// catalog is the closed set of tools. A tool absent here cannot be
// registered or called.
var catalog = map[ToolID]Group{
	ListTasks:      GroupTasks,
	GetTask:        GroupTasks,
	CreateTask:     GroupTasks,
	UpdateTask:     GroupTasks,
	CompleteTask:   GroupTasks,
	DeleteTask:     GroupTasks,
	ListClients:    GroupTasks,
	CreateClient:   GroupTasks,
	GetDailyStats:  GroupTasks,
	SyncCache:      GroupTasks,
	GetCacheStatus: GroupTasks,

	ListHabits:    GroupHabits,
	CreateHabit:   GroupHabits,
	CompleteHabit: GroupHabits,

	GetEnergyLevel:      GroupEnergy,
	RankTasksByEnergy:   GroupEnergy,
	FilterTasksByEnergy: GroupEnergy,
	AdjustDailyGoal:     GroupEnergy,
	GetDailyGoal:        GroupEnergy,

	AddBrainDump:     GroupBrainDump,
	ListBrainDumps:   GroupBrainDump,
	ProcessBrainDump: GroupBrainDump,

	ListPersonalTasks:    GroupPersonal,
	CreatePersonalTask:   GroupPersonal,
	CompletePersonalTask: GroupPersonal,
}

// Lookup returns the group of a tool name.
func Lookup(name string) (ToolID, Group, bool) {
	id := ToolID(name)
	g, ok := catalog[id]
	return id, g, ok
}

// Catalog returns a copy of the tool catalog.
func Catalog() map[ToolID]Group {
	out := make(map[ToolID]Group, len(catalog))
	for id, g := range catalog {
		out[id] = g
	}
	return out
}
