package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadyTasksOrdersByPriorityThenPhaseThenInsertion(t *testing.T) {
	ws := NewWorkspace("ws1", "Launch", "")
	ws.AddTask(&Task{ID: "low-phase1", Status: StatusPending, Priority: PriorityLow, Phase: 1})
	ws.AddTask(&Task{ID: "high-phase2", Status: StatusPending, Priority: PriorityHigh, Phase: 2})
	ws.AddTask(&Task{ID: "high-phase1", Status: StatusPending, Priority: PriorityHigh, Phase: 1})
	ws.AddTask(&Task{ID: "high-phase1-later", Status: StatusPending, Priority: PriorityHigh, Phase: 1})

	ready := ws.ReadyTasks()
	var ids []string
	for _, t := range ready {
		ids = append(ids, t.ID)
	}
	require.Equal(t, []string{"high-phase1", "high-phase1-later", "high-phase2", "low-phase1"}, ids)
}

func TestReadyTasksExcludesUnsatisfiedDependencies(t *testing.T) {
	ws := NewWorkspace("ws1", "Launch", "")
	ws.AddTask(&Task{ID: "dep", Status: StatusPending})
	ws.AddTask(&Task{ID: "blocked", Status: StatusPending, Dependencies: []string{"dep"}})

	ready := ws.ReadyTasks()
	require.Len(t, ready, 1)
	require.Equal(t, "dep", ready[0].ID)

	ws.ByID()["dep"].Status = StatusCompleted
	ready = ws.ReadyTasks()
	var ids []string
	for _, t := range ready {
		ids = append(ids, t.ID)
	}
	require.ElementsMatch(t, []string{"blocked"}, ids)
}

func TestCategoryOfCoversEveryDefinedRole(t *testing.T) {
	roles := []Role{
		RoleChiefExecutiveOfficer,
		RoleChiefTechnologyOfficer,
		RoleChiefOperatingOfficer,
		RoleResearchScientist,
		RoleMLEngineer,
		RoleDataScientist,
		RoleSoftwareEngineer,
		RoleSeniorSoftwareEngineer,
		RoleEngineeringManager,
		RoleQAEngineer,
		RoleManufacturingEngineer,
		RoleProductionPlanner,
		RoleQualityAssuranceLead,
		RoleCustomerSuccessManager,
		RoleSalesRepresentative,
		RoleAccountExecutive,
		RoleProductDesigner,
		RoleUXResearcher,
	}
	for _, r := range roles {
		require.NotEmpty(t, CategoryOf(r), "role %q has no category", r)
	}
}
