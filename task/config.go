package task

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowkit/agentcore/corerr"
)

// organizationConfig is the on-disk bootstrap shape for an Organization:
// its agent roster and the workspaces it starts with. Task dependencies
// are listed by id within a workspace and copied into Task.Dependencies as
// given, so a task may name one declared later in the file; LoadOrganization
// does not check that the ids exist (coordinator.ExecuteWorkspace does).
type organizationConfig struct {
	Name   string            `yaml:"name"`
	Agents []agentConfig     `yaml:"agents"`
	Spaces []workspaceConfig `yaml:"workspaces"`
}

type agentConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

type workspaceConfig struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Members     []string     `yaml:"members"`
	Tasks       []taskConfig `yaml:"tasks"`
}

type taskConfig struct {
	ID           string   `yaml:"id"`
	Description  string   `yaml:"description"`
	Type         string   `yaml:"type"`
	AssignedTo   []string `yaml:"assigned_to"`
	Phase        int      `yaml:"phase"`
	Priority     string   `yaml:"priority"`
	Dependencies []string `yaml:"dependencies"`
}

var priorityByName = map[string]Priority{
	"low":      PriorityLow,
	"medium":   PriorityMedium,
	"high":     PriorityHigh,
	"critical": PriorityCritical,
}

// LoadOrganization parses an Organization and its starting Workspaces from
// a YAML bootstrap file, grounded on the pack's struct-tag-driven
// gopkg.in/yaml.v3 config-loading convention (integration_tests/framework's
// Scenario/Defaults/Step shapes).
func LoadOrganization(path string) (*Organization, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, corerr.Wrap(corerr.Config, "task.load_organization", err)
	}
	var cfg organizationConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, corerr.Wrap(corerr.Config, "task.load_organization.unmarshal", err)
	}

	org := NewOrganization(cfg.Name)
	for _, a := range cfg.Agents {
		role := Role(a.Role)
		org.Agents[a.ID] = OrganizationAgent{
			ID:       a.ID,
			Name:     a.Name,
			Role:     role,
			Category: CategoryOf(role),
		}
	}

	for _, sc := range cfg.Spaces {
		ws := NewWorkspace(sc.ID, sc.Name, sc.Description, sc.Members...)
		for _, tc := range sc.Tasks {
			priority, ok := priorityByName[tc.Priority]
			if !ok {
				priority = PriorityMedium
			}
			ws.AddTask(&Task{
				ID:           tc.ID,
				Description:  tc.Description,
				TaskType:     tc.Type,
				AssignedTo:   tc.AssignedTo,
				Status:       StatusPending,
				Phase:        tc.Phase,
				Dependencies: tc.Dependencies,
				Priority:     priority,
			})
		}
		org.Workspaces[ws.ID] = ws
	}

	return org, nil
}
