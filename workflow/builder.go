package workflow

// Definition is the assembled, immutable description of a workflow: its
// ordered top-level steps plus the schema and step budget the Engine
// enforces at run boundaries (spec §4.1/§4.2).
type Definition struct {
	Name         string
	Steps        []Step
	InputSchema  Schema
	OutputSchema Schema
	MaxSteps     int
}

// Builder assembles a Definition fluently, grounded on the teacher's
// WorkflowBuilder chain-of-With* pattern (runtime/agent/run). Builder
// methods return the receiver so calls chain; Build() is the only method
// that can fail validation.
type Builder struct {
	def Definition
}

// NewBuilder starts a Definition with the given name and a default step
// budget of 100, overridable via WithMaxSteps.
func NewBuilder(name string) *Builder {
	return &Builder{def: Definition{Name: name, MaxSteps: 100}}
}

// AddStep appends a top-level Step to the definition.
func (b *Builder) AddStep(s Step) *Builder {
	b.def.Steps = append(b.def.Steps, s)
	return b
}

// WithMaxSteps overrides the step budget.
func (b *Builder) WithMaxSteps(n int) *Builder {
	b.def.MaxSteps = n
	return b
}

// WithInputSchema sets the schema validated against the initial
// Context.Data before the first step runs.
func (b *Builder) WithInputSchema(s Schema) *Builder {
	b.def.InputSchema = s
	return b
}

// WithOutputSchema sets the schema validated against Context.Data when the
// run completes via Respond or step exhaustion.
func (b *Builder) WithOutputSchema(s Schema) *Builder {
	b.def.OutputSchema = s
	return b
}

// Build finalizes the Definition. It never fails today (kept error-typed
// return for forward compatibility with stricter structural checks).
func (b *Builder) Build() (Definition, error) {
	return b.def, nil
}
