package domain

import "time"

type Pipeline struct {
	Id          int
	Name        string
	Locked      bool
	Authors     string
	Category    string
	Description string
	Owner       string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// Accessible tells the user can see the pipeline.
//
// Unlocked pipelines are visible for everyone. Locked pipelines are visible for their owner only.
func (p *Pipeline) Accessible(user string) bool {
	return !p.Locked || p.Owner == user
}

// PipelineSpec is a pipeline to be registered.
type PipelineSpec struct {
	Name        string
	Locked      bool
	Authors     string
	Category    string
	Description string
	Owner       string
}

// PipelineUpdate holds fields to be changed. nil fields are left as they are.
type PipelineUpdate struct {
	Name        *string
	Locked      *bool
	Authors     *string
	Category    *string
	Description *string
}

// Piping is an invocation of a plugin in a pipeline.
type Piping struct {
	Id         int
	PipelineId int
	PluginId   int

	// piping feeding this piping. nil for the root.
	PreviousId *int
	Title      string
}

// PipingDefault is a default value of a plugin parameter in a piping.
type PipingDefault struct {
	PipingId    int
	ParameterId int

	// name and type of the parameter. They are informational.
	Name string
	Type ParameterType

	// nil means "no value"
	Value Value
}
