package tracing

import "github.com/sarchlab/fdprefetch/sim"

// A TaskStep represents a milestone in the processing of a task.
type TaskStep struct {
	Time sim.VTimeInCycle `json:"time"`
	What string           `json:"what"`
}

// A Task is a piece of work that a component starts at one time and finishes
// at a later time, such as a prefetch waiting for its line.
type Task struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"`
	What      string           `json:"what"`
	Location  string           `json:"location"`
	StartTime sim.VTimeInCycle `json:"start_time"`
	EndTime   sim.VTimeInCycle `json:"end_time"`
	Steps     []TaskStep       `json:"steps"`
	Detail    interface{}      `json:"-"`
}
