package tracing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/sim"
)

// TaskTableName is the table that a DBTracer writes finished tasks to.
const TaskTableName = "trace_tasks"

type taskTableEntry struct {
	ID        string
	Kind      string
	What      string
	Location  string
	StartTime uint64
	EndTime   uint64
	Latency   uint64
	Steps     string
}

// DBTracer is a tracer that stores every finished task as one row of a data
// recorder table. Tasks that never end are dropped.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	tracingTasks map[string]Task
	written      uint64
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TaskTableName, taskTableEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// StartTask marks the start of a task. Starting a task that is already in
// flight keeps the earlier start.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	startingTaskMustBeValid(task)

	if _, ok := t.tracingTasks[task.ID]; ok {
		return
	}

	task.StartTime = t.timeTeller.CurrentTime()
	t.tracingTasks[task.ID] = task
}

func startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Location == "" {
		panic("task location must be set")
	}
}

// StepTask adds the steps of task to the task in flight with the same ID.
func (t *DBTracer) StepTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, step := range task.Steps {
		step.Time = now
		original.Steps = append(original.Steps, step)
	}

	t.tracingTasks[task.ID] = original
}

// EndTask marks the end of a task and writes it.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	original.EndTime = t.timeTeller.CurrentTime()
	t.writeTaskToDB(original)

	delete(t.tracingTasks, task.ID)
}

func (t *DBTracer) writeTaskToDB(task Task) {
	steps := make([]string, 0, len(task.Steps))
	for _, s := range task.Steps {
		steps = append(steps, fmt.Sprintf("%s@%d", s.What, s.Time))
	}

	t.backend.InsertData(TaskTableName, taskTableEntry{
		ID:        task.ID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: uint64(task.StartTime),
		EndTime:   uint64(task.EndTime),
		Latency:   uint64(task.EndTime - task.StartTime),
		Steps:     strings.Join(steps, ","),
	})
	t.written++
}

// InFlight returns the number of tasks that started but did not end.
func (t *DBTracer) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.tracingTasks)
}

// Written returns the number of tasks written so far.
func (t *DBTracer) Written() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.written
}

// Terminate drops the tasks in flight and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}
