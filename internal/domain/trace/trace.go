package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepFindDocs names the retrieval step of a conversational turn.
const StepFindDocs = "FindDocs"

// Run is one recorded step of a pipeline execution; the root run is the whole turn.
type Run struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	Error     string         `json:"error,omitempty"`
	Children  []*Run         `json:"children,omitempty"`
}

// Find returns every run named name in depth-first encounter order, the root included.
func (r *Run) Find(name string) []*Run {
	var out []*Run
	var walk func(*Run)
	walk = func(n *Run) {
		if n == nil {
			return
		}
		if n.Name == name {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(r)
	return out
}

// Recorder builds a run tree while a pipeline executes.
type Recorder struct {
	mu   sync.Mutex
	now  func() time.Time
	root *Run
}

// NewRecorder starts a root run.
func NewRecorder(name string, inputs map[string]any) *Recorder {
	return NewRecorderWithClock(name, inputs, time.Now)
}

// NewRecorderWithClock starts a root run using the given clock.
func NewRecorderWithClock(name string, inputs map[string]any, now func() time.Time) *Recorder {
	return &Recorder{
		now: now,
		root: &Run{
			ID:        uuid.New(),
			Name:      name,
			StartTime: now(),
			Inputs:    inputs,
		},
	}
}

// Start opens a child step under the root.
func (rec *Recorder) Start(name string, inputs map[string]any) *Run {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	step := &Run{
		ID:        uuid.New(),
		Name:      name,
		StartTime: rec.now(),
		Inputs:    inputs,
	}
	rec.root.Children = append(rec.root.Children, step)
	return step
}

// End closes a step with its outputs or error.
func (rec *Recorder) End(step *Run, outputs map[string]any, err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	step.EndTime = rec.now()
	step.Outputs = outputs
	if err != nil {
		step.Error = err.Error()
	}
}

// Finish closes the root run and returns it.
func (rec *Recorder) Finish(outputs map[string]any, err error) *Run {
	rec.End(rec.root, outputs, err)
	return rec.root
}
