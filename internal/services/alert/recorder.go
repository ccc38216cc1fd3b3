package alert

import "sync"

// Recorder is an Observer that keeps every notification in memory.
// The CLI uses it to print a summary on exit.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	results []Result
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) AlertTripped(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) ActionFinished(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Failed returns the results that carried an error.
func (r *Recorder) Failed() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []Result
	for _, res := range r.results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
