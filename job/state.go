package job

import "time"

// Phase is the controller's position in the job lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseTracking   Phase = "tracking"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Settled reports whether the controller has nothing in flight.
func (p Phase) Settled() bool {
	return p == PhaseIdle || p == PhaseSucceeded || p == PhaseFailed
}

// ViewState is the read-only snapshot handed to the presentation layer.
type ViewState struct {
	Seq       int64     `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt"`
	Phase     Phase     `json:"phase"`
	Job       *Job      `json:"job,omitempty"`
	UserError string    `json:"userError,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	// Err is set in the failed phase and matches the sentinel for ErrorKind.
	Err       error     `json:"-"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s ViewState) Clone() ViewState {
	s.Job = s.Job.clone()
	return s
}

// EventKind names an input to the state machine.
type EventKind string

const (
	EventSubmit       EventKind = "submit"
	EventRejected     EventKind = "rejected"
	EventCreated      EventKind = "created"
	EventCreateFailed EventKind = "create_failed"
	EventPolled       EventKind = "polled"
	EventResult       EventKind = "result"
	EventResultFailed EventKind = "result_failed"
	EventJobFailed    EventKind = "job_failed"
	EventPollFailed   EventKind = "poll_failed"
	EventTimedOut     EventKind = "timed_out"
	EventReset        EventKind = "reset"
)

// Event carries the payload relevant to its Kind; other fields are ignored.
type Event struct {
	Kind    EventKind
	URL     string
	JobID   int64
	Status  Status
	Result  *ProcessingResult
	Message string
	Err     error
}

// Next is the single transition function of the controller. It returns the
// successor state and true, or the unchanged state and false when ev is not
// valid in the current phase. Seq and UpdatedAt are left to the caller.
func Next(s ViewState, ev Event) (ViewState, bool) {
	switch ev.Kind {
	case EventSubmit:
		return ViewState{
			Phase: PhaseSubmitting,
			Job:   &Job{SourceURL: ev.URL},
		}, true

	case EventRejected:
		return ViewState{
			Phase:     PhaseFailed,
			UserError: ev.Message,
			ErrorKind: KindValidation,
			Err:       failure(ev.Err, ev.Message, ErrValidation),
		}, true

	case EventReset:
		return ViewState{Phase: PhaseIdle}, true
	}

	switch s.Phase {
	case PhaseSubmitting:
		switch ev.Kind {
		case EventCreated:
			j := s.Job.clone()
			j.ID = ev.JobID
			j.Status = nonTerminal(ev.Status, StatusQueued)
			return ViewState{Phase: PhaseTracking, Job: j}, true
		case EventCreateFailed:
			return failed(s, ev, KindSubmission, ErrSubmission), true
		}

	case PhaseTracking:
		switch ev.Kind {
		case EventPolled:
			if ev.Status.Terminal() {
				return s, false
			}
			j := s.Job.clone()
			j.Status = ev.Status
			return ViewState{Phase: PhaseTracking, Job: j}, true
		case EventResult:
			if ev.Result == nil {
				return s, false
			}
			j := s.Job.clone()
			j.Status = StatusCompleted
			j.Result = ev.Result.clone()
			return ViewState{Phase: PhaseSucceeded, Job: j}, true
		case EventJobFailed:
			j := s.Job.clone()
			j.Status = StatusFailed
			j.ErrorDetail = ev.Message
			if j.ErrorDetail == "" {
				j.ErrorDetail = msgJobFailed
			}
			return ViewState{
				Phase:     PhaseFailed,
				Job:       j,
				ErrorKind: KindJobFailed,
				Err:       failure(ev.Err, j.ErrorDetail, ErrJobFailed),
			}, true
		case EventResultFailed, EventPollFailed:
			return failed(s, ev, KindTransport, ErrPollTransport), true
		case EventTimedOut:
			return failed(s, ev, KindTimeout, ErrPollTimeout), true
		}
	}
	return s, false
}

func failed(s ViewState, ev Event, kind ErrorKind, sentinel error) ViewState {
	return ViewState{
		Phase:     PhaseFailed,
		Job:       s.Job.clone(),
		UserError: ev.Message,
		ErrorKind: kind,
		Err:       failure(ev.Err, ev.Message, sentinel),
	}
}

// nonTerminal keeps a freshly created job out of a terminal status until the
// poll loop has fetched the matching result or error detail.
func nonTerminal(s, fallback Status) Status {
	if s == "" || s.Terminal() {
		return fallback
	}
	return s
}
