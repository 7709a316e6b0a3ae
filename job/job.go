package job

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Status is the backend's job status. Values outside the four known ones
// are kept verbatim and treated as still running.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus maps a backend status string onto the known vocabulary.
// "pending" is accepted as an alias of queued; any other non-empty value is
// passed through so polling continues. Only an empty status is an error.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "":
		return "", errors.Newf("unexpected job status %q", s)
	case "queued", "pending":
		return StatusQueued, nil
	case "processing":
		return StatusProcessing, nil
	case "completed":
		return StatusCompleted, nil
	case "failed":
		return StatusFailed, nil
	}
	return Status(norm), nil
}

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the single unit of work tracked by a Controller.
type Job struct {
	ID          int64             `json:"id,omitempty"`
	SourceURL   string            `json:"sourceUrl"`
	Status      Status            `json:"status,omitempty"`
	Result      *ProcessingResult `json:"result,omitempty"`
	ErrorDetail string            `json:"errorDetail,omitempty"`
}

func (j *Job) clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.Result = j.Result.clone()
	return &c
}

// Created is the backend's answer to a job-creation call.
type Created struct {
	JobID  int64
	Status Status
}

// ProcessingResult is the finished artifact of a completed job. Action points
// keep the order the backend returned them in.
type ProcessingResult struct {
	JobID         int64         `json:"job_id"`
	VideoURL      string        `json:"video_url"`
	Transcription string        `json:"transcription"`
	ActionPoints  []ActionPoint `json:"action_points"`
}

// Validate checks the fields a renderer relies on.
func (r *ProcessingResult) Validate() error {
	for i, ap := range r.ActionPoints {
		if strings.TrimSpace(ap.Action) == "" {
			return errors.Newf("action point %d has an empty action", i)
		}
		if !ap.Priority.Valid() {
			return errors.Newf("action point %d has invalid priority %q", i, string(ap.Priority))
		}
	}
	return nil
}

func (r *ProcessingResult) clone() *ProcessingResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.ActionPoints != nil {
		c.ActionPoints = append([]ActionPoint(nil), r.ActionPoints...)
	}
	return &c
}

// ActionPoint is one extracted follow-up task.
type ActionPoint struct {
	Action   string   `json:"action"`
	Context  string   `json:"context"`
	Priority Priority `json:"priority"`
}

// HasContext reports whether the context line should be shown.
func (a ActionPoint) HasContext() bool {
	return strings.TrimSpace(a.Context) != ""
}
