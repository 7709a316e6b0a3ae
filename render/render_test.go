package render

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"

	"vidtrack/job"
)

func plain(buf *bytes.Buffer) string {
	return pterm.RemoveColorFromString(buf.String())
}

func TestState_Succeeded(t *testing.T) {
	s := job.ViewState{
		Phase: job.PhaseSucceeded,
		Job: &job.Job{
			ID:        1,
			SourceURL: "https://example.com/v.mp4",
			Status:    job.StatusCompleted,
			Result: &job.ProcessingResult{
				JobID:         1,
				VideoURL:      "https://example.com/v.mp4",
				Transcription: "hello",
				ActionPoints: []job.ActionPoint{
					{Action: "Call Bob", Context: "", Priority: job.PriorityHigh},
				},
			},
		},
	}

	var buf bytes.Buffer
	State(&buf, s)
	out := plain(&buf)

	assert.Contains(t, out, "Job ID: 1")
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "1. Action: Call Bob")
	assert.Contains(t, out, "Priority: High")
	assert.NotContains(t, out, "Context:")
	assert.NotContains(t, out, "Error:")
}

func TestResult_PreservesOrderAndContext(t *testing.T) {
	r := &job.ProcessingResult{
		Transcription: "notes",
		ActionPoints: []job.ActionPoint{
			{Action: "Low first", Context: "because", Priority: job.PriorityLow},
			{Action: "High second", Priority: job.PriorityHigh},
		},
	}

	var buf bytes.Buffer
	Result(&buf, r)
	out := plain(&buf)

	assert.Less(t, bytes.Index([]byte(out), []byte("Low first")), bytes.Index([]byte(out), []byte("High second")))
	assert.Contains(t, out, "Context: because")
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("Context:")))
}

func TestResult_NoActionPoints(t *testing.T) {
	var buf bytes.Buffer
	Result(&buf, &job.ProcessingResult{Transcription: "quiet"})
	assert.Contains(t, plain(&buf), "(none)")
}

func TestState_Failures(t *testing.T) {
	t.Run("user error", func(t *testing.T) {
		var buf bytes.Buffer
		State(&buf, job.ViewState{Phase: job.PhaseFailed, UserError: "invalid URL"})
		out := plain(&buf)
		assert.Contains(t, out, "Phase: failed")
		assert.Contains(t, out, "Error: invalid URL")
	})

	t.Run("job error detail", func(t *testing.T) {
		var buf bytes.Buffer
		State(&buf, job.ViewState{
			Phase: job.PhaseFailed,
			Job:   &job.Job{ID: 3, Status: job.StatusFailed, ErrorDetail: "audio track missing"},
		})
		out := plain(&buf)
		assert.Contains(t, out, "Status: failed")
		assert.Contains(t, out, "Error: audio track missing")
	})
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "idle", StatusLine(job.ViewState{Phase: job.PhaseIdle}))
	assert.Equal(t, "submitting https://example.com/v.mp4", StatusLine(job.ViewState{
		Phase: job.PhaseSubmitting,
		Job:   &job.Job{SourceURL: "https://example.com/v.mp4"},
	}))
	assert.Equal(t, "job 2: processing", pterm.RemoveColorFromString(StatusLine(job.ViewState{
		Phase: job.PhaseTracking,
		Job:   &job.Job{ID: 2, Status: job.StatusProcessing},
	})))
}

func TestColors(t *testing.T) {
	assert.Equal(t, pterm.FgRed, PriorityColor(job.PriorityHigh))
	assert.Equal(t, pterm.FgYellow, PriorityColor(job.PriorityMedium))
	assert.Equal(t, pterm.FgBlue, PriorityColor(job.PriorityLow))
	assert.Equal(t, pterm.NewStyle(pterm.FgRed, pterm.Bold), PriorityStyle(job.PriorityHigh))
	assert.Equal(t, pterm.NewStyle(pterm.FgYellow), PriorityStyle(job.PriorityMedium))
	assert.Equal(t, pterm.NewStyle(pterm.FgBlue), PriorityStyle(job.PriorityLow))
	assert.Equal(t, pterm.FgGreen, StatusColor(job.StatusCompleted))
	assert.Equal(t, pterm.FgGray, StatusColor(job.StatusQueued))
}
