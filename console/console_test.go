package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtrack/config"
	"vidtrack/job"
)

type stubBackend struct{}

func (stubBackend) CreateJob(context.Context, string) (job.Created, error) {
	return job.Created{JobID: 9, Status: job.StatusQueued}, nil
}

func (stubBackend) JobStatus(context.Context, int64) (job.Status, error) {
	return job.StatusCompleted, nil
}

func (stubBackend) JobResult(_ context.Context, id int64) (*job.ProcessingResult, error) {
	return &job.ProcessingResult{
		JobID:         id,
		Transcription: "hello",
		ActionPoints: []job.ActionPoint{
			{Action: "Call Bob", Priority: job.PriorityHigh},
		},
	}, nil
}

func (stubBackend) JobError(context.Context, int64) (string, error) {
	return "", nil
}

func runConsole(t *testing.T, input string) string {
	t.Helper()
	ctrl, err := job.NewController(&config.Config{PollInterval: 5 * time.Millisecond}, stubBackend{})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, New(ctrl, strings.NewReader(input), &out).Run(ctx))
	return pterm.RemoveColorFromString(out.String())
}

func TestSplitCommand(t *testing.T) {
	args, err := SplitCommand(`submit "https://example.com/my video.mp4"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"submit", "https://example.com/my video.mp4"}, args)

	_, err = SplitCommand(`submit "unterminated`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command syntax")
}

func TestConsole_SubmitAndWait(t *testing.T) {
	out := runConsole(t, "submit https://example.com/v.mp4\nwait\nquit\n")

	assert.Contains(t, out, "Tracking job 9")
	assert.Contains(t, out, "Job ID: 9")
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "Action: Call Bob")
	assert.Contains(t, out, "Priority: High")
	assert.NotContains(t, out, "Context:")
}

func TestConsole_InvalidInput(t *testing.T) {
	out := runConsole(t, "submit 'not a url'\nsubmit\nfrobnicate\nsubmit \"oops\n\nhelp\nstop\n")

	assert.Contains(t, out, "Phase: failed")
	assert.Contains(t, out, "Error: invalid URL")
	assert.Contains(t, out, "usage: submit <url>")
	assert.Contains(t, out, `unknown command "frobnicate"`)
	assert.Contains(t, out, "invalid command syntax")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "Stopped.")
}

func TestConsole_WaitRendersFailedJob(t *testing.T) {
	out := runConsole(t, "submit 'not a url'\nwait\nquit\n")

	assert.Equal(t, 2, strings.Count(out, "Phase: failed"))
	assert.Equal(t, 2, strings.Count(out, "Error: invalid URL"))
}

func TestConsole_StatusWhenIdle(t *testing.T) {
	out := runConsole(t, "status\nexit\n")
	assert.Contains(t, out, "Phase: idle")
}
