// Package console is a line-oriented front end for one job controller.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/shlex"
	"github.com/pterm/pterm"

	"vidtrack/job"
	"vidtrack/render"
)

const prompt = "vidtrack> "

// Tracker is the part of job.Controller the console drives.
type Tracker interface {
	Submit(ctx context.Context, videoURL string) error
	State() job.ViewState
	Wait(ctx context.Context) (job.ViewState, error)
	Stop()
}

// Console reads commands line by line and drives a Tracker with them.
type Console struct {
	tracker Tracker
	in      io.Reader
	out     io.Writer
}

// New returns a console reading from in and writing to out.
func New(tracker Tracker, in io.Reader, out io.Writer) *Console {
	return &Console{tracker: tracker, in: in, out: out}
}

// SplitCommand tokenises a console line with shell quoting rules but never
// runs a shell.
func SplitCommand(line string) ([]string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, errors.Wrap(err, "invalid command syntax")
	}
	return args, nil
}

// Run reads commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		args, err := SplitCommand(scanner.Text())
		if err != nil {
			c.fail(err.Error())
			continue
		}
		if len(args) == 0 {
			continue
		}
		if quit := c.exec(ctx, args); quit {
			return nil
		}
	}
}

func (c *Console) exec(ctx context.Context, args []string) bool {
	switch cmd := strings.ToLower(args[0]); cmd {
	case "quit", "exit":
		c.tracker.Stop()
		return true

	case "help":
		c.help()

	case "submit":
		if len(args) != 2 {
			c.fail("usage: submit <url>")
			return false
		}
		if err := c.tracker.Submit(ctx, args[1]); err != nil {
			render.State(c.out, c.tracker.State())
			return false
		}
		pterm.Fprintln(c.out, "Tracking "+render.StatusLine(c.tracker.State()))

	case "status":
		render.State(c.out, c.tracker.State())

	case "wait":
		s, err := c.tracker.Wait(ctx)
		if err != nil && s.Phase != job.PhaseFailed {
			c.fail(err.Error())
			return false
		}
		render.State(c.out, s)

	case "stop":
		c.tracker.Stop()
		pterm.Fprintln(c.out, "Stopped.")

	default:
		c.fail(fmt.Sprintf("unknown command %q, try help", cmd))
	}
	return false
}

func (c *Console) help() {
	pterm.Fprintln(c.out, `Commands:
  submit <url>   submit a video URL and start tracking it
  status         show the current job
  wait           block until the current job finishes
  stop           stop tracking the current job
  quit           leave the console`)
}

func (c *Console) fail(msg string) {
	pterm.Fprintln(c.out, pterm.FgRed.Sprint("error: ")+msg)
}
