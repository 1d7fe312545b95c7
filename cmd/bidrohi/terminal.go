package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
)

const (
	ansiCursorUp   = "\033[%dA"
	ansiClearBelow = "\033[J"
)

// terminalRenderer redraws the poem block in place, or appends new lines in plain mode
type terminalRenderer struct {
	out       io.Writer
	errOut    io.Writer
	plain     bool
	prevLines int
}

func newTerminalRenderer(out, errOut io.Writer, plain bool) *terminalRenderer {
	return &terminalRenderer{out: out, errOut: errOut, plain: plain}
}

func (t *terminalRenderer) Render(_ context.Context, block string) error {
	lines := strings.Split(strings.TrimSuffix(block, "\n"), "\n")

	if t.plain {
		for _, line := range lines[t.prevLines:] {
			if _, err := fmt.Fprintln(t.out, line); err != nil {
				return err
			}
		}
		t.prevLines = len(lines)
		return nil
	}

	var b strings.Builder
	if t.prevLines > 0 {
		fmt.Fprintf(&b, ansiCursorUp, t.prevLines)
		b.WriteString(ansiClearBelow)
	}
	b.WriteString(block)
	t.prevLines = len(lines)

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *terminalRenderer) Notify(_ context.Context, notice presenter.Notice) error {
	prefix := map[presenter.NoticeKind]string{
		presenter.NoticePending: "⏳",
		presenter.NoticeError:   "❌",
		presenter.NoticeSuccess: "✅",
	}[notice.Kind]

	msg := notice.Message
	if notice.Detail != "" {
		msg += " " + notice.Detail
	}
	_, err := fmt.Fprintf(t.errOut, "%s %s\n", prefix, msg)
	return err
}
