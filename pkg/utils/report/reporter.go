package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter writes user-facing status lines. It is created once per run and
// passed to every component that reports progress; nothing global is
// modified. Timestamps come from the logger's handler.
type Reporter struct {
	logger *slog.Logger
	w      io.Writer
	banner *color.Color
	now    func() time.Time
	scopes []scope
	closed bool
}

type scope struct {
	name    string
	started time.Time
}

// Option configures a Reporter
type Option func(*Reporter)

// WithWriter sets where banners are written. Default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) {
		r.w = w
	}
}

// WithColor enables or disables banner colours
func WithColor(enabled bool) Option {
	return func(r *Reporter) {
		if enabled {
			r.banner = color.New(color.FgGreen, color.Bold)
			r.banner.EnableColor()
		} else {
			r.banner = nil
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// New creates a Reporter that emits status lines through logger
func New(logger *slog.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		logger: logger,
		w:      os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin acquires a named scope. The returned function must be called exactly
// once when the scoped operation ends; it logs the outcome with the elapsed
// time and releases the scope. Scopes nest.
func (r *Reporter) Begin(ctx context.Context, name string) func(err error) {
	r.scopes = append(r.scopes, scope{name: name, started: r.now()})
	depth := len(r.scopes)

	released := false
	return func(err error) {
		if released || r.closed {
			return
		}
		released = true

		// Release inner scopes left open by an early return
		for len(r.scopes) > depth {
			r.release(ctx, r.scopes[len(r.scopes)-1], nil, true)
			r.scopes = r.scopes[:len(r.scopes)-1]
		}
		if len(r.scopes) == depth {
			r.release(ctx, r.scopes[depth-1], err, false)
			r.scopes = r.scopes[:depth-1]
		}
	}
}

func (r *Reporter) release(ctx context.Context, s scope, err error, aborted bool) {
	elapsed := r.now().Sub(s.started).Round(time.Millisecond)
	switch {
	case aborted:
		r.logger.WarnContext(ctx, fmt.Sprintf("%s aborted", s.name), "elapsed", elapsed)
	case err != nil:
		r.logger.ErrorContext(ctx, fmt.Sprintf("%s failed", s.name), "elapsed", elapsed, "error", err)
	default:
		r.logger.InfoContext(ctx, fmt.Sprintf("%s finished", s.name), "elapsed", elapsed)
	}
}

// Scope returns the name of the innermost open scope, or "" when none is open
func (r *Reporter) Scope() string {
	if len(r.scopes) == 0 {
		return ""
	}
	return r.scopes[len(r.scopes)-1].name
}

// Step reports a status line
func (r *Reporter) Step(ctx context.Context, format string, args ...any) {
	r.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

// Skip reports that name needs no work because it is already present
func (r *Reporter) Skip(ctx context.Context, name string) {
	r.logger.InfoContext(ctx, name+" already exists. Skipping...")
}

// Warn reports a non-fatal problem, tagged with the innermost open scope
func (r *Reporter) Warn(ctx context.Context, msg string, attrs ...any) {
	if s := r.Scope(); s != "" {
		attrs = append(attrs, "scope", s)
	}
	r.logger.WarnContext(ctx, msg, attrs...)
}

// Banner writes a framed, untimestamped title such as the end of a download phase
func (r *Reporter) Banner(title string) {
	line := "## " + title + " ##"
	frame := strings.Repeat("#", len(line))

	text := fmt.Sprintf("\n\n%s\n%s\n%s\n", frame, line, frame)
	if r.banner != nil {
		text = r.banner.Sprint(text)
	}
	_, _ = io.WriteString(r.w, text)
}

// Plain writes an untimestamped line
func (r *Reporter) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

// Close releases every scope still open and flushes the writer. It is safe
// to call more than once.
func (r *Reporter) Close() error {
	if r.closed {
		return nil
	}

	ctx := context.Background()
	for len(r.scopes) > 0 {
		r.release(ctx, r.scopes[len(r.scopes)-1], nil, true)
		r.scopes = r.scopes[:len(r.scopes)-1]
	}
	r.closed = true

	switch w := r.w.(type) {
	case interface{ Flush() error }:
		return w.Flush()
	case *os.File:
		if w == os.Stdout || w == os.Stderr {
			return nil
		}
		return w.Sync()
	}
	return nil
}
