package logging

import (
	"context"
	"io"
	"log/slog"
	"text/template"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
)

// TimeFormat renders timestamps as YY-MM-DD HH:MM:SS
const TimeFormat = "06-01-02 15:04:05"

// consoleTemplate prefixes every line with the bracketed timestamp. The level
// is printed only for non-INFO records so plain status lines stay readable.
var consoleTemplate = template.Must(template.New("console").Parse(
	`[{{.Timestamp}}] {{ if .Level }}{{.Level}} {{ end }}{{.Message}} `,
))

var consoleColors = &clog.ColorMap{
	Level: map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgWhite, color.Bold),
		slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	},
	Time:      color.New(color.FgHiBlack),
	AttrKey:   color.New(color.FgWhite),
	AttrValue: color.New(color.FgHiWhite),
}

func consoleLevel(level slog.Level) string {
	if level == slog.LevelInfo {
		return ""
	}
	return level.String()
}

// ConsoleOptions configures NewConsoleHandler
type ConsoleOptions struct {
	Level       slog.Leveler
	Color       bool
	ReplaceAttr func(groups []string, a slog.Attr) slog.Attr
}

// NewConsoleHandler returns a clog handler writing timestamped status lines to w
func NewConsoleHandler(w io.Writer, opts ConsoleOptions) slog.Handler {
	options := []clog.Option{
		clog.WithWriter(w),
		clog.WithTimeFmt(TimeFormat),
		clog.WithTemplate(consoleTemplate),
		clog.WithLevelFormatter(consoleLevel),
		clog.WithColor(opts.Color),
		clog.WithColorMap(consoleColors),
	}
	if opts.Level != nil {
		options = append(options, clog.WithLevel(opts.Level))
	}
	if opts.ReplaceAttr != nil {
		options = append(options, clog.WithReplaceAttr(opts.ReplaceAttr))
	}
	return clog.New(options...)
}

type ctxLoggerKey struct{}

// With returns a context carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger carried by ctx, or slog.Default() when there is none
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// Detach returns a background context that keeps the logger of ctx.
// Used for work that must still run after ctx was cancelled, such as
// sending the final notification of an interrupted run.
func Detach(ctx context.Context) context.Context {
	return With(context.Background(), From(ctx))
}
