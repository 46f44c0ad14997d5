package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/logging"
)

// Logger holds logger configuration
type Logger struct {
	Level string
	JSON  bool
	Color bool
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &c.Level,
			Sources:     cli.EnvVars("LUNA25_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Output logs in JSON format",
			Value:       false,
			Destination: &c.JSON,
			Sources:     cli.EnvVars("LUNA25_LOG_JSON"),
		},
		&cli.BoolFlag{
			Name:        "log-color",
			Usage:       "Colorize console output",
			Value:       true,
			Destination: &c.Color,
			Sources:     cli.EnvVars("LUNA25_LOG_COLOR"),
		},
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, goerr.New("invalid log level",
			goerr.Tag(types.ErrTagConfig),
			goerr.V("level", s))
	}
}

// Configure configures and returns a logger writing to w. Any value in
// secrets is redacted wherever it shows up in a log attribute.
func (c *Logger) Configure(w io.Writer, secrets ...string) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	filters := []masq.Option{
		masq.WithTag("secret"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("WebhookURL"),
		masq.WithFieldName("DSN"),
	}
	for _, s := range secrets {
		if s != "" {
			filters = append(filters, masq.WithContain(s))
		}
	}
	redact := masq.New(filters...)

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redact,
		})
	} else {
		handler = logging.NewConsoleHandler(w, logging.ConsoleOptions{
			Level:       level,
			Color:       c.Color,
			ReplaceAttr: redact,
		})
	}

	return slog.New(handler), nil
}
