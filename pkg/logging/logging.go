package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/pkg/ui"
)

// Output formats
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Options configures a logger
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json, logfmt
	Prefix string
}

// New builds a structured logger writing to w
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	if formatter == log.TextFormatter {
		logger.SetStyles(styles())
	}
	return logger, nil
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("invalid log format %q (expected %s, %s or %s)", format, FormatText, FormatJSON, FormatLogfmt)
	}
}

// styles aligns level colors with the CLI palette
func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("DEBU").Foreground(ui.ColorMuted)
	s.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INFO").Foreground(ui.ColorInfo).Bold(true)
	s.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Foreground(ui.ColorWarning).Bold(true)
	s.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERRO").Foreground(ui.ColorError).Bold(true)
	s.Keys["err"] = lipgloss.NewStyle().Foreground(ui.ColorError)
	s.Keys["stage"] = lipgloss.NewStyle().Foreground(ui.ColorAccent)
	return s
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}
