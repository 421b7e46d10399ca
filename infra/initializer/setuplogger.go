package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	infoTxtColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnTxtColor  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorTxtColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugTxtColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}
)

var formatters = map[string]log.Formatter{
	"json":   log.JSONFormatter,
	"text":   log.TextFormatter,
	"logfmt": log.LogfmtFormatter,
}

// SetupLogger builds the process logger from cfg, installs it as the slog
// default and returns it.
func SetupLogger(cfg *config.Log) *slog.Logger {
	return setupLogger(os.Stdout, cfg)
}

func setupLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	formatter := log.TextFormatter
	if f, ok := formatters[cfg.Format]; ok {
		formatter = f
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(ledgerStyles())

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}

func ledgerStyles() *log.Styles {
	styles := log.DefaultStyles()

	levels := []struct {
		level log.Level
		glyph string
		color lipgloss.AdaptiveColor
	}{
		{log.ErrorLevel, "❌", errorTxtColor},
		{log.WarnLevel, "⚠️", warnTxtColor},
		{log.InfoLevel, "ℹ️", infoTxtColor},
		{log.DebugLevel, "🐛", debugTxtColor},
	}
	for _, l := range levels {
		styles.Levels[l.level] = lipgloss.NewStyle().
			SetString(l.glyph).
			Bold(true).
			Padding(0, 1).
			Foreground(l.color)
	}

	keys := map[string]lipgloss.AdaptiveColor{
		"error":          errorTxtColor,
		"account":        infoTxtColor,
		"transaction_id": infoTxtColor,
		"amount":         warnTxtColor,
		"prefix":         debugTxtColor,
		"caller":         debugTxtColor,
		"time":           debugTxtColor,
	}
	for k, c := range keys {
		styles.Keys[k] = lipgloss.NewStyle().Foreground(c)
		styles.Values[k] = lipgloss.NewStyle().Bold(true)
	}
	return styles
}
