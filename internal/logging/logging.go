// Package logging builds msaada's request/lifecycle logger: structured
// slog records rendered either as colorized text for an interactive
// terminal or as JSON for pipes/files/CI, following the teacher's own
// choice of log/slog as the base.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Options configures logger construction.
type Options struct {
	Level          slog.Level
	AddSource      bool
	NoTimestamps   bool
	ForceNoColor   bool
	RequestLogging bool
}

// New builds a *slog.Logger writing to w (os.Stdout in production). When
// w is a TTY and ForceNoColor is false, records are rendered with
// lipgloss styling; otherwise they fall back to slog's own JSON handler
// so piping to a file or CI produces plain, parseable lines.
// NoTimestamps drops the time from both renderings.
func New(w io.Writer, opts Options) *slog.Logger {
	if f, ok := w.(*os.File); ok && !opts.ForceNoColor && isatty.IsTerminal(f.Fd()) {
		return slog.New(newColorHandler(f, opts))
	}
	handlerOpts := &slog.HandlerOptions{AddSource: opts.AddSource, Level: opts.Level}
	if opts.NoTimestamps {
		handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

var (
	levelStyles = map[slog.Level]lipgloss.Style{
		slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	attrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// colorHandler is a slog.Handler that renders records as a single
// colorized line: `[time] LEVEL message key=value ...`.
type colorHandler struct {
	w            io.Writer
	level        slog.Leveler
	noTimestamps bool
	attrs        []slog.Attr
}

func newColorHandler(w io.Writer, opts Options) *colorHandler {
	return &colorHandler{w: w, level: opts.Level, noTimestamps: opts.NoTimestamps}
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if !h.noTimestamps {
		b.WriteString(timeStyle.Render(r.Time.Format(time.TimeOnly)))
		b.WriteByte(' ')
	}

	style, ok := levelStyles[r.Level]
	if !ok {
		style = levelStyles[slog.LevelInfo]
	}
	b.WriteString(style.Render(levelLabel(r.Level)))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s", attrStyle.Render(a.Key+"="+a.Value.String()))
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s", attrStyle.Render(a.Key+"="+a.Value.String()))
		return true
	})

	b.WriteByte('\n')
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *colorHandler) WithGroup(_ string) slog.Handler {
	return h
}

func levelLabel(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO "
	case l < slog.LevelError:
		return "WARN "
	default:
		return "ERROR"
	}
}
