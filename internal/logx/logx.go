// Package logx provides the slog handler used by the realvk command: one line
// per record with a colored level tag.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

type Options struct {
	Level slog.Leveler
	// NoColor forces plain output even on a terminal.
	NoColor bool
	// NoTime drops the timestamp column.
	NoTime bool
}

type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	out    *termenv.Output
	opts   Options
	attrs  string
	prefix string
}

func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.NoColor {
		h.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	} else {
		h.out = termenv.NewOutput(w)
	}
	return h
}

// New returns a logger writing through a Handler at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, &Options{Level: level}))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !h.opts.NoTime && !r.Time.IsZero() {
		b.WriteString(r.Time.Format(time.TimeOnly))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	nh.attrs = b.String()
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func (h *Handler) levelTag(level slog.Level) string {
	tag := fmt.Sprintf("%-5s", level.String())
	var c termenv.Color
	switch {
	case level >= slog.LevelError:
		c = termenv.ANSIRed
	case level >= slog.LevelWarn:
		c = termenv.ANSIYellow
	case level >= slog.LevelInfo:
		c = termenv.ANSIGreen
	default:
		c = termenv.ANSIMagenta
	}
	return h.out.String(tag).Foreground(c).Bold().String()
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, p, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	s := a.Value.String()
	if strings.ContainsAny(s, " \t\"=") {
		s = fmt.Sprintf("%q", s)
	}
	b.WriteString(s)
}
