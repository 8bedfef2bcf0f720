package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders records for humans: one header line naming the
// component and pipeline step, then one indented line per field.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	addSource bool
	prefix    string // group path applied to attrs added later, "a.b."
	fields    []kv   // attrs from WithAttrs, already flattened
}

type kv struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append(append([]kv(nil), h.fields...), flatten(h.prefix, attrs)...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]kv(nil), h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, flatten(h.prefix, []slog.Attr{attr})...)
		return true
	})
	fields = lastWins(fields)

	var component, stage string
	body := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
		case FieldStage:
			stage = attrString(f.value)
		default:
			body = append(body, f)
		}
	}

	var b strings.Builder
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(formatTimestamp(ts))
	fmt.Fprintf(&b, " %-5s ", levelLabel(record.Level))
	if scope := joinScope(component, stage); scope != "" {
		b.WriteString(scope)
		b.WriteByte(' ')
	}
	b.WriteString("| ")
	if msg := strings.TrimSpace(record.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		for _, f := range body {
			fmt.Fprintf(&b, "    %s=%s\n", f.key, formatValue(f.value))
		}
	} else {
		shown, hidden := selectInfoFields(body, infoAttrLimit)
		for _, f := range shown {
			fmt.Fprintf(&b, "    %s: %s\n", f.label, f.value)
		}
		if hidden > 0 {
			fmt.Fprintf(&b, "    (+%d more)\n", hidden)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func joinScope(component, stage string) string {
	switch {
	case component != "" && stage != "":
		return component + "/" + stage
	case component != "":
		return component
	default:
		return stage
	}
}

// flatten expands groups into dotted keys and drops empty attrs.
func flatten(prefix string, attrs []slog.Attr) []kv {
	var out []kv
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		val := attr.Value.Resolve()
		if val.Kind() == slog.KindGroup {
			inner := prefix
			if attr.Key != "" {
				inner += attr.Key + "."
			}
			out = append(out, flatten(inner, val.Group())...)
			continue
		}
		out = append(out, kv{key: prefix + attr.Key, value: val})
	}
	return out
}

// lastWins keeps the first position of each key with its latest value.
func lastWins(fields []kv) []kv {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := make([]kv, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, seen := index[f.key]; seen {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
