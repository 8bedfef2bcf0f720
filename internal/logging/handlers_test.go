package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestCombineHandlers(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)

	if _, ok := combineHandlers(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	if h := combineHandlers(nil, inner); h != inner {
		t.Fatalf("expected lone handler unwrapped, got %T", h)
	}
	if _, ok := combineHandlers(inner, inner).(multiHandler); !ok {
		t.Fatal("expected multiHandler for two handlers")
	}
}

func TestMultiHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	logger := slog.New(combineHandlers(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be enabled when any handler accepts it")
	}
	logger.Debug("debug only")
	logger.With("run_id", "r1").Info("both")

	if strings.Contains(infoBuf.String(), "debug only") {
		t.Fatalf("info handler received debug record: %s", infoBuf.String())
	}
	for name, buf := range map[string]*bytes.Buffer{"info": &infoBuf, "debug": &debugBuf} {
		if !strings.Contains(buf.String(), `"run_id":"r1"`) {
			t.Fatalf("%s handler missing attrs from With: %s", name, buf.String())
		}
	}
}

func TestJSONHandlerRewritesTimeLevelAndDurations(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, level, false))

	logger.Info("done", slog.Duration("elapsed", 1500*time.Millisecond), slog.Duration("lock_ms", 2*time.Millisecond))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if entry["level"] != "info" {
		t.Fatalf("level = %v", entry["level"])
	}
	ts, _ := entry["ts"].(string)
	if _, err := time.Parse(jsonTimeLayout, ts); err != nil {
		t.Fatalf("ts %q not in layout: %v", ts, err)
	}
	if entry["elapsed_ms"] != float64(1500) {
		t.Fatalf("elapsed_ms = %v", entry["elapsed_ms"])
	}
	if entry["lock_ms"] != float64(2) {
		t.Fatalf("lock_ms = %v", entry["lock_ms"])
	}
}

func TestFormatValueQuoting(t *testing.T) {
	cases := []struct {
		value slog.Value
		want  string
	}{
		{slog.StringValue("plain"), "plain"},
		{slog.StringValue("two words"), `"two words"`},
		{slog.StringValue(""), `""`},
		{slog.IntValue(42), "42"},
		{slog.BoolValue(true), "true"},
		{slog.DurationValue(2 * time.Second), "2s"},
		{slog.AnyValue(errTest("bad = value")), `"bad = value"`},
	}
	for _, tc := range cases {
		if got := formatValue(tc.value); got != tc.want {
			t.Fatalf("formatValue(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
	if got := attrString(slog.StringValue("two words")); got != "two words" {
		t.Fatalf("attrString quoted its value: %s", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
