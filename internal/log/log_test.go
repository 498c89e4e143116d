package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentBudget, Writer: &buf})

	logger.Debug("hidden")
	logger.Info("Month created", FieldMonthKey, "2026-01")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec[FieldComponent] != ComponentBudget || rec[FieldMonthKey] != "2026-01" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Writer: &buf}).WithComponent(ComponentStorage)
	logger.Warn("slow query")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=storage") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != ComponentApp {
		t.Fatalf("default component = %q", l.Component())
	}

	logger := New(Config{Component: ComponentHTTP, Writer: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected the stored logger back")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "text", Writer: &buf})

	h := Middleware(base)(RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get("X-Request-ID")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req_abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Fatalf("request id missing from %q", buf.String())
	}
}

func TestFieldsToSliceIsSorted(t *testing.T) {
	got := NewFields().
		WithUser("usr_1").
		WithMonth("2026-02").
		WithCategory("savings", "").
		WithError(errors.New("boom")).
		WithError(nil).
		ToSlice()

	want := []any{
		FieldCategoryKind, "savings",
		FieldError, "boom",
		FieldMonthKey, "2026-02",
		FieldUserID, "usr_1",
	}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ToSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{503, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Writer: &buf}))
		req := httptest.NewRequest(http.MethodGet, "/api/months", nil)
		sl.LogHTTPEnd(context.Background(), req, "req_1", tt.status, 3, "127.0.0.1")
		if !strings.Contains(buf.String(), tt.level) || !strings.Contains(buf.String(), "component=http") {
			t.Errorf("status %d: got %q", tt.status, buf.String())
		}
	}
}
