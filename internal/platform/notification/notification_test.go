package notification

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Notice Tests
// ---------------------------------------------------------------------------

func TestNotice_Constructors(t *testing.T) {
	tests := []struct {
		notice Notice
		level  Level
	}{
		{Success("Request created", ""), LevelSuccess},
		{Info("Refreshing", ""), LevelInfo},
		{Warning("Location", "retry"), LevelWarning},
		{Error("Failed to fetch request details", "timeout"), LevelError},
	}

	for _, tt := range tests {
		if tt.notice.Level != tt.level {
			t.Errorf("%q: level = %s, want %s", tt.notice.Title, tt.notice.Level, tt.level)
		}
		if tt.notice.ID == "" {
			t.Errorf("%q: expected an id", tt.notice.Title)
		}
		if tt.notice.CreatedAt.IsZero() {
			t.Errorf("%q: expected a timestamp", tt.notice.Title)
		}
	}
}

func TestNotice_String(t *testing.T) {
	if got := Success("Request created", "").String(); got != "[success] Request created" {
		t.Errorf("unexpected %q", got)
	}
	if got := Error("Upload failed", "too large").String(); got != "[error] Upload failed: too large" {
		t.Errorf("unexpected %q", got)
	}
}

// ---------------------------------------------------------------------------
// Notifier Tests
// ---------------------------------------------------------------------------

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)
	n.Notify(context.Background(), Success("Request created", "redirecting"))
	n.Notify(context.Background(), Error("Failed", ""))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "[success] Request created: redirecting" {
		t.Errorf("unexpected first line %q", lines[0])
	}
}

func TestFanout(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Fanout{a, nil, b}.Notify(context.Background(), Info("hello", ""))

	if len(a.Notices()) != 1 || len(b.Notices()) != 1 {
		t.Errorf("expected both recorders to receive the notice")
	}
}

func TestRecorder_ConcurrentNotify(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.Notify(context.Background(), Error("e", ""))
			} else {
				r.Notify(context.Background(), Success("s", ""))
			}
		}(i)
	}
	wg.Wait()

	if r.Count(LevelError) != 25 || r.Count(LevelSuccess) != 25 {
		t.Errorf("unexpected counts: %d errors, %d successes", r.Count(LevelError), r.Count(LevelSuccess))
	}
}

func TestDiscard(t *testing.T) {
	Discard.Notify(context.Background(), Error("ignored", ""))
}
