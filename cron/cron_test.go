package cron_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSchedule(t *testing.T) {
	valid := []string{
		"* * * * *",
		"*/5 * * * *",
		"0 3 * * 0",
		"@every 30s",
		"@hourly",
	}
	for _, expr := range valid {
		if _, err := cron.ParseSchedule(expr); err != nil {
			t.Errorf("ParseSchedule(%q) = %v, want nil", expr, err)
		}
	}

	invalid := []string{
		"",
		"not a schedule",
		"* * * *",
		"61 * * * *",
	}
	for _, expr := range invalid {
		if _, err := cron.ParseSchedule(expr); err == nil {
			t.Errorf("ParseSchedule(%q) = nil, want error", expr)
		}
	}
}

func TestNewEntry(t *testing.T) {
	e, err := cron.New("nightly-backup", "0 3 * * *", "backup.sh", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if e.Name != "nightly-backup" {
		t.Errorf("name = %q, want %q", e.Name, "nightly-backup")
	}
	if !e.Enabled {
		t.Error("new entry not enabled")
	}
	if e.NextRunAt == nil {
		t.Fatal("NextRunAt not seeded")
	}
	if !e.NextRunAt.After(time.Now().Add(-time.Minute)) {
		t.Errorf("NextRunAt = %v, want in the future", e.NextRunAt)
	}
	if e.MaxRetries != nil {
		t.Errorf("MaxRetries = %v, want nil", e.MaxRetries)
	}
}

func TestNewEntryRejectsInvalidSchedule(t *testing.T) {
	if _, err := cron.New("bad", "not a schedule", "true", nil); err == nil {
		t.Error("New with invalid schedule = nil, want error")
	}
}

func TestEntryDue(t *testing.T) {
	now := queuectl.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		enabled bool
		next    *time.Time
		want    bool
	}{
		{"next in past", true, &past, true},
		{"next exactly now", true, &now, true},
		{"next in future", true, &future, false},
		{"nil next self-heals to due", true, nil, true},
		{"disabled never due", false, &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &cron.Entry{Enabled: tt.enabled, NextRunAt: tt.next}
			if got := e.Due(now); got != tt.want {
				t.Errorf("Due = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntryCloneIndependence(t *testing.T) {
	mr := 5
	e, err := cron.New("clone-me", "* * * * *", "true", &mr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cp := e.Clone()
	*cp.MaxRetries = 9
	cp.NextRunAt = nil

	if *e.MaxRetries != 5 {
		t.Errorf("original MaxRetries = %d, want 5", *e.MaxRetries)
	}
	if e.NextRunAt == nil {
		t.Error("original NextRunAt mutated through clone")
	}
}

// capturingEnqueue records every enqueue the scheduler performs.
type capturingEnqueue struct {
	mu       sync.Mutex
	commands []string
	retries  []*int
}

func (c *capturingEnqueue) fn(_ context.Context, command string, maxRetries *int) (id.JobID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, command)
	c.retries = append(c.retries, maxRetries)
	return id.NewJobID(), nil
}

func (c *capturingEnqueue) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.commands)
}

// dueEntry creates an entry whose NextRunAt is already in the past.
func dueEntry(t *testing.T, name, command string, maxRetries *int) *cron.Entry {
	t.Helper()
	e, err := cron.New(name, "* * * * *", command, maxRetries)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	past := queuectl.Now().Add(-time.Minute)
	e.NextRunAt = &past
	return e
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSchedulerFiresDueEntryOnce(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	mr := 7
	if err := store.AddCron(ctx, dueEntry(t, "report", "make report", &mr)); err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	cap := &capturingEnqueue{}
	s := cron.NewScheduler(store, cap.fn, discardLogger(),
		cron.WithTickInterval(10*time.Millisecond),
	)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(ctx) //nolint:errcheck

	waitFor(t, 5*time.Second, func() bool { return cap.count() >= 1 })

	// NextRunAt advanced into the future; further ticks must not re-fire
	// this minute's occurrence.
	time.Sleep(100 * time.Millisecond)
	if got := cap.count(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}

	cap.mu.Lock()
	defer cap.mu.Unlock()
	if cap.commands[0] != "make report" {
		t.Errorf("enqueued command = %q, want %q", cap.commands[0], "make report")
	}
	if cap.retries[0] == nil || *cap.retries[0] != 7 {
		t.Errorf("enqueued max retries = %v, want 7", cap.retries[0])
	}

	entries, err := store.ListCrons(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListCrons: entries=%d err=%v", len(entries), err)
	}
	if entries[0].LastRunAt == nil {
		t.Error("LastRunAt not stamped after firing")
	}
	if entries[0].NextRunAt == nil || !entries[0].NextRunAt.After(queuectl.Now().Add(-time.Second)) {
		t.Errorf("NextRunAt = %v, want advanced into the future", entries[0].NextRunAt)
	}
}

func TestSchedulerSkipsDisabledEntries(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	e := dueEntry(t, "disabled-report", "true", nil)
	e.Enabled = false
	if err := store.AddCron(ctx, e); err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	cap := &capturingEnqueue{}
	s := cron.NewScheduler(store, cap.fn, discardLogger(),
		cron.WithTickInterval(10*time.Millisecond),
	)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if got := cap.count(); got != 0 {
		t.Errorf("disabled entry fired %d times, want 0", got)
	}
}

func TestSchedulerEnqueuesRunnableJob(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	if err := store.AddCron(ctx, dueEntry(t, "touch", "touch /tmp/x", nil)); err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	// Wire the scheduler to the store the way the CLI does.
	enqueue := func(ctx context.Context, command string, maxRetries *int) (id.JobID, error) {
		j := job.New(command, maxRetries)
		if err := store.Enqueue(ctx, j); err != nil {
			return id.JobID{}, err
		}
		return j.ID, nil
	}

	s := cron.NewScheduler(store, enqueue, discardLogger(),
		cron.WithTickInterval(10*time.Millisecond),
	)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(ctx) //nolint:errcheck

	waitFor(t, 5*time.Second, func() bool {
		c, err := store.Counts(ctx)
		return err == nil && c.Pending == 1
	})

	jobs, err := store.List(ctx, job.StatePending)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("List: jobs=%d err=%v", len(jobs), err)
	}
	if jobs[0].Command != "touch /tmp/x" {
		t.Errorf("command = %q, want %q", jobs[0].Command, "touch /tmp/x")
	}
}
