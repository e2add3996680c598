package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

// mockDraftWriter records every draft write. When blocked is set, writes
// park on release so tests can hold a flush in flight.
type mockDraftWriter struct {
	mu    sync.Mutex
	calls []map[string]any
	err   error

	blocked bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingWriter() *mockDraftWriter {
	return &mockDraftWriter{
		blocked: true,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (m *mockDraftWriter) SaveJournalDraft(_ context.Context, _, _ string, fields map[string]any) error {
	if m.blocked {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	m.calls = append(m.calls, copied)
	return m.err
}

func (m *mockDraftWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockDraftWriter) last() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func newTestAutosaver(store *mockDraftWriter, quiet time.Duration) *service.Autosaver {
	return service.NewAutosaver(store, observability.NewMetrics(), zap.NewNop(), quiet, 30*time.Minute)
}

// --- Tests ---

func TestUpdateMergesFieldsAcrossCalls(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"title": "Kitchen demo notes"})
	st := a.Update("user-1", "page-1", map[string]any{"content": "pulled cabinets today"})

	if !st.HasUnsavedChanges {
		t.Fatal("expected unsaved changes after updates")
	}

	if _, err := a.Flush(context.Background(), "user-1", "page-1"); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got := store.last()
	if got["title"] != "Kitchen demo notes" || got["content"] != "pulled cabinets today" {
		t.Errorf("expected merged draft, got %v", got)
	}
}

func TestFlushSkipsUnchangedDraft(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "draft v1"})

	st, err := a.Flush(context.Background(), "user-1", "page-1")
	if err != nil {
		t.Fatalf("first flush: %v", err)
	}
	if st.HasUnsavedChanges {
		t.Error("expected clean state after flush")
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 write, got %d", store.count())
	}

	// Same content again: the second flush must not touch the store.
	st, err = a.Flush(context.Background(), "user-1", "page-1")
	if err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if st.HasUnsavedChanges {
		t.Error("expected clean state after skipped flush")
	}
	if store.count() != 1 {
		t.Errorf("expected second flush to skip the write, got %d writes", store.count())
	}
}

func TestFlushSkipsWhenEditRestoresPersistedContent(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "v1"})
	if _, err := a.Flush(context.Background(), "user-1", "page-1"); err != nil {
		t.Fatalf("flush: %v", err)
	}

	// Edit away and back. The draft once again matches what was
	// persisted, so flushing writes nothing.
	a.Update("user-1", "page-1", map[string]any{"content": "v2"})
	st := a.Update("user-1", "page-1", map[string]any{"content": "v1"})
	if !st.HasUnsavedChanges {
		t.Fatal("expected dirty state before flush")
	}

	st, err := a.Flush(context.Background(), "user-1", "page-1")
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if st.HasUnsavedChanges {
		t.Error("expected skip to clear the unsaved flag")
	}
	if store.count() != 1 {
		t.Errorf("expected no second write, got %d writes", store.count())
	}
}

func TestRapidEditsProduceOneWriteWithFinalDraft(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, 150*time.Millisecond)

	for i, content := range []string{"v1", "v2", "v3", "v4", "v5"} {
		a.Update("user-1", "page-1", map[string]any{"content": content})
		if i < 4 {
			time.Sleep(20 * time.Millisecond) // inside the quiet window
		}
	}

	deadline := time.After(3 * time.Second)
	for store.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timer flush never ran")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	// Give any extra (buggy) flushes a chance to show up.
	time.Sleep(400 * time.Millisecond)

	if store.count() != 1 {
		t.Errorf("expected exactly 1 write for the burst, got %d", store.count())
	}
	if got := store.last()["content"]; got != "v5" {
		t.Errorf("expected final draft v5 to be written, got %v", got)
	}
}

func TestCloseBeforeTimerFiresWritesNothing(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, 150*time.Millisecond)

	a.Update("user-1", "page-1", map[string]any{"content": "never saved"})
	a.Close("user-1", "page-1")

	time.Sleep(400 * time.Millisecond)

	if store.count() != 0 {
		t.Errorf("expected zero writes after close, got %d", store.count())
	}
	if st := a.State("user-1", "page-1"); st.HasUnsavedChanges {
		t.Error("closed session should report a zero state")
	}
	if a.Sessions() != 0 {
		t.Errorf("expected no open sessions, got %d", a.Sessions())
	}
}

func TestFailedFlushKeepsDraftDirty(t *testing.T) {
	store := &mockDraftWriter{err: errors.New("supabase unavailable")}
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "v1"})

	st, err := a.Flush(context.Background(), "user-1", "page-1")
	if err == nil {
		t.Fatal("expected flush error")
	}
	if !st.HasUnsavedChanges {
		t.Error("failed flush must keep the draft dirty")
	}
	if st.LastError == "" {
		t.Error("expected last_error to be recorded")
	}
	if store.count() != 1 {
		t.Fatalf("expected exactly 1 attempt (no auto-retry), got %d", store.count())
	}

	// The store recovers; the next explicit flush succeeds.
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	st, err = a.Flush(context.Background(), "user-1", "page-1")
	if err != nil {
		t.Fatalf("flush after recovery: %v", err)
	}
	if st.HasUnsavedChanges {
		t.Error("expected clean state after successful retry")
	}
	if st.LastError != "" {
		t.Errorf("expected last_error cleared, got %q", st.LastError)
	}
	if st.LastSavedAt == nil {
		t.Error("expected last_saved_at to be set")
	}
}

func TestSecondFlushDuringFlightDoesNotWrite(t *testing.T) {
	store := newBlockingWriter()
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "v1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := a.Flush(context.Background(), "user-1", "page-1"); err != nil {
			t.Errorf("in-flight flush: %v", err)
		}
	}()

	<-store.entered // the write is now parked inside the store

	st, err := a.Flush(context.Background(), "user-1", "page-1")
	if err != nil {
		t.Fatalf("concurrent flush: %v", err)
	}
	if !st.IsSaving {
		t.Error("concurrent flush should report the in-flight write")
	}

	close(store.release)
	<-done

	if store.count() != 1 {
		t.Errorf("expected a single write, got %d", store.count())
	}
}

func TestEditDuringFlightStaysDirty(t *testing.T) {
	store := newBlockingWriter()
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "v1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.Flush(context.Background(), "user-1", "page-1")
	}()

	<-store.entered
	a.Update("user-1", "page-1", map[string]any{"content": "v2"})
	close(store.release)
	<-done

	st := a.State("user-1", "page-1")
	if !st.HasUnsavedChanges {
		t.Fatal("draft that moved on during the write must stay dirty")
	}
	if got := store.last()["content"]; got != "v1" {
		t.Errorf("in-flight write should carry the pre-edit draft, got %v", got)
	}

	// The follow-up flush persists the newer content.
	store.mu.Lock()
	store.blocked = false
	store.mu.Unlock()
	st, err := a.Flush(context.Background(), "user-1", "page-1")
	if err != nil {
		t.Fatalf("follow-up flush: %v", err)
	}
	if st.HasUnsavedChanges {
		t.Error("expected clean state after follow-up flush")
	}
	if got := store.last()["content"]; got != "v2" {
		t.Errorf("expected v2 persisted, got %v", got)
	}
}

func TestCloseDuringFlightDoesNotResurrectSession(t *testing.T) {
	store := newBlockingWriter()
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "v1"})

	done := make(chan error, 1)
	go func() {
		_, err := a.Flush(context.Background(), "user-1", "page-1")
		done <- err
	}()

	<-store.entered
	a.Close("user-1", "page-1")
	close(store.release)
	err := <-done

	var closed *domain.ErrSessionClosed
	if !errors.As(err, &closed) {
		t.Errorf("expected ErrSessionClosed from the orphaned flush, got %v", err)
	}
	if a.Sessions() != 0 {
		t.Errorf("expected completed write to leave no session, got %d", a.Sessions())
	}
	if st := a.State("user-1", "page-1"); st.IsSaving || st.HasUnsavedChanges {
		t.Error("state after close should be zero")
	}
}

func TestFlushWithoutSessionIsNoop(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, time.Minute)

	st, err := a.Flush(context.Background(), "user-1", "page-unknown")
	if err != nil {
		t.Fatalf("flush without session: %v", err)
	}
	if st.HasUnsavedChanges || st.IsSaving {
		t.Error("expected zero state")
	}
	if store.count() != 0 {
		t.Errorf("expected no writes, got %d", store.count())
	}
}

func TestStateForUnknownPage(t *testing.T) {
	a := newTestAutosaver(&mockDraftWriter{}, time.Minute)

	st := a.State("user-1", "page-unknown")
	if st.PageID != "page-unknown" {
		t.Errorf("expected page id echoed, got %q", st.PageID)
	}
	if st.HasUnsavedChanges || st.IsSaving || st.LastSavedAt != nil {
		t.Error("expected zero state for unknown page")
	}
}

func TestShutdownFlushesDirtySessions(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, time.Minute) // timer will not fire on its own

	a.Update("user-1", "page-1", map[string]any{"content": "v1"})
	a.Update("user-1", "page-2", map[string]any{"content": "v2"})

	a.Shutdown(context.Background())

	if store.count() != 2 {
		t.Errorf("expected both dirty sessions flushed, got %d writes", store.count())
	}
	if a.Sessions() != 0 {
		t.Errorf("expected all sessions dropped, got %d", a.Sessions())
	}
}

func TestSessionsAreScopedPerUser(t *testing.T) {
	store := &mockDraftWriter{}
	a := newTestAutosaver(store, time.Minute)

	a.Update("user-1", "page-1", map[string]any{"content": "mine"})
	st := a.State("user-2", "page-1")
	if st.HasUnsavedChanges {
		t.Error("another user's session must not be visible")
	}
	if a.Sessions() != 1 {
		t.Errorf("expected 1 session, got %d", a.Sessions())
	}
}
