package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var autosaveTracer = otel.Tracer("service/autosave")

const flushTimeout = 15 * time.Second

// Autosaver buffers journal page edits and flushes them after a quiet
// period, so a typing burst becomes one write instead of one per
// keystroke. One session per open page, at most one in-flight write per
// session; edits that land during a write ride out with the next flush.
type Autosaver struct {
	store   port.DraftWriter
	metrics *observability.Metrics
	logger  *zap.Logger
	quiet   time.Duration
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*draftSession

	stop chan struct{}
	done chan struct{}
}

// draftSession tracks one page's unsaved edits. All fields are guarded by
// the Autosaver mutex; the write itself happens outside the lock.
type draftSession struct {
	userID string
	pageID string

	draft        map[string]any
	lastSnapshot string

	timer   *time.Timer
	gen     uint64 // bumped on every timer restart; a fired-but-stale timer no-ops
	saving  bool
	unsaved bool

	lastErr     string
	lastSavedAt *time.Time
	touched     time.Time
}

func (s *draftSession) state() *domain.DraftState {
	return &domain.DraftState{
		PageID:            s.pageID,
		HasUnsavedChanges: s.unsaved,
		IsSaving:          s.saving,
		LastSavedAt:       s.lastSavedAt,
		LastError:         s.lastErr,
	}
}

// NewAutosaver starts the coordinator and its idle-session sweeper.
// quiet is the debounce window after the last edit; idleTTL is how long a
// session may sit untouched before it is flushed and dropped.
func NewAutosaver(store port.DraftWriter, metrics *observability.Metrics, logger *zap.Logger, quiet, idleTTL time.Duration) *Autosaver {
	if quiet <= 0 {
		quiet = time.Second
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	a := &Autosaver{
		store:    store,
		metrics:  metrics,
		logger:   logger,
		quiet:    quiet,
		idleTTL:  idleTTL,
		sessions: make(map[string]*draftSession),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go a.sweepLoop()
	return a
}

func sessionKey(userID, pageID string) string {
	return userID + "/" + pageID
}

// Update merges edited fields into the page's draft and restarts the
// quiet timer. The flush happens in the background once the user pauses.
func (a *Autosaver) Update(userID, pageID string, fields map[string]any) *domain.DraftState {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := sessionKey(userID, pageID)
	sess := a.sessions[key]
	if sess == nil {
		sess = &draftSession{
			userID: userID,
			pageID: pageID,
			draft:  make(map[string]any),
		}
		a.sessions[key] = sess
		a.metrics.SetOpenSessions(len(a.sessions))
	}
	sess.touched = time.Now()
	if len(fields) == 0 {
		return sess.state()
	}

	for k, v := range fields {
		sess.draft[k] = v
	}
	sess.unsaved = true
	sess.gen++
	gen := sess.gen
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.timer = time.AfterFunc(a.quiet, func() { a.timerFired(key, gen) })

	return sess.state()
}

// timerFired runs when a quiet window elapses. A later edit bumps the
// generation, which turns earlier timers into no-ops.
func (a *Autosaver) timerFired(key string, gen uint64) {
	a.mu.Lock()
	sess := a.sessions[key]
	if sess == nil || sess.gen != gen || !sess.unsaved {
		a.mu.Unlock()
		return
	}
	userID, pageID := sess.userID, sess.pageID
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if _, err := a.Flush(ctx, userID, pageID); err != nil {
		a.logger.Warn("autosave flush failed",
			zap.String("page_id", pageID),
			zap.Error(err),
		)
	}
}

// Flush persists the page's draft now. Explicit callers (blur, navigation)
// and the quiet timer share this path, so the rules apply to both: an
// unchanged draft is skipped and a write already in flight is not doubled.
// A failed write keeps the draft dirty for the next attempt; there is no
// automatic retry.
func (a *Autosaver) Flush(ctx context.Context, userID, pageID string) (*domain.DraftState, error) {
	ctx, span := autosaveTracer.Start(ctx, "Autosaver.Flush")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	key := sessionKey(userID, pageID)

	a.mu.Lock()
	sess := a.sessions[key]
	if sess == nil {
		a.mu.Unlock()
		return &domain.DraftState{PageID: pageID}, nil
	}
	sess.touched = time.Now()
	sess.gen++ // a pending timer would only repeat this flush
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}

	if sess.saving {
		a.metrics.IncrAutosaveFlush(observability.FlushCoalesced)
		st := sess.state()
		a.mu.Unlock()
		return st, nil
	}

	snapshot, err := serializeDraft(sess.draft)
	if err != nil {
		sess.lastErr = err.Error()
		st := sess.state()
		a.mu.Unlock()
		return st, err
	}
	if snapshot == sess.lastSnapshot {
		sess.unsaved = false
		a.metrics.IncrAutosaveFlush(observability.FlushSkipped)
		st := sess.state()
		a.mu.Unlock()
		return st, nil
	}

	sess.saving = true
	fields := make(map[string]any, len(sess.draft))
	for k, v := range sess.draft {
		fields[k] = v
	}
	a.mu.Unlock()

	writeErr := a.store.SaveJournalDraft(ctx, userID, pageID, fields)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sessions[key] != sess {
		// Closed mid-write. The write stands but the session is gone and
		// must not be resurrected.
		if writeErr != nil {
			a.metrics.IncrAutosaveFlush(observability.FlushFailed)
			return nil, writeErr
		}
		a.metrics.IncrAutosaveFlush(observability.FlushWritten)
		return nil, &domain.ErrSessionClosed{PageID: pageID}
	}

	sess.saving = false
	if writeErr != nil {
		sess.lastErr = writeErr.Error()
		a.metrics.IncrAutosaveFlush(observability.FlushFailed)
		return sess.state(), writeErr
	}

	now := time.Now()
	sess.lastSavedAt = &now
	sess.lastErr = ""
	sess.lastSnapshot = snapshot
	// Edits that arrived while the write was out keep the session dirty.
	current, serr := serializeDraft(sess.draft)
	sess.unsaved = serr != nil || current != snapshot
	a.metrics.IncrAutosaveFlush(observability.FlushWritten)
	return sess.state(), nil
}

// Close tears a session down without writing: the pending timer dies and
// buffered edits are discarded. Callers wanting a final save flush first.
func (a *Autosaver) Close(userID, pageID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := sessionKey(userID, pageID)
	sess := a.sessions[key]
	if sess == nil {
		return
	}
	sess.gen++
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	delete(a.sessions, key)
	a.metrics.SetOpenSessions(len(a.sessions))
}

// State reports a session for the editor status strip. Unknown pages get
// a zero state rather than an error, since polling outlives sessions.
func (a *Autosaver) State(userID, pageID string) *domain.DraftState {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess := a.sessions[sessionKey(userID, pageID)]
	if sess == nil {
		return &domain.DraftState{PageID: pageID}
	}
	return sess.state()
}

// Sessions returns the number of open autosave sessions.
func (a *Autosaver) Sessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// Shutdown stops the sweeper and flushes every dirty session once before
// dropping them all. Failed flushes are logged and abandoned; the process
// is exiting either way.
func (a *Autosaver) Shutdown(ctx context.Context) {
	close(a.stop)
	<-a.done

	a.mu.Lock()
	dirty := make([]*draftSession, 0, len(a.sessions))
	for _, sess := range a.sessions {
		if sess.unsaved {
			dirty = append(dirty, sess)
		}
	}
	a.mu.Unlock()

	for _, sess := range dirty {
		if _, err := a.Flush(ctx, sess.userID, sess.pageID); err != nil {
			a.logger.Warn("final autosave flush failed",
				zap.String("page_id", sess.pageID),
				zap.Error(err),
			)
		}
	}

	a.mu.Lock()
	a.sessions = make(map[string]*draftSession)
	a.metrics.SetOpenSessions(0)
	a.mu.Unlock()
}

// sweepLoop flushes and drops sessions nobody has touched for idleTTL,
// so abandoned editors do not pin memory forever.
func (a *Autosaver) sweepLoop() {
	defer close(a.done)

	interval := a.idleTTL / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.sweepIdle()
		case <-a.stop:
			return
		}
	}
}

func (a *Autosaver) sweepIdle() {
	cutoff := time.Now().Add(-a.idleTTL)

	a.mu.Lock()
	idle := make([]*draftSession, 0)
	for _, sess := range a.sessions {
		if sess.touched.Before(cutoff) && !sess.saving {
			idle = append(idle, sess)
		}
	}
	a.mu.Unlock()

	for _, sess := range idle {
		if sess.unsaved {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			_, err := a.Flush(ctx, sess.userID, sess.pageID)
			cancel()
			if err != nil {
				a.logger.Warn("idle session flush failed",
					zap.String("page_id", sess.pageID),
					zap.Error(err),
				)
				continue // keep the session; the next sweep retries
			}
		}
		if a.closeIfClean(sess.userID, sess.pageID) {
			a.logger.Debug("idle autosave session closed", zap.String("page_id", sess.pageID))
		}
	}
}

// closeIfClean drops a session only if nothing is unsaved or in flight.
// An edit landing between the sweep's flush and this call keeps the
// session alive instead of being discarded.
func (a *Autosaver) closeIfClean(userID, pageID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := sessionKey(userID, pageID)
	sess := a.sessions[key]
	if sess == nil {
		return false
	}
	if sess.unsaved || sess.saving {
		return false
	}
	sess.gen++
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	delete(a.sessions, key)
	a.metrics.SetOpenSessions(len(a.sessions))
	return true
}

// serializeDraft renders a draft deterministically so unchanged content
// can be detected. json.Marshal sorts map keys, which is what makes the
// comparison stable.
func serializeDraft(draft map[string]any) (string, error) {
	b, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
