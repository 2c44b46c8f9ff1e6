package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotStore persists wizard draft snapshots for recovery.
type SnapshotStore interface {
	Save(ctx context.Context, draftID uuid.UUID, data []byte) error
	Load(ctx context.Context, draftID uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, draftID uuid.UUID) error
}

// SnapshotFunc produces the bytes to save. It runs when the save fires, not when it is scheduled.
// Returning errDraftClosed skips the save.
type SnapshotFunc func() ([]byte, error)

var errDraftClosed = errors.New("draft closed")

const (
	autosaveTimeout    = 5 * time.Second
	autosaveRetryDelay = 250 * time.Millisecond
	autosaveMaxRetries = 1
)

// Autosaver debounces snapshot writes per draft and retries a failed write once.
type Autosaver struct {
	store    SnapshotStore
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	pending  map[uuid.UUID]*pendingSave
	failures map[uuid.UUID]error
	gens     map[uuid.UUID]uint64
	saving   map[uuid.UUID]*sync.Mutex
	stopped  bool
}

type pendingSave struct {
	timer    *time.Timer
	snapshot SnapshotFunc
	gen      uint64
}

// NewAutosaver creates an Autosaver that waits debounce after the last change before saving.
func NewAutosaver(store SnapshotStore, debounce time.Duration, logger *zap.Logger) *Autosaver {
	return &Autosaver{
		store:    store,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[uuid.UUID]*pendingSave),
		failures: make(map[uuid.UUID]error),
		gens:     make(map[uuid.UUID]uint64),
		saving:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Schedule (re)starts the debounce timer for a draft.
func (a *Autosaver) Schedule(draftID uuid.UUID, snapshot SnapshotFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	if p, ok := a.pending[draftID]; ok {
		p.timer.Stop()
	}
	p := &pendingSave{snapshot: snapshot, gen: a.gens[draftID]}
	p.timer = time.AfterFunc(a.debounce, func() { a.fire(draftID, p) })
	a.pending[draftID] = p
}

// Flush saves a draft now, cancelling any pending timer.
func (a *Autosaver) Flush(ctx context.Context, draftID uuid.UUID, snapshot SnapshotFunc) error {
	a.mu.Lock()
	if p, ok := a.pending[draftID]; ok {
		p.timer.Stop()
		delete(a.pending, draftID)
	}
	gen := a.gens[draftID]
	a.mu.Unlock()
	return a.save(ctx, draftID, snapshot, gen)
}

// Cancel drops a pending save and any recorded failure.
func (a *Autosaver) Cancel(draftID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[draftID]; ok {
		p.timer.Stop()
		delete(a.pending, draftID)
	}
	delete(a.failures, draftID)
}

// Discard drops a pending save, waits for a save already in flight, and then runs remove.
// Saves that fired before Discard but had not started writing are skipped.
func (a *Autosaver) Discard(draftID uuid.UUID, remove func() error) error {
	a.mu.Lock()
	if p, ok := a.pending[draftID]; ok {
		p.timer.Stop()
		delete(a.pending, draftID)
	}
	delete(a.failures, draftID)
	a.gens[draftID]++
	lock := a.saveLock(draftID)
	a.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return remove()
}

// LastError returns the error of the most recent failed save, or nil once a save succeeds.
func (a *Autosaver) LastError(draftID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failures[draftID]
}

// Pending reports whether a save is scheduled for the draft.
func (a *Autosaver) Pending(draftID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[draftID]
	return ok
}

// Stop cancels every pending save. Scheduling after Stop is a no-op.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	for id, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, id)
	}
}

func (a *Autosaver) fire(draftID uuid.UUID, p *pendingSave) {
	a.mu.Lock()
	if a.pending[draftID] != p {
		// Superseded by a later Schedule.
		a.mu.Unlock()
		return
	}
	delete(a.pending, draftID)
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	_ = a.save(ctx, draftID, p.snapshot, p.gen)
}

// saveLock must be called with a.mu held.
func (a *Autosaver) saveLock(draftID uuid.UUID) *sync.Mutex {
	l, ok := a.saving[draftID]
	if !ok {
		l = &sync.Mutex{}
		a.saving[draftID] = l
	}
	return l
}

func (a *Autosaver) save(ctx context.Context, draftID uuid.UUID, snapshot SnapshotFunc, gen uint64) error {
	a.mu.Lock()
	lock := a.saveLock(draftID)
	a.mu.Unlock()
	lock.Lock()
	defer lock.Unlock()

	a.mu.Lock()
	stale := a.gens[draftID] != gen
	a.mu.Unlock()
	if stale {
		return nil
	}

	data, err := snapshot()
	if errors.Is(err, errDraftClosed) {
		return nil
	}
	if err == nil {
		policy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(autosaveRetryDelay), autosaveMaxRetries),
			ctx,
		)
		err = backoff.Retry(func() error {
			return a.store.Save(ctx, draftID, data)
		}, policy)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.failures[draftID] = err
		a.logger.Error("draft autosave failed",
			zap.String("draft_id", draftID.String()),
			zap.Error(err),
		)
		return err
	}
	delete(a.failures, draftID)
	a.logger.Debug("draft autosaved", zap.String("draft_id", draftID.String()), zap.Int("bytes", len(data)))
	return nil
}
