// Package syncengine keeps a local copy of a user's annotations and spots
// and reconciles it with a remote authority.
//
// Every mutation is applied to local state before its persist request is
// issued. The request runs in its own goroutine; when it fails the local
// change is rolled back and the error is recorded in the engine status.
// Requests for the same id are not serialized, so by default the last
// response to arrive wins. WithStaleResponseGuard drops responses that
// belong to a superseded mutation instead.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/labels"
	"github.com/spot-annotator/backend/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSubscriberExists = errors.New("subscriber already exists")
)

// State is a snapshot of the local collections. The slices are never
// modified after publication; treat them as read-only.
type State struct {
	Annotations []models.Annotation
	Spots       []models.Spot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRequestTimeout bounds every persist request. Zero means no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithStaleResponseGuard applies a response only when it belongs to the most
// recent mutation issued for that id.
func WithStaleResponseGuard() Option {
	return func(e *Engine) { e.guard = true }
}

type Engine struct {
	annotations AnnotationRemote
	spots       SpotRemote
	logger      *zap.Logger
	timeout     time.Duration
	guard       bool

	mu     sync.Mutex
	state  State
	err    error
	seq    uint64
	latest map[uuid.UUID]uint64

	subsMu   sync.Mutex
	subs     map[string]func(State)
	notifyMu sync.Mutex

	wg sync.WaitGroup
}

func New(annotations AnnotationRemote, spots SpotRemote, opts ...Option) *Engine {
	e := &Engine{
		annotations: annotations,
		spots:       spots,
		logger:      zap.NewNop(),
		latest:      make(map[uuid.UUID]uint64),
		subs:        make(map[string]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces local state with the remote collections. An unauthenticated
// caller ends up with empty collections.
func (e *Engine) Load(ctx context.Context) error {
	annotations, err := e.annotations.List(ctx)
	if err == nil {
		var spots []models.Spot
		spots, err = e.spots.List(ctx)
		if err == nil {
			e.mu.Lock()
			e.state = State{Annotations: annotations, Spots: spots}
			e.err = nil
			e.mu.Unlock()
			e.publish()
			e.logger.Info("Loaded collections",
				zap.Int("annotations", len(annotations)),
				zap.Int("spots", len(spots)))
			return nil
		}
	}

	e.mu.Lock()
	if errors.Is(err, models.ErrUnauthenticated) {
		e.state = State{}
	}
	e.err = fmt.Errorf("load: %w", err)
	e.mu.Unlock()
	e.publish()
	e.logger.Warn("Failed to load collections", zap.Error(err))
	return err
}

// State returns the current local collections.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Annotations() []models.Annotation {
	return e.State().Annotations
}

func (e *Engine) Spots() []models.Spot {
	return e.State().Spots
}

// Annotation returns the local annotation with the given id.
func (e *Engine) Annotation(id uuid.UUID) (models.Annotation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOf(e.state.Annotations, id, annotationID)
	if i < 0 {
		return nil, false
	}
	return e.state.Annotations[i], true
}

// Spot returns the local spot with the given id.
func (e *Engine) Spot(id uuid.UUID) (models.Spot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOf(e.state.Spots, id, spotID)
	if i < 0 {
		return models.Spot{}, false
	}
	return e.state.Spots[i], true
}

// Labels returns the labels of every local annotation of type t.
func (e *Engine) Labels(t models.AnnotationType) []string {
	return labels.Existing(e.Annotations(), t)
}

// Err returns the error of the most recent failed operation.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// ClearErr dismisses the recorded error.
func (e *Engine) ClearErr() {
	e.mu.Lock()
	e.err = nil
	e.mu.Unlock()
	e.publish()
}

// Wait blocks until every in-flight request has resolved.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Subscribe registers fn under id to receive the state after every local change.
func (e *Engine) Subscribe(id string, fn func(State)) error {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	if _, ok := e.subs[id]; ok {
		return fmt.Errorf("%w: %s", ErrSubscriberExists, id)
	}
	e.subs[id] = fn
	return nil
}

func (e *Engine) Unsubscribe(id string) {
	e.subsMu.Lock()
	delete(e.subs, id)
	e.subsMu.Unlock()
}

// publish delivers the latest state to subscribers. Deliveries are
// serialized so that the last one observed is always current.
func (e *Engine) publish() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	state := e.State()
	e.subsMu.Lock()
	fns := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subsMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// begin records a new mutation of id. Must hold e.mu.
func (e *Engine) begin(id uuid.UUID) uint64 {
	e.seq++
	e.latest[id] = e.seq
	return e.seq
}

// settle reports whether the response for mutation seq of id may be applied.
// Must hold e.mu.
func (e *Engine) settle(id uuid.UUID, seq uint64) bool {
	current := e.latest[id] == seq
	if current {
		delete(e.latest, id)
	}
	return current || !e.guard
}

// fail records err after a rollback. Must hold e.mu.
func (e *Engine) fail(op string, err error) {
	if errors.Is(err, models.ErrUnauthenticated) {
		e.state = State{}
	}
	e.err = fmt.Errorf("%s: %w", op, err)
}

// run issues call in the background and resolves the returned Op with its error.
func (e *Engine) run(name string, id uuid.UUID, call func(ctx context.Context) error) *Op {
	op := newOp()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx := context.Background()
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}

		err := call(ctx)
		if err != nil {
			e.logger.Warn("Rolled back "+name, zap.String("id", id.String()), zap.Error(err))
		} else {
			e.logger.Debug("Confirmed "+name, zap.String("id", id.String()))
		}
		e.publish()
		op.finish(err)
	}()
	return op
}

// attached returns a with its spot reference cleared when that spot is no
// longer held locally. Must hold e.mu.
func (e *Engine) attached(a models.Annotation) models.Annotation {
	ref := a.Meta().SpotID
	if ref == nil || indexOf(e.state.Spots, *ref, spotID) >= 0 {
		return a
	}
	return models.WithSpot(a, nil)
}

func annotationID(a models.Annotation) uuid.UUID { return a.Meta().ID }
func spotID(s models.Spot) uuid.UUID             { return s.ID }

func indexOf[T any](items []T, id uuid.UUID, key func(T) uuid.UUID) int {
	return slices.IndexFunc(items, func(v T) bool { return key(v) == id })
}

// replace returns a copy of items with the entry matching id swapped for v.
func replace[T any](items []T, v T, key func(T) uuid.UUID) []T {
	i := indexOf(items, key(v), key)
	if i < 0 {
		return items
	}
	out := slices.Clone(items)
	out[i] = v
	return out
}

// remove returns a copy of items without the entry matching id.
func remove[T any](items []T, id uuid.UUID, key func(T) uuid.UUID) []T {
	i := indexOf(items, id, key)
	if i < 0 {
		return items
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// restore returns a copy of items with v inserted at position i, or at the
// end when items has shrunk since. Items already holding v's id are returned
// unchanged.
func restore[T any](items []T, i int, v T, key func(T) uuid.UUID) []T {
	if indexOf(items, key(v), key) >= 0 {
		return items
	}
	i = min(i, len(items))
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, v)
	return append(out, items[i:]...)
}

func appendCopy[T any](items []T, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, v)
}
