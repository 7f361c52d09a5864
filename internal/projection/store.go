package projection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
)

// StorageKey is the key visibility flags are stored under.
const StorageKey = "annotation-visibility"

// ErrMissing is returned by a KV that has no value for a key.
var ErrMissing = errors.New("key not found")

// KV is the key-value store visibility flags persist to.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// VisibilityStore holds the current flags and writes every change through
// to a KV. Storage failures are logged and otherwise ignored.
type VisibilityStore struct {
	kv     KV
	key    string
	logger *zap.Logger

	mu    sync.RWMutex
	flags Flags
}

// NewVisibilityStore creates a store that starts from DefaultFlags. A
// non-empty scope namespaces the storage key, e.g. per user on a shared KV.
func NewVisibilityStore(kv KV, scope string, logger *zap.Logger) *VisibilityStore {
	key := StorageKey
	if scope != "" {
		key += ":" + scope
	}
	return &VisibilityStore{kv: kv, key: key, logger: logger, flags: DefaultFlags()}
}

// Load reads stored flags and merges them over the defaults.
func (s *VisibilityStore) Load(ctx context.Context) Flags {
	flags := DefaultFlags()

	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrMissing):
	case err != nil:
		s.logger.Warn("Failed to read visibility flags", zap.String("key", s.key), zap.Error(err))
	default:
		var stored Flags
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.logger.Warn("Ignoring malformed visibility flags", zap.String("key", s.key), zap.Error(err))
		} else {
			flags = Merge(stored)
		}
	}

	s.mu.Lock()
	s.flags = flags
	s.mu.Unlock()
	return flags.clone()
}

// Flags returns a copy of the current flags.
func (s *VisibilityStore) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags.clone()
}

// Toggle flips the visibility of t and returns the new flags.
func (s *VisibilityStore) Toggle(ctx context.Context, t models.AnnotationType) Flags {
	s.mu.Lock()
	next := s.flags.clone()
	next[t] = !s.flags.Visible(t)
	s.flags = next
	s.mu.Unlock()

	s.save(ctx, next)
	return next.clone()
}

// Set replaces the flags for the types present in flags.
func (s *VisibilityStore) Set(ctx context.Context, flags Flags) Flags {
	s.mu.Lock()
	next := s.flags.clone()
	for t, v := range flags {
		if t.Valid() {
			next[t] = v
		}
	}
	s.flags = next
	s.mu.Unlock()

	s.save(ctx, next)
	return next.clone()
}

func (s *VisibilityStore) save(ctx context.Context, flags Flags) {
	raw, err := json.Marshal(flags)
	if err != nil {
		s.logger.Warn("Failed to encode visibility flags", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		s.logger.Warn("Failed to store visibility flags", zap.String("key", s.key), zap.Error(err))
	}
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrMissing
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}
