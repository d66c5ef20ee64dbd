package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/internal/storage"
	"github.com/wolfman30/leadform/pkg/logging"
)

// ErrCorruptData is returned when the stored value is not a JSON array of
// records. Appending refuses to overwrite it.
var ErrCorruptData = errors.New("leads: stored value is not a record list")

// Store persists captured leads as one JSON array under a single key.
type Store struct {
	backend storage.Backend
	key     string
	logger  *logging.Logger
	metrics *metrics.FormMetrics

	// mu serializes read-modify-write within this process only. Backends
	// that do not implement storage.Updater (memory, file, redis, s3,
	// dynamodb) assume a single replica: two replicas appending at once can
	// lose a lead. Postgres locks the row instead.
	mu sync.Mutex
}

// NewStore creates a store writing to key on backend.
func NewStore(backend storage.Backend, key string, logger *logging.Logger, m *metrics.FormMetrics) *Store {
	if backend == nil {
		panic("leads: storage backend required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{backend: backend, key: key, logger: logger, metrics: m}
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Store appends rec. Failures are logged and never surface to the caller.
func (s *Store) Store(ctx context.Context, rec Record) {
	if err := s.Append(ctx, rec); err != nil {
		s.logger.Error("error storing lead", "error", err, "storage_key", s.key)
	}
}

// Append reads the current list, appends rec and writes the list back. On a
// storage.Updater backend the whole cycle runs inside the backend's lock.
func (s *Store) Append(ctx context.Context, rec Record) error {
	var err error
	if u, ok := s.backend.(storage.Updater); ok {
		err = s.appendAtomic(ctx, u, rec)
	} else {
		err = s.appendLocked(ctx, rec)
	}
	s.metrics.ObserveStore(err == nil)
	return err
}

func (s *Store) appendLocked(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	data, err := encodeRecords(append(records, rec))
	if err != nil {
		return err
	}
	if err := s.backend.SetItem(ctx, s.key, data); err != nil {
		return fmt.Errorf("leads: write: %w", err)
	}
	return nil
}

func (s *Store) appendAtomic(ctx context.Context, u storage.Updater, rec Record) error {
	err := u.Update(ctx, s.key, func(current string, _ bool) (string, error) {
		records, err := decodeRecords(current)
		if err != nil {
			return "", err
		}
		return encodeRecords(append(records, rec))
	})
	if err != nil && !errors.Is(err, ErrCorruptData) {
		return fmt.Errorf("leads: write: %w", err)
	}
	return err
}

// LoadAll returns every stored record in submission order. Read or decode
// failures are logged and yield an empty list.
func (s *Store) LoadAll(ctx context.Context) []Record {
	records, err := s.read(ctx)
	if err != nil {
		s.logger.Error("error loading leads", "error", err, "storage_key", s.key)
		return []Record{}
	}
	return records
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) int {
	return len(s.LoadAll(ctx))
}

// LogCount reports the stored total, as done once at startup.
func (s *Store) LogCount(ctx context.Context) int {
	n := s.Count(ctx)
	s.logger.Info("total leads collected", "count", n, "storage_key", s.key)
	return n
}

func (s *Store) read(ctx context.Context) ([]Record, error) {
	raw, err := s.backend.GetItem(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("leads: read: %w", err)
	}
	return decodeRecords(raw)
}

func decodeRecords(raw string) ([]Record, error) {
	if raw == "" {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func encodeRecords(records []Record) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("leads: encode: %w", err)
	}
	return string(data), nil
}
