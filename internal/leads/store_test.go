package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/internal/storage"
	"github.com/wolfman30/leadform/pkg/logging"
)

type failingBackend struct {
	getErr error
	setErr error
	value  string
}

func (f *failingBackend) GetItem(context.Context, string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if f.value == "" {
		return "", storage.ErrNotFound
	}
	return f.value, nil
}

func (f *failingBackend) SetItem(_ context.Context, _ string, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.value = value
	return nil
}

func sampleRecord(i int) Record {
	return NewRecord(map[string]string{
		FieldFirstName: fmt.Sprintf("First%d", i),
		FieldLastName:  fmt.Sprintf("Last%d", i),
		FieldEmail:     fmt.Sprintf("user%d@example.com", i),
		FieldCompany:   "Acme",
	}, time.Date(2024, 1, 2, 3, 4, 5, i*int(time.Millisecond), time.UTC))
}

func TestStore_RoundTripPreservesOrder(t *testing.T) {
	backend := storage.NewMemoryBackend()
	store := NewStore(backend, "financial-prompts-leads", logging.Default(), nil)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		store.Store(ctx, sampleRecord(i))
	}

	got := store.LoadAll(ctx)
	require.Len(t, got, n)
	for i, rec := range got {
		assert.Equal(t, sampleRecord(i), rec)
	}
	assert.Equal(t, n, store.Count(ctx))
}

func TestStore_PersistsJSONArrayShape(t *testing.T) {
	backend := storage.NewMemoryBackend()
	store := NewStore(backend, "k", nil, nil)
	store.Store(context.Background(), sampleRecord(1))

	raw, err := backend.GetItem(context.Background(), "k")
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "First1", decoded[0]["firstName"])
	assert.Equal(t, "", decoded[0]["role"])
	assert.Equal(t, "2024-01-02T03:04:05.001Z", decoded[0]["timestamp"])
}

func TestStore_LoadAllDefaultsToEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, NewStore(storage.NewMemoryBackend(), "k", nil, nil).LoadAll(ctx))

	for _, raw := range []string{"{not json", `{"a":1}`, `null`} {
		backend := storage.NewMemoryBackend()
		require.NoError(t, backend.SetItem(ctx, "k", raw))
		got := NewStore(backend, "k", nil, nil).LoadAll(ctx)
		assert.NotNil(t, got)
		assert.Empty(t, got, "raw %q", raw)
	}
}

func TestStore_CorruptDataIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.SetItem(ctx, "k", "{corrupt"))
	store := NewStore(backend, "k", nil, nil)

	err := store.Append(ctx, sampleRecord(1))
	require.ErrorIs(t, err, ErrCorruptData)

	raw, _ := backend.GetItem(ctx, "k")
	assert.Equal(t, "{corrupt", raw)
}

func TestStore_FailuresAreSwallowedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.NewFormMetrics(reg)
	store := NewStore(&failingBackend{setErr: errors.New("quota exceeded")}, "k", logging.NewWithWriter("info", &buf), m)

	assert.NotPanics(t, func() { store.Store(context.Background(), sampleRecord(1)) })
	assert.Contains(t, buf.String(), "error storing lead")
	assert.Contains(t, buf.String(), "quota exceeded")
}

func TestStore_ReadFailureSurfacesFromAppend(t *testing.T) {
	store := NewStore(&failingBackend{getErr: errors.New("io timeout")}, "k", nil, nil)
	err := store.Append(context.Background(), sampleRecord(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "io timeout")
	assert.Empty(t, store.LoadAll(context.Background()))
}

func TestStore_LogCount(t *testing.T) {
	var buf bytes.Buffer
	store := NewStore(storage.NewMemoryBackend(), "k", logging.NewWithWriter("info", &buf), nil)
	store.Store(context.Background(), sampleRecord(1))
	store.Store(context.Background(), sampleRecord(2))

	assert.Equal(t, 2, store.LogCount(context.Background()))
	assert.Contains(t, buf.String(), "total leads collected")
}

func TestRecord_Time(t *testing.T) {
	rec := sampleRecord(7)
	ts, err := rec.Time()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Millisecond, time.Duration(ts.Nanosecond()))
}
