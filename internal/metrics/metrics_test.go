package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/storage"
)

func TestObserveLedgerCountsMutations(t *testing.T) {
	m := New()
	store, err := ledger.Open(context.Background(), storage.NewMemoryKV(), ledger.Options{Observer: m})
	require.NoError(t, err)
	cancel := m.ObserveLedger(store)

	require.NoError(t, store.SetTheme(context.Background(), core.Dark))
	require.NoError(t, store.AddSettlement(context.Background(), core.Settlement{
		ID: "s1", Month: core.NewMonth(2024, 3), From: core.UserB, To: core.UserA,
		Amount: core.Cents(5000), Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues(storage.KeyTheme, ledger.OpSet, "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements))

	cancel()
	require.NoError(t, store.SetTheme(context.Background(), core.Light))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues(storage.KeyTheme, ledger.OpSet, "true")))
}

func TestPersistFailed(t *testing.T) {
	m := New()
	m.PersistFailed(storage.KeyBudgets)
	m.PersistFailed(storage.KeyBudgets)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.persistFailures.WithLabelValues(storage.KeyBudgets)))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordRequest(http.MethodGet, "/api/transactions", http.StatusOK, 15*time.Millisecond)
	m.IncrRateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "conti_http_request_duration_seconds_count")
	assert.Contains(t, body, `route="/api/transactions"`)
	assert.Contains(t, body, "conti_http_rate_limited_total 1")
}

func TestNewTwiceDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
