package enhance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwizard-app/promptwizard/internal/config"
	"github.com/promptwizard-app/promptwizard/internal/quota"
	"github.com/promptwizard-app/promptwizard/internal/timeday"
)

func newTestHandler(t *testing.T, mode string, qcfg config.QuotaConfig, upstream *httptest.Server) (*Handler, *quota.MemoryStore) {
	t.Helper()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := timeday.NewClockAt("Asia/Manila", func() time.Time { return at })
	store := quota.NewMemoryStore()
	meter := quota.NewMeter(store, clock, qcfg.DailyFreeLimit)
	wallet := quota.NewWallet(store, clock, qcfg)
	gate := quota.NewGate(mode, meter, wallet)

	var client *Client
	if upstream != nil {
		client = testClient(upstream.URL)
	}
	return NewHandler(client, gate, meter, wallet), store
}

func doEnhance(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/enhance", strings.NewReader(body))
	req.RemoteAddr = "1.2.3.4:51234"
	rec := httptest.NewRecorder()
	h.Enhance(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestEnhance_FreeModeAuthorizedThenDenied(t *testing.T) {
	srv := upstreamStub(t, http.StatusOK, "improved")
	h, _ := newTestHandler(t, config.ModeFree, config.QuotaConfig{DailyFreeLimit: 3, MaxBalance: 100}, srv)

	for i, wantRemaining := range []float64{2, 1, 0} {
		rec := doEnhance(t, h, `{"prompt":"rough"}`)
		require.Equal(t, http.StatusOK, rec.Code, "call %d", i+1)

		data := decodeData(t, rec)
		assert.Equal(t, true, data["authorized"])
		assert.Equal(t, "improved", data["prompt"])
		usage := data["meter"].(map[string]any)["usage"].(map[string]any)
		assert.Equal(t, wantRemaining, usage["remaining"])
	}

	rec := doEnhance(t, h, `{"prompt":"rough"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, false, data["authorized"])
	assert.Equal(t, "daily_limit_reached", data["reason"])
}

func TestEnhance_PaidModeInsufficientCredits(t *testing.T) {
	srv := upstreamStub(t, http.StatusOK, "improved")
	h, _ := newTestHandler(t, config.ModePaid, config.QuotaConfig{InitialCredits: 5, MaxBalance: 10}, srv)

	for i := 0; i < 5; i++ {
		rec := doEnhance(t, h, `{"prompt":"rough"}`)
		require.Equal(t, http.StatusOK, rec.Code, "spend %d", i+1)
	}

	rec := doEnhance(t, h, `{"prompt":"rough"}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, false, data["authorized"])
	assert.Equal(t, "insufficient_credits", data["reason"])
	credits := data["meter"].(map[string]any)["credits"].(map[string]any)
	assert.Equal(t, float64(0), credits["balance"])
}

func TestEnhance_DisabledWithoutClient(t *testing.T) {
	h, _ := newTestHandler(t, config.ModeFree, config.QuotaConfig{DailyFreeLimit: 3, MaxBalance: 100}, nil)

	rec := doEnhance(t, h, `{"prompt":"rough"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnhance_EmptyPromptRejected(t *testing.T) {
	srv := upstreamStub(t, http.StatusOK, "improved")
	h, store := newTestHandler(t, config.ModeFree, config.QuotaConfig{DailyFreeLimit: 3, MaxBalance: 100}, srv)

	rec := doEnhance(t, h, `{"prompt":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Rejected input must not consume quota.
	count, err := store.Count(t.Context(), "1.2.3.4", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEnhance_UpstreamFailureAfterDebit(t *testing.T) {
	srv := upstreamStub(t, http.StatusInternalServerError, "")
	h, store := newTestHandler(t, config.ModeFree, config.QuotaConfig{DailyFreeLimit: 3, MaxBalance: 100}, srv)

	rec := doEnhance(t, h, `{"prompt":"rough"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The debit happened before the upstream call and is not rolled back.
	count, err := store.Count(t.Context(), "1.2.3.4", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUsageStatus_ReadOnly(t *testing.T) {
	h, _ := newTestHandler(t, config.ModeFree, config.QuotaConfig{DailyFreeLimit: 3, MaxBalance: 100}, nil)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/usage", nil)
		req.RemoteAddr = "1.2.3.4:51234"
		rec := httptest.NewRecorder()
		h.UsageStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeData(t, rec)
		assert.Equal(t, float64(0), data["count"])
		assert.Equal(t, float64(3), data["remaining"])
	}
}

func TestCreditsStatus_AppliesLazyGrantOnce(t *testing.T) {
	h, store := newTestHandler(t, config.ModePaid, config.QuotaConfig{DailyGrant: 5, MaxBalance: 100}, nil)

	_, err := store.GetOrCreate(t.Context(), "1.2.3.4", 10, "2024-02-29", "Asia/Manila")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/credits", nil)
		req.RemoteAddr = "1.2.3.4:51234"
		rec := httptest.NewRecorder()
		h.CreditsStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeData(t, rec)
		assert.Equal(t, float64(15), data["balance"], "read %d", i+1)
	}
}
