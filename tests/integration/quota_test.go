//go:build integration

package integration

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwizard-app/promptwizard/internal/config"
)

func enhanceBody() map[string]string {
	return map[string]string{"prompt": "Write a product description for running shoes"}
}

func TestFreeModeDailyLimit(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTables(t, env)

	stub := NewUpstreamStub(t)
	server := NewTestServer(t, env, config.QuotaConfig{
		Mode:           config.ModeFree,
		DailyFreeLimit: 3,
	}, stub.URL)

	for i := 1; i <= 3; i++ {
		resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.7")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d should be authorized", i)

		result := ParseResponse(t, resp)
		data := result["data"].(map[string]any)
		assert.Equal(t, true, data["authorized"])
		assert.Equal(t, "refined prompt", data["prompt"])

		usage := data["meter"].(map[string]any)["usage"].(map[string]any)
		assert.Equal(t, float64(3-i), usage["remaining"])
	}

	t.Run("fourth request denied", func(t *testing.T) {
		resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.7")
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

		result := ParseResponse(t, resp)
		data := result["data"].(map[string]any)
		assert.Equal(t, false, data["authorized"])
		assert.Equal(t, "daily_limit_reached", data["reason"])
	})

	t.Run("other identity unaffected", func(t *testing.T) {
		resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "198.51.100.9")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("usage endpoint does not consume", func(t *testing.T) {
		for range 3 {
			resp := DoRequest(t, server, "GET", "/api/v1/usage", nil, "198.51.100.9")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			result := ParseResponse(t, resp)
			usage := result["data"].(map[string]any)
			assert.Equal(t, float64(1), usage["count"])
			assert.Equal(t, float64(2), usage["remaining"])
		}
	})
}

func TestFreeModeConcurrentRequestsNeverExceedLimit(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTables(t, env)

	stub := NewUpstreamStub(t)
	server := NewTestServer(t, env, config.QuotaConfig{
		Mode:           config.ModeFree,
		DailyFreeLimit: 5,
	}, stub.URL)

	const attempts = 20
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.50")
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok, "exactly the daily limit should succeed")

	var count int
	err := env.Pool.QueryRow(t.Context(),
		`SELECT count FROM usage_counts WHERE identity = $1`, "203.0.113.50").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestPaidModeWallet(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTables(t, env)

	stub := NewUpstreamStub(t)
	server := NewTestServer(t, env, config.QuotaConfig{
		Mode:           config.ModePaid,
		InitialCredits: 2,
		DailyGrant:     5,
		MaxBalance:     100,
	}, stub.URL)

	t.Run("spends down to zero", func(t *testing.T) {
		for i := 1; i <= 2; i++ {
			resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.80")
			require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)

			result := ParseResponse(t, resp)
			credits := result["data"].(map[string]any)["meter"].(map[string]any)["credits"].(map[string]any)
			assert.Equal(t, float64(2-i), credits["balance"])
		}
	})

	t.Run("denied when empty", func(t *testing.T) {
		resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.80")
		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

		result := ParseResponse(t, resp)
		data := result["data"].(map[string]any)
		assert.Equal(t, "insufficient_credits", data["reason"])
	})

	t.Run("grant applied once for an older wallet", func(t *testing.T) {
		_, err := env.Pool.Exec(t.Context(),
			`UPDATE credit_wallets SET last_grant_day = '2024-02-28' WHERE identity = $1`, "203.0.113.80")
		require.NoError(t, err)

		for range 3 {
			resp := DoRequest(t, server, "GET", "/api/v1/credits", nil, "203.0.113.80")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			result := ParseResponse(t, resp)
			credits := result["data"].(map[string]any)
			assert.Equal(t, float64(10), credits["balance"], "two elapsed days at 5 credits each")
		}
	})
}

func TestPaidModeConcurrentDebitSingleWinner(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTables(t, env)

	stub := NewUpstreamStub(t)
	server := NewTestServer(t, env, config.QuotaConfig{
		Mode:           config.ModePaid,
		InitialCredits: 1,
		MaxBalance:     100,
	}, stub.URL)

	const attempts = 10
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.90")
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok, "a single credit funds exactly one request")

	var balance int
	err := env.Pool.QueryRow(t.Context(),
		`SELECT balance FROM credit_wallets WHERE identity = $1`, "203.0.113.90").Scan(&balance)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestEnhanceDisabled(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTables(t, env)

	server := NewTestServer(t, env, config.QuotaConfig{
		Mode:           config.ModeFree,
		DailyFreeLimit: 3,
	}, "")

	resp := DoRequest(t, server, "POST", "/api/v1/enhance", enhanceBody(), "203.0.113.99")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
