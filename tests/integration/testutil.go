//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/promptwizard-app/promptwizard/internal/api"
	"github.com/promptwizard-app/promptwizard/internal/config"
	"github.com/promptwizard-app/promptwizard/internal/database"
	"github.com/promptwizard-app/promptwizard/internal/enhance"
	"github.com/promptwizard-app/promptwizard/internal/prompts"
	"github.com/promptwizard-app/promptwizard/internal/quota"
	"github.com/promptwizard-app/promptwizard/internal/timeday"
	"github.com/promptwizard-app/promptwizard/internal/web"
)

type TestEnv struct {
	Pool  *pgxpool.Pool
	Clock *timeday.Clock
}

var testEnv *TestEnv

// TestMain owns the shared PostgreSQL container so it outlives every test in
// the package; per-test t.Cleanup would tear it down after the first test
// that touched it.
func TestMain(m *testing.M) {
	teardown, err := setupEnv(context.Background())
	if err != nil {
		log.Fatalf("setting up integration environment: %v", err)
	}
	code := m.Run()
	teardown()
	os.Exit(code)
}

// setupEnv starts PostgreSQL, applies the schema, and pins the clock to
// mid-day so tests never straddle a day boundary.
func setupEnv(ctx context.Context) (func(), error) {
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "promptwizard_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	teardownContainer := func() { pgContainer.Terminate(ctx) }

	pgHost, err := pgContainer.Host(ctx)
	if err != nil {
		teardownContainer()
		return nil, fmt.Errorf("resolving container host: %w", err)
	}
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		teardownContainer()
		return nil, fmt.Errorf("resolving container port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/promptwizard_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		teardownContainer()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := database.RunMigrations(dsn); err != nil {
		pool.Close()
		teardownContainer()
		return nil, err
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := timeday.NewClockAt("Asia/Manila", func() time.Time { return at })

	testEnv = &TestEnv{Pool: pool, Clock: clock}
	return func() {
		pool.Close()
		teardownContainer()
	}, nil
}

// SetupTestEnv returns the package-wide environment created in TestMain.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv == nil {
		t.Fatal("integration environment not initialized")
	}
	return testEnv
}

// ResetTables truncates all quota and history state between tests.
func ResetTables(t *testing.T, env *TestEnv) {
	t.Helper()
	_, err := env.Pool.Exec(context.Background(),
		`TRUNCATE usage_counts, credit_wallets, prompt_history`)
	if err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}

// NewTestServer wires a full router over the shared database with the given
// quota policy. upstreamURL points the enhancement client at a stub; empty
// disables enhancement.
func NewTestServer(t *testing.T, env *TestEnv, quotaCfg config.QuotaConfig, upstreamURL string) *httptest.Server {
	t.Helper()

	usageStore := quota.NewUsageRepository(env.Pool)
	walletStore := quota.NewWalletRepository(env.Pool)

	meter := quota.NewMeter(usageStore, env.Clock, quotaCfg.DailyFreeLimit)
	wallet := quota.NewWallet(walletStore, env.Clock, quotaCfg)
	gate := quota.NewGate(quotaCfg.Mode, meter, wallet)

	var client *enhance.Client
	if upstreamURL != "" {
		client = enhance.NewClient(config.OpenAIConfig{
			Enabled: true,
			APIKey:  "test-key",
			Model:   "gpt-4o-mini",
			BaseURL: upstreamURL,
			Timeout: 5 * time.Second,
		})
	}
	enhanceHandler := enhance.NewHandler(client, gate, meter, wallet)

	promptRepo := prompts.NewRepository(env.Pool)
	promptHandler := prompts.NewHandler(promptRepo)

	appCfg := config.AppConfig{Name: "Prompt Wizard", Timezone: "Asia/Manila", ShowUsage: true}
	webHandler, err := web.NewHandler(appCfg, quotaCfg.Mode == config.ModePaid, upstreamURL != "")
	if err != nil {
		t.Fatalf("creating web handler: %v", err)
	}

	router := api.NewRouter(env.Pool, nil, api.RouterConfig{
		Mode:           quotaCfg.Mode,
		EnhanceEnabled: upstreamURL != "",
	}, api.HandlerSet{
		Index:  webHandler.Index,
		Static: webHandler.Static(),

		BuildPrompt: promptHandler.Build,
		SavePrompt:  promptHandler.Save,
		ListHistory: promptHandler.History,

		Enhance:       enhanceHandler.Enhance,
		UsageStatus:   enhanceHandler.UsageStatus,
		CreditsStatus: enhanceHandler.CreditsStatus,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// NewUpstreamStub returns a minimal chat-completions endpoint that echoes a
// refined version of the submitted prompt.
func NewUpstreamStub(t *testing.T) *httptest.Server {
	t.Helper()
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "refined prompt"}},
			},
		})
	}))
	t.Cleanup(stub.Close)
	return stub
}

func DoRequest(t *testing.T, server *httptest.Server, method, path string, body any, forwardedFor string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("doing request: %v", err)
	}
	return resp
}

func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	return result
}
