package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/studytrack/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "studytrack",
		JWTSecret:        "test-secret-must-be-at-least-32-bytes!!",
		JWTIssuer:        "studytrack-test",
		JWTTTL:           time.Hour,
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		LoginMaxAttempts: 10,
		LoginWindow:      time.Minute,
		ResetTokenTTL:    time.Hour,
		BaseURL:          "http://localhost:3000",
		AuditLog:         "db",
	}
}

func TestValidateConfig(t *testing.T) {
	prod := &config.CoreConfig{Env: "prod"}
	dev := &config.CoreConfig{Env: "dev"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", prod, func(*AppConfig) {}, ""},
		{"bad mongo uri", prod, func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "MongoDB URI"},
		{"missing database", prod, func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"short secret in prod", prod, func(c *AppConfig) { c.JWTSecret = "short" }, "jwt_secret"},
		{"short secret in dev", dev, func(c *AppConfig) { c.JWTSecret = "short" }, ""},
		{"zero ttl", prod, func(c *AppConfig) { c.JWTTTL = 0 }, "jwt_ttl"},
		{"redis url", prod, func(c *AppConfig) { c.RedisURL = "redis://localhost:6379/0" }, ""},
		{"bad redis url", prod, func(c *AppConfig) { c.RedisURL = "http://localhost" }, "redis_url"},
		{"zero rps", prod, func(c *AppConfig) { c.RateLimitRPS = 0 }, "rate_limit"},
		{"zero login attempts", prod, func(c *AppConfig) { c.LoginMaxAttempts = 0 }, "login_max_attempts"},
		{"zero reset ttl", prod, func(c *AppConfig) { c.ResetTokenTTL = 0 }, "reset_token_ttl"},
		{"negative cleanup interval", prod, func(c *AppConfig) { c.ResetCleanupInterval = -time.Second }, "reset_cleanup_interval"},
		{"bad audit mode", prod, func(c *AppConfig) { c.AuditLog = "everything" }, "audit_log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfig: unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateConfig: got %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ", nil},
		{"http://a.test", []string{"http://a.test"}},
		{"http://a.test, http://b.test ,", []string{"http://a.test", "http://b.test"}},
	}
	for _, tt := range tests {
		got := splitList(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("splitList(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartup_ConfiguresTimeouts(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	cfg := validConfig()
	cfg.TimeoutShort = 1 * time.Second
	cfg.TimeoutLong = 7 * time.Second
	if err := Startup(t.Context(), nil, cfg, DBDeps{}, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if got := timeouts.Short(); got != time.Second {
		t.Errorf("Short: got %v, want %v", got, time.Second)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium: got %v, want default %v", got, timeouts.DefaultMedium)
	}
	if got := timeouts.Long(); got != 7*time.Second {
		t.Errorf("Long: got %v, want %v", got, 7*time.Second)
	}
}

func TestStartupShutdown_ResetCleanupWorker(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := validConfig()
	cfg.ResetCleanupInterval = time.Hour
	deps := DBDeps{StudyTrackMongoDatabase: db}
	if err := Startup(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if resetCleanup == nil {
		t.Fatal("reset cleanup worker not started")
	}
	if err := Shutdown(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if resetCleanup != nil {
		t.Error("reset cleanup worker not cleared on shutdown")
	}
}

func TestShutdown_CancelsBackgroundContext(t *testing.T) {
	t.Cleanup(stopBackground)
	db := testutil.SetupTestDB(t)
	deps := DBDeps{StudyTrackMongoDatabase: db}

	if _, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}
	ctx := backgroundContext()
	if ctx.Err() != nil {
		t.Fatal("background context cancelled before Shutdown")
	}

	if err := Shutdown(t.Context(), nil, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("background context not cancelled by Shutdown")
	}
	if background.ctx != nil {
		t.Error("background context not reset after Shutdown")
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{StudyTrackMongoClient: db.Client(), StudyTrackMongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, nil, validConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema run %d failed: %v", i+1, err)
		}
	}
}

// TestBuildHandler drives a short session through the fully wired router.
func TestBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{StudyTrackMongoClient: db.Client(), StudyTrackMongoDatabase: db}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}
	t.Cleanup(stopBackground)

	do := func(method, target string, body any, token string) *testutil.ResponseRecorder {
		req := testutil.NewRequest(method, target, body)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/auth/register",
		map[string]any{"username": "ann", "email": "ann@example.com", "password": "correct-horse"}, "")
	rec.AssertStatus(t, http.StatusCreated)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	var sess struct {
		Token string `json:"token"`
	}
	rec.Envelope(t, &sess)
	if sess.Token == "" {
		t.Fatal("register returned no token")
	}

	do(http.MethodPost, "/api/communities", map[string]any{"name": "Go Fans", "description": "Gophers"}, "").
		AssertStatus(t, http.StatusUnauthorized)

	rec = do(http.MethodPost, "/api/communities", map[string]any{"name": "Go Fans", "description": "Gophers"}, sess.Token)
	rec.AssertStatus(t, http.StatusCreated)
	var c struct {
		ID string `json:"id"`
	}
	rec.Envelope(t, &c)

	do(http.MethodGet, "/api/communities/"+c.ID+"/stats", nil, "").AssertStatus(t, http.StatusOK)
	do(http.MethodGet, "/api/users/me/communities", nil, sess.Token).AssertStatus(t, http.StatusOK)
	do(http.MethodGet, "/api/tasks", nil, sess.Token).AssertStatus(t, http.StatusOK)

	rec = do(http.MethodGet, "/api/nothing-here", nil, "")
	rec.AssertStatus(t, http.StatusNotFound)
	if env := rec.Envelope(t, nil); env.Success || env.Error != "NOT_FOUND" {
		t.Errorf("unknown route envelope: got %+v", env)
	}
	do(http.MethodPut, "/api/communities/"+c.ID+"/stats", nil, "").AssertStatus(t, http.StatusMethodNotAllowed)

	rec = do(http.MethodGet, "/health", nil, "")
	rec.AssertStatus(t, http.StatusOK)
	var health map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil || health["status"] != "ok" {
		t.Errorf("health: got %s (%v)", rec.Body.String(), err)
	}

	mrec := httptest.NewRecorder()
	h.ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(mrec.Body.String(), `studytrack_membership_events_total{event="create"} 1`) {
		t.Error("metrics do not count the community create")
	}
}
