package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"omnitask/backend/internal/ai"
	"omnitask/backend/internal/config"
	"omnitask/backend/internal/handlers"
	"omnitask/backend/internal/middleware"
	"omnitask/backend/internal/storage"
	"omnitask/backend/internal/store"
)

func TestApplicationStartup(t *testing.T) {
	os.Setenv("ENVIRONMENT", "development")
	os.Setenv("REDIS_HOST", "localhost")
	defer func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("REDIS_HOST")
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg == nil {
		t.Fatal("Configuration should not be nil")
	}

	if cfg.Storage.Backend != "redis" {
		t.Errorf("Expected default backend redis, got %s", cfg.Storage.Backend)
	}
}

func TestBuildStorageSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		env     map[string]string
	}{
		{backend: "file", env: map[string]string{"DATA_DIR": dir}},
		{backend: "sqlite", env: map[string]string{"SQLITE_PATH": dir + "/tasks.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			os.Setenv("STORAGE_BACKEND", tt.backend)
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer func() {
				os.Unsetenv("STORAGE_BACKEND")
				for k := range tt.env {
					os.Unsetenv(k)
				}
			}()

			cfg, err := config.LoadConfig()
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}

			st, err := buildStorage(cfg)
			if err != nil {
				t.Fatalf("Failed to build %s storage: %v", tt.backend, err)
			}
			defer st.Close()

			if err := st.Health(context.Background()); err != nil {
				t.Errorf("Expected %s storage to be healthy, got %v", tt.backend, err)
			}
		})
	}
}

func TestBuildCoachDisabledWithoutKey(t *testing.T) {
	os.Setenv("AI_API_KEY", "")
	defer os.Unsetenv("AI_API_KEY")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	coach := buildCoach(cfg)
	if _, ok := coach.(ai.DisabledCoach); !ok {
		t.Errorf("Expected DisabledCoach without an API key, got %T", coach)
	}
}

func TestEndToEndTaskLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	host, port, _ := strings.Cut(mr.Addr(), ":")
	os.Setenv("REDIS_HOST", host)
	os.Setenv("REDIS_PORT", port)
	defer func() {
		os.Unsetenv("REDIS_HOST")
		os.Unsetenv("REDIS_PORT")
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	st, err := buildStorage(cfg)
	if err != nil {
		t.Fatalf("Failed to build storage: %v", err)
	}
	defer st.Close()

	taskStore := store.New(st)
	if err := taskStore.Hydrate(context.Background()); err != nil {
		t.Fatalf("Failed to hydrate store: %v", err)
	}

	r := gin.New()
	r.Use(middleware.RecoveryWithLog())
	handlers.RegisterRoutes(r,
		handlers.NewTaskHandler(taskStore),
		handlers.NewCoachHandler(taskStore, ai.DisabledCoach{}),
		nil)

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"title":"Integration check","priority":"high"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode created task: %v", err)
	}

	// The snapshot lands in redis after the mutation.
	if _, err := mr.Get(storage.SnapshotKey); err != nil {
		t.Errorf("Expected snapshot key in redis after create, got %v", err)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), created.ID) {
		t.Error("Expected listing to contain the created task")
	}
}
