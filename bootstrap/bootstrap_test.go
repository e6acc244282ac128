package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/gymdesk/bootstrap"
	"github.com/prometheus/client_golang/prometheus"
)

func newApp(t *testing.T, configPath string) *bootstrap.App {
	t.Helper()
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: configPath,
		Version:    "1.2.3",
		Registry:   prometheus.NewRegistry(),
		LogOutput:  io.Discard,
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func envOnly(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GYMDESK_DATABASE_DSN", filepath.Join(dir, "gym.db"))
	t.Setenv("GYMDESK_AUTH_BCRYPT_COST", "4")
	return filepath.Join(dir, "missing.yaml")
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("GYMDESK_SERVER_PORT", "9090")
	a := newApp(t, envOnly(t))

	if a.DB == nil || a.HTTPServer == nil || a.Metrics == nil {
		t.Fatal("components should be initialized")
	}
	if a.HTTPServer.Addr != "0.0.0.0:9090" {
		t.Errorf("Addr = %s, want 0.0.0.0:9090", a.HTTPServer.Addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, table := range []string{"members", "payments", "staff_users", "staff_sessions", "login_attempts"} {
		var count int
		if err := a.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("query %s: %v", table, err)
		}
	}
}

func TestNew_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gymdesk.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 8181
database:
  dsn: ` + filepath.Join(dir, "file.db") + `
auth:
  bcrypt_cost: 4
metrics:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newApp(t, path)

	if a.HTTPServer.Addr != "127.0.0.1:8181" {
		t.Errorf("Addr = %s, want 127.0.0.1:8181", a.HTTPServer.Addr)
	}
	if a.Metrics != nil {
		t.Error("Metrics should be nil when disabled")
	}

	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404", rec.Code)
	}
}

func TestNew_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gymdesk.yaml")
	if err := os.WriteFile(path, []byte("billing:\n  timezone: Nowhere/Land\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := bootstrap.New(bootstrap.Options{
		ConfigPath: path,
		Registry:   prometheus.NewRegistry(),
		LogOutput:  io.Discard,
	})
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestApp_ServesAPI(t *testing.T) {
	a := newApp(t, envOnly(t))
	h := a.HTTPServer.Handler

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/version", nil))
	var version struct {
		Version string `json:"version"`
	}
	json.NewDecoder(rec.Body).Decode(&version)
	if version.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", version.Version)
	}

	result, err := a.Staff.BootstrapAdmin(context.Background())
	if err != nil || !result.Created {
		t.Fatalf("bootstrap admin: %+v, %v", result, err)
	}

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": result.Password})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d (%s)", rec.Code, rec.Body.String())
	}
	var login struct {
		Token             string `json:"token"`
		MustResetPassword bool   `json:"must_reset_password"`
	}
	json.NewDecoder(rec.Body).Decode(&login)
	if !login.MustResetPassword {
		t.Error("initial admin should be asked to reset the password")
	}

	req := httptest.NewRequest("GET", "/members", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("members before reset status = %d, want 403", rec.Code)
	}
}

func TestApp_Shutdown(t *testing.T) {
	a := newApp(t, envOnly(t))

	if err := a.Shutdown(); err != nil {
		t.Errorf("shutdown error: %v", err)
	}
	if a.DB != nil {
		t.Error("DB should be released after shutdown")
	}
	if err := a.Close(); err != nil {
		t.Errorf("second close error: %v", err)
	}
}

func TestApp_Run(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	t.Setenv("GYMDESK_SERVER_HOST", "127.0.0.1")
	t.Setenv("GYMDESK_SERVER_PORT", fmt.Sprint(port))
	a := newApp(t, envOnly(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("health status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
