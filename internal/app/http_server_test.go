package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

func startTestMetricsServer(t *testing.T, handler *healthcheck.Handler) (string, context.CancelFunc, *http.Server) {
	t.Helper()

	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	srv := startMetricsServer(ctx, fmt.Sprintf(":%d", port), log.WithField("test", t.Name()), handler)
	if srv == nil {
		cancel()
		t.Fatal("startMetricsServer should not return nil")
	}

	// Даём время на запуск
	time.Sleep(100 * time.Millisecond)
	return fmt.Sprintf("http://localhost:%d", port), cancel, srv
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return resp.StatusCode, body
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	handler := healthcheck.NewHandler(version.GetVersion())
	handler.RegisterChecker("storage", healthcheck.NewStorageChecker(StorageDriverMongo, StorageDriverMemory, nil))

	base, cancel, _ := startTestMetricsServer(t, handler)
	defer cancel()

	if code, body := get(t, base+"/metrics"); code != http.StatusOK || len(body) == 0 {
		t.Fatalf("/metrics: status=%d len=%d", code, len(body))
	}
	if code, body := get(t, base+"/livez"); code != http.StatusOK || string(body) != "ok" {
		t.Fatalf("/livez: status=%d body=%q", code, body)
	}

	// Работа из памяти вместо документного хранилища не снимает готовность.
	for _, path := range []string{"/healthz", "/readyz"} {
		code, body := get(t, base+path)
		if code != http.StatusOK {
			t.Fatalf("%s: expected 200 while degraded, got %d", path, code)
		}
		if path == "/readyz" {
			continue
		}
		var resp healthcheck.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if resp.Status != healthcheck.StatusDegraded {
			t.Fatalf("%s: expected degraded, got %s", path, resp.Status)
		}
		if resp.Checks["storage"].Message != "mongo unavailable, serving from memory" {
			t.Fatalf("unexpected storage message: %q", resp.Checks["storage"].Message)
		}
	}
}

func TestStartMetricsServer_ReadinessFailsOnUnreachableCache(t *testing.T) {
	handler := healthcheck.NewHandler(version.GetVersion())
	handler.RegisterChecker("storage", healthcheck.NewStorageChecker(StorageDriverMemory, StorageDriverMemory, nil))
	handler.RegisterChecker("view_cache", healthcheck.NewPingChecker("view_cache", func(context.Context) error {
		return errors.New("connection refused")
	}))

	base, cancel, _ := startTestMetricsServer(t, handler)
	defer cancel()

	if code, _ := get(t, base+"/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from /readyz, got %d", code)
	}
	if code, _ := get(t, base+"/livez"); code != http.StatusOK {
		t.Fatalf("liveness must not depend on checks, got %d", code)
	}
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	base, cancel, _ := startTestMetricsServer(t, healthcheck.NewHandler(version.GetVersion()))

	if code, _ := get(t, base+"/livez"); code != http.StatusOK {
		t.Fatalf("server should be running, got %d", code)
	}

	cancel()
	time.Sleep(200 * time.Millisecond)

	if _, err := http.Get(base + "/livez"); err == nil {
		t.Error("server should be stopped after context cancellation")
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	// Не должно паниковать
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}

func TestShutdownHTTP_WithServer(t *testing.T) {
	port := findFreePort(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: time.Second}
	go func() {
		_ = srv.ListenAndServe()
	}()
	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://localhost:%d/ping", port)
	if code, _ := get(t, url); code != http.StatusOK {
		t.Fatalf("server should be running, got %d", code)
	}

	shutdownHTTP(srv, log.WithField("test", "http-shutdown"))

	time.Sleep(100 * time.Millisecond)
	if _, err := http.Get(url); err == nil {
		t.Error("server should be stopped after shutdownHTTP")
	}
}

func TestStartMetricsServer_BusyAddr(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := fmt.Sprintf(":%d", listener.Addr().(*net.TCPAddr).Port)
	// Сервер создаётся, ошибка прослушивания только логируется.
	if srv := startMetricsServer(ctx, addr, log.WithField("test", "http-busy"), healthcheck.NewHandler("test")); srv == nil {
		t.Error("startMetricsServer should not return nil even with busy addr")
	}
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}
