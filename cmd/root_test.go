package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/boozedog/devserve/internal/config"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestRootArgs(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"8080"}, false},
		{[]string{"8080", "9090"}, true},
	}

	for _, tt := range tests {
		err := rootCmd.Args(rootCmd, tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("Args(%v) err = %v, wantErr %v", tt.args, err, tt.wantErr)
		}
	}
}

func TestLoadConfigDefaultPort(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(dir, nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port() != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port())
	}
	if cfg.Root != dir {
		t.Errorf("Root = %q, want %q", cfg.Root, dir)
	}
}

func TestLoadConfigPortArg(t *testing.T) {
	cfg, err := loadConfig(t.TempDir(), []string{"3000"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port() != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port())
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	for _, arg := range []string{"http", "0", "99999", ""} {
		_, err := loadConfig(t.TempDir(), []string{arg})
		if !errors.Is(err, config.ErrInvalidPort) {
			t.Errorf("loadConfig(%q) err = %v, want ErrInvalidPort", arg, err)
		}
	}
}

func TestServeStopsOnInterrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	port := freePort(t)
	cfg, err := loadConfig(dir, []string{fmt.Sprint(port)})
	if err != nil {
		t.Fatal(err)
	}

	out := &syncBuffer{}
	errs := make(chan error, 1)
	go func() { errs <- serve(cfg, out) }()

	url := fmt.Sprintf("http://localhost:%d/index.html", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became reachable: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err != nil {
			t.Fatalf("serve returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after interrupt")
	}

	if !strings.Contains(out.String(), "Server stopped by user") {
		t.Errorf("expected shutdown message, got:\n%s", out.String())
	}
}

func TestServeBindError(t *testing.T) {
	held, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer held.Close()

	cfg := &config.Config{Root: t.TempDir(), Server: config.ServerConfig{Port: held.Addr().(*net.TCPAddr).Port}}
	err = serve(cfg, &syncBuffer{})
	if err == nil || !strings.Contains(err.Error(), "already in use") {
		t.Fatalf("serve err = %v, want port in use", err)
	}
}

func TestStopOnDoneReleasesSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	go stopOnDone(ctx, func() { close(stopped) })

	select {
	case <-stopped:
		t.Fatal("stop called before the context was done")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop not called after the context was done")
	}
}
