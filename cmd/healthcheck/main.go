// Command healthcheck probes a running `pendingchecks serve` and exits 0 when
// it reports healthy. It is meant for container HEALTHCHECK instructions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	httphandler "github.com/ericfisherdev/pendingchecks/internal/adapter/driving/http"
	"github.com/ericfisherdev/pendingchecks/internal/config"
)

const timeout = 2 * time.Second

func main() {
	os.Exit(check())
}

func check() int {
	addr := config.Default().ListenAddr
	if cfg, err := config.Load(); err == nil {
		addr = cfg.ListenAddr
	}

	if err := probe(context.Background(), normalizeAddr(addr)); err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		return 1
	}
	return 0
}

// probe requires a 200 response whose body reports status "ok".
func probe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var health httphandler.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("reported status %q", health.Status)
	}
	return nil
}

// normalizeAddr points the probe at loopback when the server binds every
// interface, since the probe runs in the same container.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return config.Default().ListenAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
