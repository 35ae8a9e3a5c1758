package testenv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

const (
	serviceReadyTimeout = 30 * time.Second
	serviceStopTimeout  = 5 * time.Second
)

// Service is a dashboard server running as a subprocess.
type Service struct {
	URL string

	cmd    *exec.Cmd
	exited chan struct{}
}

// ServiceConfig holds what the server is started with.
type ServiceConfig struct {
	DatabaseURL string
	RedisURL    string // empty keeps the in-memory event cache
	APIKey      string
	ICalPath    string
	RulesFile   string

	// BinaryPath skips the build and runs a prebuilt server
	BinaryPath string
}

// DefaultServiceConfig returns the default service configuration.
// E2E_SERVER_BINARY points at a prebuilt server to skip compilation.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		APIKey:     "test-api-key",
		BinaryPath: os.Getenv("E2E_SERVER_BINARY"),
	}
}

// serviceEnv pins the settings the suites rely on: no sample seeding, so
// decision tables start empty, and UTC so "today" matches the fixture.
func serviceEnv(cfg ServiceConfig, port int) []string {
	return append(os.Environ(),
		"PORT="+fmt.Sprint(port),
		"DATABASE_URL="+cfg.DatabaseURL,
		"REDIS_URL="+cfg.RedisURL,
		"API_KEY="+cfg.APIKey,
		"ICAL_URL="+cfg.ICalPath,
		"RULES_FILE="+cfg.RulesFile,
		"DECISION_PLUGIN_URL=",
		"SEED_DATA=false",
		"TIMEZONE=UTC",
		"LOG_FORMAT=console",
	)
}

// StartService builds (unless BinaryPath is set) and launches the server,
// then waits for /healthz. The returned cleanup stops it and removes the
// build output.
func StartService(ctx context.Context, cfg ServiceConfig) (*Service, func(), error) {
	root, err := moduleRoot()
	if err != nil {
		return nil, nil, err
	}

	binary, removeBinary := cfg.BinaryPath, func() {}
	if binary == "" {
		binary, removeBinary, err = buildServer(ctx, root)
		if err != nil {
			return nil, nil, err
		}
	}

	port, err := freePort()
	if err != nil {
		removeBinary()
		return nil, nil, fmt.Errorf("failed to find a free port: %w", err)
	}

	cmd := exec.Command(binary)
	cmd.Dir = root
	cmd.Env = serviceEnv(cfg, port)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		removeBinary()
		return nil, nil, fmt.Errorf("failed to start server: %w", err)
	}

	svc := &Service{
		URL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		cmd:    cmd,
		exited: make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(svc.exited)
	}()

	cleanup := func() {
		svc.stop()
		removeBinary()
	}

	if err := svc.waitHealthy(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// stop sends SIGTERM so the server drains, and kills it if it lingers
func (s *Service) stop() {
	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = s.cmd.Process.Kill()
	}
	select {
	case <-s.exited:
	case <-time.After(serviceStopTimeout):
		_ = s.cmd.Process.Kill()
		<-s.exited
	}
}

func (s *Service) waitHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, serviceReadyTimeout)
	defer cancel()

	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/healthz", nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-s.exited:
			return errors.New("server exited before becoming healthy")
		case <-ctx.Done():
			return fmt.Errorf("server not healthy after %v: %w", serviceReadyTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func buildServer(ctx context.Context, root string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "mgmt-dashboard-server-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create build dir: %w", err)
	}
	remove := func() { _ = os.RemoveAll(dir) }

	binary := filepath.Join(dir, "server")
	cmd := exec.CommandContext(ctx, "go", "build", "-o", binary, "./cmd/server")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		remove()
		return "", nil, fmt.Errorf("failed to build server: %w\n%s", err, out)
	}
	return binary, remove, nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// moduleRoot walks up from the working directory to go.mod
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}
