package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrNotRunning is returned when no live daemon owns the PID file.
	ErrNotRunning = errors.New("daemon is not running")
	// ErrAlreadyRunning is returned by Claim when a live daemon owns the PID file.
	ErrAlreadyRunning = errors.New("daemon already running")
)

// RuntimeState is written next to the PID file so status can find the API.
type RuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
}

// Process is a daemon instance identified by its PID file.
type Process struct {
	PIDFile string
}

func (p Process) statePath() string {
	return p.PIDFile + ".json"
}

// PID reads the PID file.
func (p Process) PID() (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(p.PIDFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p.PIDFile)
	}
	return pid, nil
}

// Running returns the daemon pid and whether that process is alive.
func (p Process) Running() (int, bool) {
	pid, err := p.PID()
	if err != nil {
		return 0, false
	}
	return pid, Alive(pid)
}

// Claim records st as the running daemon. Stale files left by a dead
// process are replaced. The returned release removes both files.
func (p Process) Claim(st RuntimeState) (release func(), err error) {
	if pid, alive := p.Running(); alive {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	p.clear()

	if err := os.MkdirAll(filepath.Dir(p.PIDFile), 0o750); err != nil {
		return nil, fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(p.PIDFile, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		p.clear()
		return nil, err
	}
	if err := os.WriteFile(p.statePath(), append(data, '\n'), 0o600); err != nil {
		p.clear()
		return nil, fmt.Errorf("write state file: %w", err)
	}
	return p.clear, nil
}

// CheckFree returns ErrAlreadyRunning when a live daemon owns the PID file.
func (p Process) CheckFree() error {
	if pid, alive := p.Running(); alive {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return nil
}

// State reads the runtime state file.
func (p Process) State() (RuntimeState, error) {
	var st RuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse %s: %w", p.statePath(), err)
	}
	return st, nil
}

// Stop sends SIGTERM and waits up to timeout for the process to exit.
func (p Process) Stop(ctx context.Context, timeout time.Duration) (int, error) {
	pid, alive := p.Running()
	if !alive {
		return 0, ErrNotRunning
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("signal daemon process: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	wait := backoff.WithContext(backoff.NewConstantBackOff(150*time.Millisecond), ctx)
	err = backoff.Retry(func() error {
		if Alive(pid) {
			return errors.New("still running")
		}
		return nil
	}, wait)
	if err != nil {
		return pid, fmt.Errorf("daemon (pid %d) did not exit in %s", pid, timeout)
	}
	p.clear()
	return pid, nil
}

func (p Process) clear() {
	_ = os.Remove(p.PIDFile)
	_ = os.Remove(p.statePath())
}

// Alive reports whether pid names a live process.
func Alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// FetchStatus queries a running daemon's /v1/status endpoint.
func FetchStatus(ctx context.Context, addr string) (Status, error) {
	var st Status
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed status: %w", err)
	}
	return st, nil
}
