package daemon

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestProcessClaimAndRelease(t *testing.T) {
	p := Process{PIDFile: filepath.Join(t.TempDir(), "run", "tankcastd.pid")}
	st := RuntimeState{PID: os.Getpid(), Addr: "127.0.0.1:9999", StartedAt: time.Now(), DataDir: "data"}

	release, err := p.Claim(st)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	pid, alive := p.Running()
	if pid != os.Getpid() || !alive {
		t.Errorf("Running = %d, %v; want own pid alive", pid, alive)
	}
	got, err := p.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if got.Addr != st.Addr || got.DataDir != "data" {
		t.Errorf("State = %+v", got)
	}

	// The current process is alive, so a second claim must fail.
	if _, err := p.Claim(st); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Claim err = %v, want ErrAlreadyRunning", err)
	}
	if err := p.CheckFree(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("CheckFree err = %v, want ErrAlreadyRunning", err)
	}

	release()
	if _, err := os.Stat(p.PIDFile); !os.IsNotExist(err) {
		t.Errorf("pid file still present after release: %v", err)
	}
	if _, err := p.State(); !os.IsNotExist(err) {
		t.Errorf("state file still present after release: %v", err)
	}
	if err := p.CheckFree(); err != nil {
		t.Errorf("CheckFree after release: %v", err)
	}
}

func TestProcessInvalidPID(t *testing.T) {
	p := Process{PIDFile: filepath.Join(t.TempDir(), "bad.pid")}
	if err := os.WriteFile(p.PIDFile, []byte("nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := p.PID(); err == nil || !strings.Contains(err.Error(), "invalid pid") {
		t.Errorf("PID err = %v, want invalid pid", err)
	}
	if _, alive := p.Running(); alive {
		t.Error("Running reported alive for garbage pid file")
	}
	// Garbage is replaced by a claim.
	release, err := p.Claim(RuntimeState{PID: os.Getpid()})
	if err != nil {
		t.Fatalf("Claim over garbage: %v", err)
	}
	release()
}

func TestProcessStopNotRunning(t *testing.T) {
	p := Process{PIDFile: filepath.Join(t.TempDir(), "none.pid")}
	if _, err := p.Stop(context.Background(), time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop err = %v, want ErrNotRunning", err)
	}
}

func TestFetchStatus(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir, 1, 10, 1000, 10, 2000)
	s := newTestService(t, dir)
	s.pollOnce()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	st, err := FetchStatus(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
	if st.PollCount != 1 || st.Summary.Tanks != 1 {
		t.Errorf("status = %+v, want one poll over one tank", st)
	}
	if st.HorizonDays != 30 {
		t.Errorf("HorizonDays = %d, want 30", st.HorizonDays)
	}
}
