package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/daemon"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll telemetry in the background and serve forecasts over HTTP/SSE",
	Long: "Re-scan the data directory on an interval, refit every tank and publish\n" +
		"reorder date changes on /v1/stream. Forecasts are served per tank at\n" +
		"/v1/tanks/{id}/forecast.",
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.CacheDir(), "tankcastd.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.CacheDir(), "tankcastd.log"), "Log file for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonProcess() daemon.Process {
	return daemon.Process{PIDFile: flagDaemonPIDFile}
}

// applyDaemonDefaults fills unset daemon flags from the config file.
func applyDaemonDefaults() {
	if flagDaemonAddr == "" {
		flagDaemonAddr = appCfg.Daemon.Addr
	}
	if flagDaemonInterval <= 0 {
		flagDaemonInterval = appCfg.Daemon.Interval()
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	applyDaemonDefaults()

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	opts, err := forecastOptions(cmd, appCfg.Forecast.Degree)
	if err != nil {
		return err
	}

	release, err := daemonProcess().Claim(daemon.RuntimeState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DataDir:   appCfg.General.DataDir,
	})
	if err != nil {
		return err
	}
	defer release()

	svc := daemon.New(daemon.Config{
		DataDir:       appCfg.General.DataDir,
		UseCache:      !flagNoCache,
		CachePath:     config.CachePath(),
		Interval:      flagDaemonInterval,
		Addr:          flagDaemonAddr,
		EventsBuffer:  flagDaemonEventsBuffer,
		Forecast:      opts,
		ExcludedTanks: appCfg.General.ExcludedTanks,
	})

	fmt.Printf("  tankcast daemon listening on http://%s\n", flagDaemonAddr)
	fmt.Printf("  Polling %s every %s\n", appCfg.General.DataDir, flagDaemonInterval)
	fmt.Printf("  Forecast: %s degree %d, context %d, horizon %s\n",
		opts.Kind, opts.Degree, opts.ContextLength, cli.FormatDays(opts.Horizon))
	fmt.Printf("  Stop with: tankcast daemon stop --pid-file %s\n", flagDaemonPIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Str("component", "daemon").Msg("daemon stopped")
	return nil
}

// startDaemonDetached re-executes the binary with --child, output appended
// to the log file.
func startDaemonDetached() error {
	if err := daemonProcess().CheckFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(withoutDetach(os.Args[1:]), "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  API: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	applyDaemonDefaults()
	proc := daemonProcess()

	pid, alive := proc.Running()
	switch {
	case pid == 0:
		fmt.Println("  Daemon: not running")
		return nil
	case !alive:
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if st, err := proc.State(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	rows := [][]string{
		{"PID", fmt.Sprintf("%d", pid)},
		{"Address", "http://" + addr},
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()
	st, err := daemon.FetchStatus(ctx, addr)
	if err != nil {
		rows = append(rows, []string{"API", "unreachable: " + err.Error()})
	} else {
		lastPoll := "pending"
		if !st.LastPollAt.IsZero() {
			lastPoll = cli.FormatTimestamp(st.LastPollAt)
		}
		rows = append(rows,
			[]string{"---"},
			[]string{"Data dir", st.DataDir},
			[]string{"Last poll", lastPoll},
			[]string{"Polls", cli.FormatNumber(st.PollCount)},
			[]string{"Model", fmt.Sprintf("degree %d, context %d, horizon %s",
				st.Degree, st.ContextDays, cli.FormatDays(st.HorizonDays))},
			[]string{"---"},
			[]string{"Tanks", cli.FormatNumber(int64(st.Summary.Tanks))},
			[]string{"Total fill", cli.FormatLiters(st.Summary.TotalLiters)},
			[]string{"Due within horizon", cli.FormatNumber(int64(st.Summary.DueSoon))},
			[]string{"Events", fmt.Sprintf("%d (%d subscribers)", st.EventCount, st.SubscriberCount)},
		)
		if st.LastError != "" {
			rows = append(rows, []string{"Last error", st.LastError})
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("tankcast daemon"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Field", "Value"},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

func runDaemonStop(cmd *cobra.Command, _ []string) error {
	pid, err := daemonProcess().Stop(cmd.Context(), 8*time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}

func withoutDetach(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
