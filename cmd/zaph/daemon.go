package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/zaph/cmd/flags"
	"github.com/ruteri/zaph/daemon"
	"github.com/urfave/cli/v2"
)

var daemonCommand = &cli.Command{
	Name:  "daemon",
	Usage: "Ping every configured key on an interval",
	Subcommands: []*cli.Command{
		{
			Name:  "run",
			Usage: "Run the ping loop in the foreground or detached",
			Flags: txFlags(
				&cli.Uint64Flag{Name: "interval", Required: true, Usage: "seconds between ping cycles"},
				&cli.Uint64Flag{Name: "shots", Usage: "number of cycles to run, 0 runs forever"},
				&cli.BoolFlag{Name: "detached", Aliases: []string{"d"}, Usage: "run in the background and write .zaphenathd.pid"},
				&cli.StringFlag{Name: "status-addr", Usage: "serve /livez, /readyz and /status on this address"},
				flags.MockFlag,
			),
			Action: runDaemon,
		},
		{
			Name:  "stop",
			Usage: "Stop a detached daemon",
			Action: func(cCtx *cli.Context) error {
				return stopDaemon(daemon.NewSupervisor("", flags.SetupLogger(cCtx)))
			},
		},
		{
			Name:  "logs",
			Usage: "Print the daemon log",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "tail", Aliases: []string{"n"}, Usage: "only print the last N lines"},
			},
			Action: func(cCtx *cli.Context) error {
				sup := daemon.NewSupervisor("", flags.SetupLogger(cCtx))
				err := daemon.ShowLogs(os.Stdout, sup.LogPath(), cCtx.Int("tail"))
				if errors.Is(err, daemon.ErrNoLogs) {
					warn("%v", err)
					return nil
				}
				return err
			},
		},
	},
}

func runDaemon(cCtx *cli.Context) error {
	sup := daemon.NewSupervisor("", flags.SetupLogger(cCtx))

	if cCtx.Bool("detached") {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("could not locate own executable: %w", err)
		}
		pid, err := sup.Start(exe, daemon.WithoutDetachFlag(os.Args[1:]))
		if err != nil {
			return err
		}
		success("Daemon detached and running in background (PID: %d)", pid)
		return nil
	}

	logFile := daemon.NewLogWriter(sup.LogPath())
	defer logFile.Close()
	log := flags.SetupLoggerTo(cCtx, io.MultiWriter(os.Stderr, logFile))

	svc, err := newServiceWithLogger(cCtx, log)
	if err != nil {
		return err
	}

	scheduler := daemon.NewScheduler(daemon.SchedulerConfig{
		Mirror:    svc.Mirror(),
		Pinger:    svc,
		Interval:  time.Duration(cCtx.Uint64("interval")) * time.Second,
		Shots:     cCtx.Uint64("shots"),
		TxOptions: flags.TxOptions(cCtx),
		Log:       log,
	})

	if addr := cCtx.String("status-addr"); addr != "" {
		statusServer := daemon.NewStatusServer(&daemon.StatusServerConfig{
			ListenAddr:               addr,
			Log:                      log,
			GracefulShutdownDuration: 5 * time.Second,
			ReadTimeout:              10 * time.Second,
			WriteTimeout:             10 * time.Second,
		}, scheduler.Status())
		statusServer.RunInBackground()
		defer statusServer.Shutdown()
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func stopDaemon(sup *daemon.Supervisor) error {
	pid, err := sup.Stop()
	if errors.Is(err, daemon.ErrNotRunning) {
		return fmt.Errorf("%w: %s not found", err, sup.PIDPath())
	}
	if err != nil {
		return err
	}
	success("Daemon with PID %d stopped", pid)
	return nil
}
