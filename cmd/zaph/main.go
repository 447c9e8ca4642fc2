package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/ruteri/zaph/cmd/flags"
	"github.com/ruteri/zaph/common"
	"github.com/ruteri/zaph/network"
	"github.com/ruteri/zaph/operations"
	"github.com/ruteri/zaph/storage"
	"github.com/ruteri/zaph/transactor"
	"github.com/urfave/cli/v2"
)

func main() {
	// a missing .env is not an error
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "zaph",
		Usage:   "Manage time-locked keys on the Zaphenath contract",
		Version: common.Version,
		Flags:   flags.CommonFlags,
		Commands: []*cli.Command{
			configCommand,
			contractCommand,
			daemonCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newService(cCtx *cli.Context) (*operations.Service, error) {
	return newServiceWithLogger(cCtx, flags.SetupLogger(cCtx))
}

// newServiceWithLogger wires the mirror, network table and terminal prompt for one invocation.
func newServiceWithLogger(cCtx *cli.Context, log *slog.Logger) (*operations.Service, error) {
	resolver := network.NewResolver()
	if path := cCtx.String(flags.NetworksFileFlag.Name); path != "" {
		if err := resolver.LoadFile(path); err != nil {
			return nil, err
		}
	}

	return operations.NewService(operations.Config{
		Mirror:    storage.NewFileMirror(flags.ConfigPath(cCtx), log),
		Resolver:  resolver,
		Confirmer: &transactor.TerminalConfirmer{In: os.Stdin, Out: os.Stderr},
		Log:       log,
	}), nil
}

func success(format string, args ...interface{}) {
	fmt.Println(color.GreenString(format, args...))
}

func warn(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("Warning: "+format, args...))
}
