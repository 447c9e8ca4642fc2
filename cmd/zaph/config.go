package main

import (
	"encoding/json"
	"fmt"

	"github.com/ruteri/zaph/cmd/flags"
	"github.com/ruteri/zaph/operations"
	"github.com/urfave/cli/v2"
)

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Inspect and edit the local key config",
	Subcommands: []*cli.Command{
		{
			Name:  "view",
			Usage: "Print the config as JSON",
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				records, err := svc.ViewMirror()
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(records, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			},
		},
		{
			Name:  "path",
			Usage: "Print the config file location",
			Action: func(cCtx *cli.Context) error {
				fmt.Println(flags.ConfigPath(cCtx))
				return nil
			},
		},
		{
			Name:  "init",
			Usage: "Create an empty config",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "force", Usage: "overwrite an existing config"},
			},
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				if err := svc.InitMirror(cCtx.Context, cCtx.Bool("force")); err != nil {
					return err
				}
				success("Initialized config at %s", svc.MirrorPath())
				return nil
			},
		},
		{
			Name:  "add",
			Usage: "Add an existing on-chain key to the config without sending a transaction",
			Flags: append([]cli.Flag{
				flags.KeyIDFlag,
				&cli.StringFlag{Name: "contract-address", Required: true, Usage: "Zaphenath contract address"},
				&cli.StringFlag{Name: "private-key-path", Required: true, Usage: "file holding the owner's hex private key"},
				&cli.StringFlag{Name: "owner", Usage: "owner address, derived from the private key when omitted"},
				&cli.Uint64Flag{Name: "timeout", Usage: "key timeout in seconds"},
			}, flags.NetworkFlags...),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				record, err := svc.AddKey(cCtx.Context, operations.AddKeyRequest{
					KeyID:           cCtx.String(flags.KeyIDFlag.Name),
					ContractAddress: cCtx.String("contract-address"),
					PrivateKeyPath:  cCtx.String("private-key-path"),
					Owner:           cCtx.String("owner"),
					RPCURL:          cCtx.String(flags.RpcUrlFlag.Name),
					Network:         cCtx.String(flags.NetworkFlag.Name),
					Timeout:         cCtx.Uint64("timeout"),
				})
				if err != nil {
					return err
				}
				success("Key '%s' added to config (owner %s)", record.ID, record.Owner)
				return nil
			},
		},
	},
}
