package main

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/zaph/cmd/flags"
	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/operations"
	"github.com/urfave/cli/v2"
)

func txFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra, flags.GasFlags...)
}

func reportTx(what string, outcome operations.TxOutcome) {
	if outcome.Mock {
		success("%s (mock, no transaction sent)", what)
		return
	}
	success("%s. Tx hash: %s", what, outcome.Hash.Hex())
}

// reportConflict prints a warning for conflicts that follow a confirmed
// transaction and passes every other error through.
func reportConflict(err error) error {
	if errors.Is(err, interfaces.ErrConflict) {
		warn("%v", err)
	}
	return err
}

var contractCommand = &cli.Command{
	Name:  "contract",
	Usage: "Send transactions to the Zaphenath contract",
	Subcommands: []*cli.Command{
		{
			Name:  "create-key",
			Usage: "Register a new key with its encrypted data and timeout",
			Flags: txFlags(append([]cli.Flag{
				flags.KeyIDFlag,
				&cli.StringFlag{Name: "data", Required: true, Usage: "hex-encoded encrypted data"},
				&cli.Uint64Flag{Name: "timeout", Required: true, Usage: "seconds without a ping before custodians gain access"},
				&cli.StringFlag{Name: "contract-address", Required: true, Usage: "Zaphenath contract address"},
				&cli.StringFlag{Name: "private-key-path", Required: true, Usage: "file holding the owner's hex private key"},
				&cli.StringFlag{Name: "owner", Usage: "owner address, derived from the private key when omitted"},
				flags.MockFlag,
			}, flags.NetworkFlags...)...),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				result, err := svc.CreateKey(cCtx.Context, operations.CreateKeyRequest{
					KeyID:           cCtx.String(flags.KeyIDFlag.Name),
					DataHex:         cCtx.String("data"),
					Timeout:         cCtx.Uint64("timeout"),
					ContractAddress: cCtx.String("contract-address"),
					PrivateKeyPath:  cCtx.String("private-key-path"),
					Owner:           cCtx.String("owner"),
					RPCURL:          cCtx.String(flags.RpcUrlFlag.Name),
					Network:         cCtx.String(flags.NetworkFlag.Name),
				}, flags.TxOptions(cCtx))
				if err != nil {
					return reportConflict(err)
				}
				reportTx("Key created on-chain", result.TxOutcome)
				return nil
			},
		},
		{
			Name:  "delete-key",
			Usage: "Delete a key and its data",
			Flags: txFlags(flags.KeyIDFlag, flags.MockFlag),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				outcome, err := svc.DeleteKey(cCtx.Context, cCtx.String(flags.KeyIDFlag.Name), flags.TxOptions(cCtx))
				if err != nil {
					return reportConflict(err)
				}
				reportTx("Key deleted", *outcome)
				return nil
			},
		},
		{
			Name:  "ping-key",
			Usage: "Reset the key's inactivity timeout",
			Flags: txFlags(flags.KeyIDFlag, flags.MockFlag),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				outcome, err := svc.PingKey(cCtx.Context, cCtx.String(flags.KeyIDFlag.Name), flags.TxOptions(cCtx))
				if err != nil {
					return reportConflict(err)
				}
				reportTx("Key pinged", *outcome)
				return nil
			},
		},
		{
			Name:  "update-key",
			Usage: "Replace the key's data and timeout",
			Flags: txFlags(
				flags.KeyIDFlag,
				&cli.StringFlag{Name: "data", Required: true, Usage: "hex-encoded encrypted data"},
				&cli.Uint64Flag{Name: "timeout", Required: true, Usage: "new timeout in seconds"},
				flags.MockFlag,
			),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				outcome, err := svc.UpdateKey(cCtx.Context, cCtx.String(flags.KeyIDFlag.Name),
					cCtx.String("data"), cCtx.Uint64("timeout"), flags.TxOptions(cCtx))
				if err != nil {
					return reportConflict(err)
				}
				reportTx("Key updated", *outcome)
				return nil
			},
		},
		{
			Name:  "set-custodian",
			Usage: "Grant a custodian a role on a key",
			Flags: txFlags(
				flags.KeyIDFlag,
				&cli.StringFlag{Name: "user-address", Required: true, Usage: "custodian address"},
				&cli.StringFlag{Name: "role", Required: true, Usage: "owner, writer, reader or none"},
				&cli.BoolFlag{Name: "can-ping", Usage: "allow the custodian to ping the key"},
				flags.MockFlag,
			),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				outcome, err := svc.SetCustodian(cCtx.Context, cCtx.String(flags.KeyIDFlag.Name),
					cCtx.String("user-address"), cCtx.String("role"), cCtx.Bool("can-ping"), flags.TxOptions(cCtx))
				if err != nil {
					return reportConflict(err)
				}
				reportTx("Custodian set", *outcome)
				return nil
			},
		},
		{
			Name:  "remove-custodian",
			Usage: "Revoke a custodian's access to a key",
			Flags: txFlags(
				flags.KeyIDFlag,
				&cli.StringFlag{Name: "user-address", Required: true, Usage: "custodian address"},
				flags.MockFlag,
			),
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				user := cCtx.String("user-address")
				result, err := svc.RemoveCustodian(cCtx.Context, cCtx.String(flags.KeyIDFlag.Name), user, flags.TxOptions(cCtx))
				if err != nil {
					return reportConflict(err)
				}
				if !result.RemovedLocally {
					warn("custodian %s was not present in the local config", user)
				}
				reportTx("Custodian removed", result.TxOutcome)
				return nil
			},
		},
		{
			Name:  "read-key",
			Usage: "Read the data stored under a key",
			Flags: []cli.Flag{
				flags.KeyIDFlag,
				&cli.BoolFlag{Name: "decode", Usage: "print the data as UTF-8 text"},
			},
			Action: func(cCtx *cli.Context) error {
				svc, err := newService(cCtx)
				if err != nil {
					return err
				}
				data, err := svc.ReadKey(cCtx.Context, cCtx.String(flags.KeyIDFlag.Name))
				if err != nil {
					return err
				}
				if !cCtx.Bool("decode") {
					fmt.Println(hexutil.Encode(data))
					return nil
				}
				if !utf8.Valid(data) {
					warn("data is not valid UTF-8, use --decode only for UTF-8 content")
					fmt.Println(hexutil.Encode(data))
					return nil
				}
				fmt.Println(string(data))
				return nil
			},
		},
	},
}
