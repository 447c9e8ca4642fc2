package flags

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/zaph/common"
	"github.com/ruteri/zaph/operations"
	"github.com/urfave/cli/v2"
)

// ConfigPathEnv overrides the default mirror location.
const ConfigPathEnv = "ZAPHENATH_CONFIG_PATH"

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	return SetupLoggerTo(cCtx, os.Stderr)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(cCtx *cli.Context, out io.Writer) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
		Output:  out,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// DefaultConfigPath is <user config dir>/zaphenath/config.json.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "zaphenath", "config.json")
}

// ConfigPath returns the mirror location from --config, the environment or the default.
func ConfigPath(cCtx *cli.Context) string {
	if path := cCtx.String(ConfigFlag.Name); path != "" {
		return path
	}
	return DefaultConfigPath()
}

// TxOptions collects the gas and confirmation flags.
func TxOptions(cCtx *cli.Context) operations.TxOptions {
	opts := operations.TxOptions{
		Yes:            cCtx.Bool(YesFlag.Name),
		Mock:           cCtx.Bool(MockFlag.Name),
		ConfirmTimeout: cCtx.Duration(ConfirmTimeoutFlag.Name),
	}
	if cCtx.IsSet(GasLimitFlag.Name) {
		limit := cCtx.Uint64(GasLimitFlag.Name)
		opts.GasLimit = &limit
	}
	if cCtx.IsSet(GasBufferFlag.Name) {
		buffer := cCtx.Float64(GasBufferFlag.Name)
		opts.GasBuffer = &buffer
	}
	if cCtx.IsSet(NonceFlag.Name) {
		nonce := cCtx.Uint64(NonceFlag.Name)
		opts.Nonce = &nonce
	}
	return opts
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	EnvVars: []string{ConfigPathEnv},
	Usage:   "path to the key config file (default: <user config dir>/zaphenath/config.json)",
}

var NetworksFileFlag = &cli.StringFlag{
	Name:  "networks-file",
	Usage: "TOML file with extra [networks.<name>] rpc_url entries",
}

var RpcUrlFlag = &cli.StringFlag{
	Name:  "rpc-url",
	Usage: "JSON-RPC endpoint, takes precedence over --network",
}

var NetworkFlag = &cli.StringFlag{
	Name:  "network",
	Usage: "network name (mainnet, sepolia, goerli, localhost, anvil or one from --networks-file)",
}

var KeyIDFlag = &cli.StringFlag{
	Name:     "key-id",
	Required: true,
	Usage:    "key identifier, hashed with keccak256 on-chain",
}

var YesFlag = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "skip the gas confirmation prompt",
}

var GasLimitFlag = &cli.Uint64Flag{
	Name:  "gas-limit",
	Usage: "use this gas limit instead of estimating",
}

var GasBufferFlag = &cli.Float64Flag{
	Name:  "gas-buffer",
	Usage: "multiply the gas estimate by this factor, e.g. 1.2",
}

var NonceFlag = &cli.Uint64Flag{
	Name:  "nonce",
	Usage: "override the account nonce",
}

var ConfirmTimeoutFlag = &cli.DurationFlag{
	Name:  "confirm-timeout",
	Value: 10 * time.Minute,
	Usage: "how long to wait for a transaction receipt",
}

var MockFlag = &cli.BoolFlag{
	Name:   "mock",
	Hidden: true,
	Usage:  "skip the on-chain call and only update the local config",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var CommonFlags = []cli.Flag{
	ConfigFlag,
	NetworksFileFlag,
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var NetworkFlags = []cli.Flag{
	RpcUrlFlag,
	NetworkFlag,
}

// GasFlags are the gas and confirmation flags shared by every transaction.
var GasFlags = []cli.Flag{
	YesFlag,
	GasLimitFlag,
	GasBufferFlag,
	NonceFlag,
	ConfirmTimeoutFlag,
}
