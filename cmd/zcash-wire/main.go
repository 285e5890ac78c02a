// zcash-wire inspects captured Zcash peer-to-peer payloads.
//
// Payloads are read from a file argument, or from stdin when the argument is
// "-" or missing. Hex text and raw binary are both accepted.
//
// Example usage:
//
//	# Summarize a block payload
//	zcash-wire --network testnet block block-1028500.hex
//
//	# Check that a headers payload re-encodes byte for byte
//	zcash-wire --strict roundtrip --command headers headers.bin
//
//	# Decode a version payload and dump every field
//	zcash-wire --dump version version.hex
package main

import (
	"fmt"
	"os"

	btclogv1 "github.com/btcsuite/btclog"
	"github.com/btcsuite/btclog/v2"
	"github.com/suffix-labs/zcash-wire/pkg/api"
	"github.com/suffix-labs/zcash-wire/pkg/chaincfg"
	"github.com/urfave/cli"
)

const (
	appName = "zcash-wire"

	defaultNetwork  = "mainnet"
	defaultLogLevel = "info"

	// mainSubsystem is the logging tag of the command itself.
	mainSubsystem = "ZWIR"
)

// log is the command's logger. It stays disabled until setupLogging runs.
var log btclog.Logger = btclog.Disabled

// config holds the global options, resolved once per invocation.
type config struct {
	Params        *chaincfg.Params
	LogLevel      btclogv1.Level
	Strict        bool
	AllowTrailing bool
	Dump          bool
	Raw           bool
}

// decodeOptions returns the api decode options selected by cfg.
func (c *config) decodeOptions() api.DecodeOptions {
	return api.DecodeOptions{
		Strict:        c.Strict,
		AllowTrailing: c.AllowTrailing,
	}
}

// loadConfig reads the global flags of ctx into a config.
func loadConfig(ctx *cli.Context) (*config, error) {
	params, err := chaincfg.ParamsForName(ctx.GlobalString("network"))
	if err != nil {
		return nil, err
	}

	level, ok := btclog.LevelFromString(ctx.GlobalString("loglevel"))
	if !ok {
		return nil, fmt.Errorf("invalid log level %q",
			ctx.GlobalString("loglevel"))
	}

	return &config{
		Params:        params,
		LogLevel:      level,
		Strict:        ctx.GlobalBool("strict"),
		AllowTrailing: ctx.GlobalBool("allow-trailing"),
		Dump:          ctx.GlobalBool("dump"),
		Raw:           ctx.GlobalBool("raw"),
	}, nil
}

// setupLogging routes the command's and the api package's logs to stderr at
// the configured level.
func setupLogging(cfg *config) {
	handler := btclog.NewDefaultHandler(os.Stderr)
	root := btclog.NewSLogger(handler)

	log = root.SubSystem(mainSubsystem)
	log.SetLevel(cfg.LogLevel)

	apiLog := root.SubSystem(api.Subsystem)
	apiLog.SetLevel(cfg.LogLevel)
	api.UseLogger(apiLog)
}

// actionDecorator resolves the global configuration and sets up logging
// before running f.
func actionDecorator(f func(*cli.Context, *config) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		setupLogging(cfg)

		log.Debugf("Network %s, strict=%v, allow-trailing=%v",
			cfg.Params.Name, cfg.Strict, cfg.AllowTrailing)

		return f(ctx, cfg)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[%s] %v\n", appName, err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "decode, summarize and round-trip Zcash p2p payloads"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name: "network, n",
			Usage: "The network the payloads come from, used for " +
				"addresses and upgrade heights (mainnet or testnet).",
			Value: defaultNetwork,
		},
		cli.StringFlag{
			Name: "loglevel",
			Usage: "Logging level: trace, debug, info, warn, error " +
				"or critical.",
			Value: defaultLogLevel,
		},
		cli.BoolFlag{
			Name:  "strict",
			Usage: "Reject non-minimal compact size encodings.",
		},
		cli.BoolFlag{
			Name:  "allow-trailing",
			Usage: "Accept bytes after the end of the payload.",
		},
		cli.BoolFlag{
			Name:  "dump",
			Usage: "Dump the decoded payload with all of its fields.",
		},
		cli.BoolFlag{
			Name:  "raw",
			Usage: "Treat input as binary even if it looks like hex.",
		},
	}
	app.Commands = []cli.Command{
		blockCommand,
		headersCommand,
		versionCommand,
		getHeadersCommand,
		roundTripCommand,
		networkCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}
