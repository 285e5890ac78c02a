package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/suffix-labs/zcash-wire/pkg/api"
	"github.com/suffix-labs/zcash-wire/pkg/wire"
	"github.com/urfave/cli"
)

// stdout is where command output goes. Tests replace it.
var stdout io.Writer = os.Stdout

var blockCommand = cli.Command{
	Name:      "block",
	Usage:     "Decode a block payload and summarize it.",
	ArgsUsage: "[file]",
	Description: `
	Decode a block payload and print its hash, its height and upgrade
	when the coinbase commits to one, and every transaction with its
	id, format and transparent addresses.`,
	Action: actionDecorator(decodeBlock),
}

func decodeBlock(ctx *cli.Context, cfg *config) error {
	raw, err := readPayload(ctx, cfg)
	if err != nil {
		return err
	}

	block, err := api.ParseBlock(raw, cfg.decodeOptions())
	if err != nil {
		return err
	}
	if cfg.Dump {
		spew.Fdump(stdout, block)
		return nil
	}

	summary, err := api.SummarizeBlock(block, cfg.Params)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, summary)
	return nil
}

var headersCommand = cli.Command{
	Name:      "headers",
	Usage:     "Decode a headers payload.",
	ArgsUsage: "[file]",
	Action:    actionDecorator(decodeHeaders),
}

func decodeHeaders(ctx *cli.Context, cfg *config) error {
	raw, err := readPayload(ctx, cfg)
	if err != nil {
		return err
	}

	msg, err := api.ParseHeaders(raw, cfg.decodeOptions())
	if err != nil {
		return err
	}
	if cfg.Dump {
		spew.Fdump(stdout, msg)
		return nil
	}

	fmt.Fprintf(stdout, "headers %d\n", len(msg.Headers))
	for i, bh := range msg.Headers {
		fmt.Fprintf(stdout, "  [%d] %v prev %v time %v txs %d\n", i,
			bh.BlockHash(), bh.PrevBlock,
			time.Unix(int64(bh.Timestamp), 0).UTC().Format(time.RFC3339),
			bh.TxCount)
	}
	return nil
}

var versionCommand = cli.Command{
	Name:      "version",
	Usage:     "Decode a version payload.",
	ArgsUsage: "[file]",
	Action:    actionDecorator(decodeVersion),
}

func decodeVersion(ctx *cli.Context, cfg *config) error {
	raw, err := readPayload(ctx, cfg)
	if err != nil {
		return err
	}

	msg, err := api.ParseVersion(raw, cfg.decodeOptions())
	if err != nil {
		return err
	}
	if cfg.Dump {
		spew.Fdump(stdout, msg)
		return nil
	}

	fmt.Fprintln(stdout, msg)
	if msg.ProtocolVersion < wire.MinProtocolVersion {
		log.Warnf("Protocol version %d is older than %d",
			msg.ProtocolVersion, wire.MinProtocolVersion)
	}
	return nil
}

var getHeadersCommand = cli.Command{
	Name:      "getheaders",
	Aliases:   []string{"getblocks"},
	Usage:     "Decode a getheaders or getblocks payload.",
	ArgsUsage: "[file]",
	Action:    actionDecorator(decodeLocator),
}

func decodeLocator(ctx *cli.Context, cfg *config) error {
	raw, err := readPayload(ctx, cfg)
	if err != nil {
		return err
	}

	msg, err := api.ParseLocatorHashes(raw, cfg.decodeOptions())
	if err != nil {
		return err
	}
	if cfg.Dump {
		spew.Fdump(stdout, msg)
		return nil
	}

	fmt.Fprintf(stdout, "version %d\n", msg.ProtocolVersion)
	fmt.Fprintf(stdout, "locator %d\n", len(msg.BlockLocatorHashes))
	for i, h := range msg.BlockLocatorHashes {
		fmt.Fprintf(stdout, "  [%d] %v\n", i, h)
	}
	fmt.Fprintf(stdout, "stop %v\n", msg.HashStop)
	return nil
}

var roundTripCommand = cli.Command{
	Name:      "roundtrip",
	Usage:     "Check that a payload re-encodes to the same bytes.",
	ArgsUsage: "[file]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "command, c",
			Usage: "payload type: block, headers, getheaders, getblocks or version",
			Value: string(api.CmdBlock),
		},
	},
	Action: actionDecorator(roundTrip),
}

func roundTrip(ctx *cli.Context, cfg *config) error {
	raw, err := readPayload(ctx, cfg)
	if err != nil {
		return err
	}

	cmd := api.Command(ctx.String("command"))
	_, err = api.RoundTrip(cmd, raw, cfg.decodeOptions())

	var mismatch *api.MismatchError
	switch {
	case errors.As(err, &mismatch):
		lo := max(mismatch.Offset-8, 0)
		hi := min(mismatch.Offset+8, len(raw))
		return fmt.Errorf("%w\n  input around offset: %x", err, raw[lo:hi])

	case err != nil:
		return err
	}

	fmt.Fprintf(stdout, "%s: %d bytes round-trip OK\n", cmd, len(raw))
	return nil
}

var networkCommand = cli.Command{
	Name:   "network",
	Usage:  "Show the parameters of the selected network.",
	Action: actionDecorator(showNetwork),
}

func showNetwork(_ *cli.Context, cfg *config) error {
	p := cfg.Params
	fmt.Fprintf(stdout, "name     %s\n", p.Name)
	fmt.Fprintf(stdout, "magic    %x\n", p.Net)
	fmt.Fprintf(stdout, "port     %s\n", p.DefaultPort)
	fmt.Fprintf(stdout, "genesis  %v\n", p.GenesisHash)
	for _, a := range p.Activations {
		fmt.Fprintf(stdout, "  %-10v height %-8d branch %08x\n",
			a.Upgrade, a.Height, a.Upgrade.BranchID())
	}
	if cfg.Dump {
		spew.Fdump(stdout, p)
	}
	return nil
}

// readPayload reads the payload named by the first argument, or stdin when
// there is none or it is "-". Unless cfg.Raw is set, input that is entirely
// hex text (whitespace ignored) is decoded from hex.
func readPayload(ctx *cli.Context, cfg *config) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	name := ctx.Args().First()
	switch name {
	case "", "-":
		data, err = io.ReadAll(os.Stdin)
		name = "stdin"
	default:
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read payload: %w", err)
	}

	payload := decodeInput(data, cfg.Raw)
	log.Debugf("Read %d payload bytes from %s", len(payload), name)
	return payload, nil
}

// decodeInput returns data decoded from hex when it is hex text, and data
// itself otherwise.
func decodeInput(data []byte, raw bool) []byte {
	if raw {
		return data
	}

	text := strings.Join(strings.Fields(string(data)), "")
	text = strings.TrimPrefix(text, "0x")
	if len(text) == 0 {
		return data
	}

	decoded, err := hex.DecodeString(text)
	if err != nil {
		return data
	}
	return decoded
}
