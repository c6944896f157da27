package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/brojonat/ledgerlens/service/config"
	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/brojonat/ledgerlens/service/solana"
	"github.com/brojonat/ledgerlens/service/view"
	"github.com/urfave/cli/v2"
)

// lookupCommand queries Solana RPC directly, without a server.
func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Look up an address directly against Solana RPC",
		ArgsUsage: "ADDRESS",
		Description: `Fetch balance, recent transactions and account state for an address.

Fields that cannot be fetched fall back to defaults; errors are logged to stderr.

Example:
  ledgerlens lookup So11111111111111111111111111111111111111112 --jq '.transactions | length'`,
		Flags: append(outputFlags(),
			&cli.StringSliceFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint (repeatable); one healthy endpoint is picked at random",
				EnvVars: []string{"SOLANA_RPC_URLS"},
				Value:   cli.NewStringSlice(config.DefaultRPCURLs...),
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of recent transactions to fetch",
				Value:   contract.DefaultTransactionLimit,
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Table page to print in text mode",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall lookup timeout",
				Value: 2 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log per-field fetch errors",
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			address, err := view.NormalizeQuery(c.Args().Get(0))
			if err != nil {
				return err
			}

			asJSON, code, err := jsonMode(c)
			if err != nil {
				return err
			}

			level := slog.LevelError
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			provider := solana.NewProvider(c.StringSlice("rpc-url"), solana.RPCHealthProbe, nil, logger)
			normalizer := contract.NewNormalizer(contract.ProviderSource(provider), c.Int("limit"), nil, logger)

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			snap, err := normalizer.FetchSnapshot(ctx, address)
			if err != nil {
				return fmt.Errorf("lookup failed: %w", err)
			}

			if asJSON {
				return printJSON(c.App.Writer, snap, code)
			}
			printSnapshot(c.App.Writer, snap, c.Int("page"))
			return nil
		},
	}
}

func printSnapshot(out io.Writer, snap *contract.Snapshot, page int) {
	fmt.Fprintf(out, "Address:      %s\n", snap.Address)
	fmt.Fprintf(out, "Balance:      %s SOL\n", snap.Balance)
	fmt.Fprintf(out, "Code:         %d bytes\n", len(snap.Code))
	fmt.Fprintf(out, "Data:         %d bytes\n", len(snap.Data))
	fmt.Fprintf(out, "Transactions: %d\n", len(snap.Transactions))
	if snap.Partial() {
		fmt.Fprintf(out, "Incomplete:   %v (see logs)\n", snap.FailedFields)
	}
	if len(snap.Transactions) == 0 {
		return
	}

	p := view.Paginate(snap.Transactions, page, view.DefaultPageSize)
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HASH\tTIME\tFROM\tTO\tAMOUNT\tTYPE")
	for _, tx := range p.Items {
		ts := contract.NotAvailable
		if tx.Timestamp > 0 {
			ts = time.Unix(tx.Timestamp, 0).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			view.Truncate(tx.Hash, 8), ts, view.Truncate(tx.From, 8), view.Truncate(tx.To, 8), tx.Amount, tx.Type)
	}
	w.Flush()
	fmt.Fprintf(out, "\nPage %d of %d\n", p.Number, max(p.TotalPages, 1))
}
