package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/brojonat/ledgerlens/client"
	"github.com/brojonat/ledgerlens/service/view"
	"github.com/urfave/cli/v2"
)

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "HTTP client commands for interacting with a ledgerlens server",
		Subcommands: []*cli.Command{
			contractCommand(),
			chartCommand(),
			marketCommand(),
		},
	}
}

func timeoutFlag(d time.Duration) cli.Flag {
	return &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Value:   d,
		Usage:   "Request timeout",
	}
}

func newAPIClient(c *cli.Context) *client.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return client.NewClient(c.String("server-url"), &http.Client{Timeout: c.Duration("timeout")}, logger)
}

func contractCommand() *cli.Command {
	return &cli.Command{
		Name:      "contract",
		Usage:     "Look up an address through the server",
		ArgsUsage: "ADDRESS",
		Flags:     append(outputFlags(), timeoutFlag(2*time.Minute)),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			asJSON, code, err := jsonMode(c)
			if err != nil {
				return err
			}

			session := client.NewSession(newAPIClient(c))
			contract, err := session.Search(context.Background(), c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to fetch contract: %w", err)
			}

			if asJSON {
				return printJSON(c.App.Writer, contract, code)
			}

			out := c.App.Writer
			fmt.Fprintf(out, "Address:      %s\n", contract.Address)
			fmt.Fprintf(out, "Balance:      %s SOL\n", contract.Balance)
			fmt.Fprintf(out, "Code:         %d bytes\n", len(contract.Code))
			fmt.Fprintf(out, "Data:         %d bytes\n", len(contract.Data))
			fmt.Fprintf(out, "Transactions: %d\n", len(contract.Transactions))
			if len(contract.Transactions) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HASH\tTIME\tFROM\tTO\tAMOUNT\tTYPE")
			for _, tx := range contract.Transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					view.Truncate(tx.Hash, 8), tx.Timestamp, view.Truncate(tx.From, 8), view.Truncate(tx.To, 8), tx.Amount, tx.Type)
			}
			return w.Flush()
		},
	}
}

func chartCommand() *cli.Command {
	return &cli.Command{
		Name:      "chart",
		Usage:     "Print chart data for an address",
		ArgsUsage: "ADDRESS",
		Flags: append(outputFlags(), timeoutFlag(2*time.Minute),
			&cli.StringFlag{
				Name:  "type",
				Usage: "Transaction direction: all, in or out",
				Value: "all",
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			asJSON, code, err := jsonMode(c)
			if err != nil {
				return err
			}

			chart, err := newAPIClient(c).Chart(context.Background(), c.Args().Get(0), c.String("type"))
			if err != nil {
				return fmt.Errorf("failed to fetch chart: %w", err)
			}

			if asJSON {
				return printJSON(c.App.Writer, chart, code)
			}

			out := c.App.Writer
			fmt.Fprintf(out, "Incoming: %s\n", chart.Totals.Incoming)
			fmt.Fprintf(out, "Outgoing: %s\n", chart.Totals.Outgoing)
			for _, p := range chart.Series {
				fmt.Fprintf(out, "%s  %-3s  %g\n", p.Date, p.Type, p.Amount)
			}
			return nil
		},
	}
}

func marketCommand() *cli.Command {
	return &cli.Command{
		Name:      "market",
		Usage:     "Show market data for a coin symbol",
		ArgsUsage: "[SYMBOL]",
		Flags:     append(outputFlags(), timeoutFlag(15*time.Second)),
		Action: func(c *cli.Context) error {
			asJSON, code, err := jsonMode(c)
			if err != nil {
				return err
			}

			data, err := newAPIClient(c).Market(context.Background(), c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to fetch market data: %w", err)
			}

			if asJSON {
				return printJSON(c.App.Writer, data, code)
			}

			out := c.App.Writer
			fmt.Fprintf(out, "%s (%s)\n", data.Name, data.Symbol)
			fmt.Fprintf(out, "  Price:       $%.4f (%+.2f%% 24h)\n", data.CurrentPrice, data.PriceChangePercentage24h)
			fmt.Fprintf(out, "  24h Range:   $%.4f - $%.4f\n", data.Low24h, data.High24h)
			fmt.Fprintf(out, "  Market Cap:  $%.0f\n", data.MarketCap)
			fmt.Fprintf(out, "  Volume 24h:  $%.0f\n", data.TotalVolume)
			fmt.Fprintf(out, "  ATH / ATL:   $%.4f / $%.4f\n", data.ATH, data.ATL)
			fmt.Fprintf(out, "  Circulating: %.0f\n", data.CirculatingSupply)
			return nil
		},
	}
}
