package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{timeoutFlag(5 * time.Second)},
		Action: func(c *cli.Context) error {
			serverURL := c.String("server-url")
			if serverURL == "" {
				return fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
			}

			if err := newAPIClient(c).Health(context.Background()); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			fmt.Fprintf(c.App.Writer, "✓ Server is healthy\n")
			fmt.Fprintf(c.App.Writer, "  URL: %s\n", serverURL)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show CLI and server version information",
		Flags: []cli.Flag{
			timeoutFlag(5 * time.Second),
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Also query the server's version",
			},
		},
		Action: func(c *cli.Context) error {
			out := c.App.Writer
			fmt.Fprintf(out, "ledgerlens CLI\n")
			fmt.Fprintf(out, "  Version: %s\n", version)
			fmt.Fprintf(out, "  Commit:  %s\n", commit)
			fmt.Fprintf(out, "  Built:   %s\n", date)

			if !c.Bool("remote") {
				return nil
			}
			v, err := newAPIClient(c).Version(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch server version: %w", err)
			}
			fmt.Fprintf(out, "ledgerlens server\n")
			fmt.Fprintf(out, "  Version: %s\n", v)
			return nil
		},
	}
}
