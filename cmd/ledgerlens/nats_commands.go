package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	natspkg "github.com/brojonat/ledgerlens/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"
)

// watchCommand streams lookup events from JetStream.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Stream lookup events as the server publishes them",
		ArgsUsage: "[address]",
		Description: `Consume lookup events from the LOOKUPS JetStream stream.

Without an address every lookup is shown. Events are published to the
subject lookups.{address}.

Example:
  ledgerlens nats watch --json`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
		),
		Action: func(c *cli.Context) error {
			subject := natspkg.StreamSubjects
			if c.NArg() > 0 {
				subject = natspkg.Subject(c.Args().Get(0))
			}
			asJSON, code, err := jsonMode(c)
			if err != nil {
				return err
			}

			nc, err := nats.Connect(c.String("nats-url"))
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			cons, err := js.CreateOrUpdateConsumer(context.Background(), natspkg.StreamName, jetstream.ConsumerConfig{
				FilterSubject: subject,
				AckPolicy:     jetstream.AckExplicitPolicy,
				DeliverPolicy: jetstream.DeliverNewPolicy,
			})
			if err != nil {
				return fmt.Errorf("failed to create consumer: %w", err)
			}

			if !asJSON {
				fmt.Fprintf(c.App.Writer, "Watching %s (Ctrl-C to exit)\n\n", subject)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			msgChan := make(chan jetstream.Msg, 10)
			consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
				msgChan <- msg
			})
			if err != nil {
				return fmt.Errorf("failed to start consuming: %w", err)
			}
			defer consumeCtx.Stop()

			count := 0
			for {
				select {
				case msg := <-msgChan:
					var event natspkg.LookupEvent
					if err := json.Unmarshal(msg.Data(), &event); err != nil {
						fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
						msg.Ack()
						continue
					}
					count++

					if asJSON {
						if err := printJSON(c.App.Writer, event, code); err != nil {
							fmt.Fprintf(os.Stderr, "%v\n", err)
						}
					} else {
						printLookupEvent(c, count, &event)
					}
					msg.Ack()

				case <-sigChan:
					if !asJSON {
						fmt.Fprintf(c.App.Writer, "\nReceived %d lookup events\n", count)
					}
					return nil
				}
			}
		},
	}
}

func printLookupEvent(c *cli.Context, n int, event *natspkg.LookupEvent) {
	out := c.App.Writer
	fmt.Fprintf(out, "Lookup #%d at %s\n", n, event.LookedUpAt.Format(time.RFC3339))
	fmt.Fprintf(out, "  Address:      %s\n", event.Address)
	fmt.Fprintf(out, "  Balance:      %s SOL\n", event.Balance)
	fmt.Fprintf(out, "  Transactions: %d\n", event.TransactionCount)
	if event.Partial {
		fmt.Fprintf(out, "  Failed:       %v\n", event.Errors)
	}
	fmt.Fprintln(out)
}
