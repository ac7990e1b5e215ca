package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"

	natspkg "github.com/solledger/solledger/service/nats"
)

// subscribeCommand subscribes to classification events for a wallet.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to classification events for a wallet",
		ArgsUsage: "[wallet_address]",
		Description: `Subscribe to real-time classification events published to NATS JetStream.

This command connects to NATS and streams classification events for the specified wallet address.
Events are published to the subject: classified.{wallet_address}

Example:
  solledger nats subscribe DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "solledger-cli",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}

			address := c.Args().Get(0)
			natsURL := c.String("nats-url")
			durable := c.Bool("durable")
			consumerName := c.String("consumer-name")
			jsonOutput := c.Bool("json")

			return streamClassifications(address, natsURL, durable, consumerName, jsonOutput)
		},
	}
}

// streamClassifications connects to NATS and streams classification events.
func streamClassifications(address, natsURL string, durable bool, consumerName string, jsonOutput bool) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subject := fmt.Sprintf("classified.%s", address)

	if !jsonOutput {
		fmt.Printf("📡 Subscribing to: %s\n", subject)
		fmt.Printf("   NATS: %s\n", natsURL)
		if durable {
			fmt.Printf("   Consumer: %s (durable)\n", consumerName)
		}
		fmt.Printf("\nWaiting for classifications... (Ctrl-C to exit)\n\n")
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durable {
		consumerConfig.Durable = consumerName
		consumerConfig.Name = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(context.Background(), natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgChan := make(chan jetstream.Msg, 10)

	go func() {
		_, _ = cons.Consume(func(msg jetstream.Msg) {
			msgChan <- msg
		})
	}()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			var event natspkg.ClassificationEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				msg.Ack()
				continue
			}

			count++

			if jsonOutput {
				data, _ := json.Marshal(event)
				fmt.Println(string(data))
			} else {
				fmt.Printf("✅ Classification received (#%d)\n", count)
				fmt.Printf("   Signature: %s\n", event.Signature)
				fmt.Printf("   Type:      %s (confidence %.2f)\n", event.PrimaryType, event.Confidence)
				fmt.Printf("   Direction: %s\n", event.Direction)
				if event.PrimaryAmount != nil {
					fmt.Printf("   Amount:    %s %s\n", formatAmount(*event.PrimaryAmount), event.PrimaryAmount.Token.Symbol)
				}
				fmt.Printf("   Slot:      %d\n", event.Slot)
				fmt.Printf("   Published: %s\n\n", event.PublishedAt.Format(time.RFC3339))
			}

			msg.Ack()

		case sig := <-sigChan:
			if !jsonOutput {
				fmt.Printf("\nReceived %v, exiting (%d event(s) seen)\n", sig, count)
			}
			return nil
		}
	}
}
