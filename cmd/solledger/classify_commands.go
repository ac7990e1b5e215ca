package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/solledger/solledger/client"
	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/ledger"
)

func classifyCommands() *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Wallet transaction classification commands",
		Subcommands: []*cli.Command{
			classifyWalletCommand(),
		},
	}
}

func classifyWalletCommand() *cli.Command {
	return &cli.Command{
		Name:      "wallet",
		Usage:     "Fetch and classify a wallet's recent transactions",
		ArgsUsage: "WALLET_ADDRESS",
		Description: `Classify a wallet's recent transactions through the solledger API.

Each classified transaction can be filtered with jq expressions; only
transactions for which every filter evaluates truthy are printed.

Example:
  solledger classify wallet DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK \
    --limit 50 --jq '.classification.primary_type == "swap"'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:8080",
				Usage:   "HTTP server URL",
				EnvVars: []string{"SOLLEDGER_SERVER_URL"},
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Value:   50,
				Usage:   "Maximum number of signatures to fetch (1-1000)",
			},
			&cli.StringFlag{
				Name:    "before",
				Aliases: []string{"b"},
				Usage:   "Pagination cursor: a signature from the previous page",
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Aliases: []string{"jq"},
				Usage:   "jq filter expression that must evaluate to true (can be specified multiple times, all must match)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}

			address := c.Args().Get(0)
			serverURL := c.String("server")
			limit := c.Int("limit")
			before := c.String("before")
			jqFilters := c.StringSlice("must-jq")
			jsonOutput := c.Bool("json")

			if limit < 1 || limit > 1000 {
				return fmt.Errorf("limit must be between 1 and 1000")
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError,
			}))

			// Compile jq filters
			compiledJQFilters := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiledJQFilters[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			cl := client.NewClient(serverURL, nil, logger)

			result, err := cl.ListTransactions(context.Background(), address, client.ListTransactionsOpts{
				Limit:  limit,
				Before: before,
			})
			if err != nil {
				return fmt.Errorf("failed to classify wallet: %w", err)
			}

			matched := make([]classify.ClassifiedTransaction, 0, len(result.Transactions))
			for _, ct := range result.Transactions {
				ok, err := matchesFilters(ct, compiledJQFilters)
				if err != nil {
					logger.Debug("jq filter error", "signature", ct.Tx.Signature, "error", err)
					continue
				}
				if ok {
					matched = append(matched, ct)
				}
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(map[string]any{
					"transactions": matched,
					"next_cursor":  result.NextCursor,
					"total":        result.Total,
				}, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(matched) == 0 {
				fmt.Println("No matching transactions")
				return nil
			}

			fmt.Printf("Found %d transaction(s) for wallet %s:\n\n", len(matched), address)
			for i, ct := range matched {
				printClassified(i+1, ct)
			}
			if result.NextCursor != "" {
				fmt.Printf("Next page: --before %s\n", result.NextCursor)
			}

			return nil
		},
	}
}

// matchesFilters runs all compiled jq filters against the JSON form of a
// classified transaction; every filter must evaluate truthy.
func matchesFilters(ct classify.ClassifiedTransaction, filters []*gojq.Code) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	// Round-trip through JSON so jq sees the wire shape.
	data, err := json.Marshal(ct)
	if err != nil {
		return false, err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, err
	}

	for _, code := range filters {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, err
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}

func printClassified(index int, ct classify.ClassifiedTransaction) {
	c := ct.Classification
	fmt.Printf("[%d] Signature: %s\n", index, ct.Tx.Signature)
	fmt.Printf("    Type:       %s (confidence %.2f)\n", c.PrimaryType, c.Confidence)
	if c.PrimaryAmount != nil {
		fmt.Printf("    Amount:     %s %s\n", formatAmount(*c.PrimaryAmount), c.PrimaryAmount.Token.Symbol)
	}
	if c.SecondaryAmount != nil {
		fmt.Printf("    Secondary:  %s %s\n", formatAmount(*c.SecondaryAmount), c.SecondaryAmount.Token.Symbol)
	}
	if c.Sender != nil {
		fmt.Printf("    Sender:     %s\n", *c.Sender)
	}
	if c.Receiver != nil {
		fmt.Printf("    Receiver:   %s\n", *c.Receiver)
	}
	if c.Counterparty != nil {
		fmt.Printf("    Counterparty: %s (%s)\n", c.Counterparty.Address, c.Counterparty.Kind)
	}
	fmt.Printf("    Slot:       %d\n", ct.Tx.Slot)
	if !ct.Tx.BlockTime.IsZero() {
		fmt.Printf("    Block Time: %s\n", ct.Tx.BlockTime.Format(time.RFC3339))
	}
	if ct.Tx.Failed() {
		fmt.Printf("    Status:     FAILED\n")
	}
	fmt.Println()
}

// formatAmount renders the display value of a money amount.
func formatAmount(a ledger.MoneyAmount) string {
	return strconv.FormatFloat(a.UI, 'f', -1, 64)
}
