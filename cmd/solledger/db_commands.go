package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/solledger/solledger/service/db"
)

// connectStore opens a pgx pool from the global --database-url flag.
func connectStore(c *cli.Context) (*db.Store, *pgxpool.Pool, error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db.NewStore(pool), pool, nil
}

func listStoredCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List stored classified transactions for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Value:   20,
				Usage:   "Maximum number of transactions to retrieve",
			},
			&cli.Int64Flag{
				Name:  "before-slot",
				Usage: "Pagination cursor: only return transactions below this slot",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)
			jsonOutput := c.Bool("json")

			store, pool, err := connectStore(c)
			if err != nil {
				return err
			}
			defer pool.Close()

			rows, err := store.ListByWallet(context.Background(), db.ListParams{
				WalletAddress: address,
				Limit:         int32(c.Int("limit")),
				BeforeSlot:    c.Int64("before-slot"),
			})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(rows, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(rows) == 0 {
				fmt.Println("No transactions found")
				return nil
			}

			fmt.Printf("Found %d transaction(s) for wallet %s:\n\n", len(rows), address)
			for i, row := range rows {
				fmt.Printf("[%d] Signature: %s\n", i+1, row.Signature)
				fmt.Printf("    Type:       %s (confidence %.2f)\n", row.PrimaryType, row.Confidence)
				fmt.Printf("    Slot:       %d\n", row.Slot)
				if !row.BlockTime.IsZero() {
					fmt.Printf("    Block Time: %s\n", row.BlockTime.Format(time.RFC3339))
				}
				if row.Failed {
					fmt.Printf("    Status:     FAILED\n")
				}
				fmt.Println()
			}
			if len(rows) > 0 {
				fmt.Printf("Next page: --before-slot %d\n", rows[len(rows)-1].Slot)
			}

			return nil
		},
	}
}

func getTransactionCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"show"},
		Usage:     "Get one stored classified transaction by signature",
		ArgsUsage: "SIGNATURE",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("transaction signature is required")
			}
			signature := c.Args().Get(0)

			store, pool, err := connectStore(c)
			if err != nil {
				return err
			}
			defer pool.Close()

			row, err := store.GetClassified(context.Background(), signature)
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}
			if row == nil {
				return fmt.Errorf("transaction %s not found", signature)
			}

			data, _ := json.MarshalIndent(row, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Show per-type transaction counts for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)
			jsonOutput := c.Bool("json")

			store, pool, err := connectStore(c)
			if err != nil {
				return err
			}
			defer pool.Close()

			total, err := store.CountByWallet(context.Background(), address)
			if err != nil {
				return fmt.Errorf("failed to count transactions: %w", err)
			}
			byType, err := store.CountByType(context.Background(), address)
			if err != nil {
				return fmt.Errorf("failed to count by type: %w", err)
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(map[string]any{
					"address": address,
					"total":   total,
					"by_type": byType,
				}, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Wallet %s\n", address)
			fmt.Printf("Total classified: %d\n", total)
			for pt, n := range byType {
				fmt.Printf("  %-16s %d\n", pt, n)
			}
			return nil
		},
	}
}
