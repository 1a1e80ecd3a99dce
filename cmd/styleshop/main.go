package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"styleshop/internal/cli"
	"styleshop/internal/domain"
	"styleshop/internal/repos"
	"styleshop/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "styleshop",
		Short:         "Fashion marketplace with style search",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShell,
	}
	root.AddCommand(
		&cobra.Command{Use: "shell", Short: "Start the interactive shell", RunE: runShell},
		&cobra.Command{Use: "migrate", Short: "Apply database migrations", RunE: runMigrate},
		seedCmd(),
		searchCmd(),
		buyCmd(),
	)
	return root
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	rl, err := cli.NewReadline(filepath.Join(home, ".styleshop_history"))
	if err != nil {
		return err
	}
	defer rl.Close()

	return cli.New(a.services(ctx), rl, cmd.OutOrStdout(), a.logger).Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
	return nil
}

func seedCmd() *cobra.Command {
	var items string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load default accounts and products from an item CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if items == "" {
				items = a.cfg.IndexFile
			}
			f, err := os.Open(items)
			if err != nil {
				return fmt.Errorf("open items: %w", err)
			}
			defer f.Close()

			rep, err := repos.NewSeeder(a.db, a.cfg.SeedRand).Run(ctx, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sellers %d, users %d, products %d, skipped rows %d\n",
				rep.Sellers, rep.Users, rep.Products, rep.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&items, "items", "", "item CSV (defaults to STYLESHOP_INDEX_FILE)")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		mode   string
		query  string
		topK   int
		userID int64
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one search as a user and print the ranked results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := domain.ParseSearchMode(mode)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if topK == 0 {
				topK = a.cfg.MaxTopK
			}
			hits, err := a.searchService(ctx).Search(ctx, domain.SearchRequest{
				Mode:   m,
				Query:  query,
				TopK:   topK,
				UserID: userID,
			})
			if err != nil {
				return err
			}
			cli.RenderHits(cmd.OutOrStdout(), hits, m == domain.ModeStyle)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "name", "name | category | sex | style")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search text, category or sex")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (defaults to STYLESHOP_MAX_TOP_K)")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id the search is logged for")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func buyCmd() *cobra.Command {
	var (
		userID    int64
		productID int64
		qty       int
	)
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Purchase a product for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			rc, err := services.NewPurchaseService(a.db, a.logger).Purchase(ctx, userID, productID, qty)
			if err != nil {
				return err
			}
			cli.RenderReceipt(cmd.OutOrStdout(), rc)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "buyer user id")
	cmd.Flags().Int64Var(&productID, "product", 0, "product id")
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}
