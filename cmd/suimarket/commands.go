package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sebikillmachin/SUI/internal/app"
	"github.com/sebikillmachin/SUI/internal/crypto"
	"github.com/sebikillmachin/SUI/internal/service"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cli *CLI) marketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "markets",
		Short: "List the registry's markets with implied prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				markets, err := deps.Markets.Markets(ctx)
				if err != nil {
					return err
				}
				type row struct {
					ID       string `json:"id"`
					Question string `json:"question"`
					Asset    string `json:"asset"`
					YesBps   uint64 `json:"yes_bps"`
					NoBps    uint64 `json:"no_bps"`
					Resolved bool   `json:"resolved"`
				}
				rows := make([]row, 0, len(markets))
				for _, m := range markets {
					rows = append(rows, row{
						ID:       m.ID,
						Question: m.Question,
						Asset:    deps.Registry.Symbol(m.CoinType),
						YesBps:   m.YesPriceBps(),
						NoBps:    m.NoPriceBps(),
						Resolved: m.Resolved,
					})
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
}

func (cli *CLI) portfolioCmd() *cobra.Command {
	var marketID string
	cmd := &cobra.Command{
		Use:   "portfolio <owner>",
		Short: "Show positions, LP positions and limit orders owned by an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				p, err := deps.Portfolios.Portfolio(ctx, args[0])
				if err != nil {
					return err
				}
				if marketID != "" {
					m, err := deps.Markets.Market(ctx, marketID)
					if err != nil {
						return err
					}
					p = p.ForMarket(m.ID)
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&marketID, "market", "", "only holdings of this market")
	return cmd
}

func (cli *CLI) buildCmd() *cobra.Command {
	var intentJSON string
	actions := make([]string, 0, len(service.Actions))
	for _, a := range service.Actions {
		actions = append(actions, string(a))
	}
	cmd := &cobra.Command{
		Use:   "build <action>",
		Short: "Build the wallet payload for an action without submitting it",
		Long: "Build the wallet payload for an action without submitting it.\n\n" +
			"Actions: " + strings.Join(actions, ", ") + "\n\n" +
			`The intent is JSON, e.g. {"market_id":"0x..","side":"yes","amount":"1.5"}; "-" reads it from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(intentJSON)
			if intentJSON == "-" {
				var err error
				if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			var in service.Intent
			if err := json.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("parse intent: %w", err)
			}
			return cli.withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				tx, err := deps.Intents.Build(ctx, service.Action(args[0]), in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tx)
			})
		},
	}
	cmd.Flags().StringVar(&intentJSON, "intent", "-", "intent JSON, or - for stdin")
	return cmd
}

func (cli *CLI) sealSecretCmd() *cobra.Command {
	var out, secretEnv, passwordEnv string
	cmd := &cobra.Command{
		Use:   "seal-secret",
		Short: "Encrypt the signer HMAC secret to a file for signer.secret_file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			blob, err := crypto.SealSecret(os.Getenv(secretEnv), os.Getenv(passwordEnv))
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, blob, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sealed secret written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "signer.secret", "output file")
	cmd.Flags().StringVar(&secretEnv, "secret-env", "SUIMARKET_SIGNER_SECRET", "environment variable holding the secret")
	cmd.Flags().StringVar(&passwordEnv, "password-env", "SUIMARKET_SIGNER_SECRET_PASSWORD", "environment variable holding the password")
	return cmd
}
