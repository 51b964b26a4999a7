// Package main provides operator commands for the progression engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/learnquest-backend/internal/app"
	"github.com/yungbote/learnquest-backend/internal/modules/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/config"
	"github.com/yungbote/learnquest-backend/internal/platform/identity"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "progressctl",
		Short:        "Operate the learner progression engine",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newAdjustXPCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newPurgeUserCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

// withApp opens storage and the engine from the environment for one command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a, err := app.NewWithConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}

func parseUser(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q", raw)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAdjustXPCmd() *cobra.Command {
	var (
		user   string
		delta  int
		reason string
		actor  string
	)
	cmd := &cobra.Command{
		Use:   "adjust-xp",
		Short: "Apply a manual XP correction to a learner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.Ledger.Adjust(ctx, userID, delta, reason, actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner user id")
	cmd.Flags().IntVar(&delta, "delta", 0, "XP to add (negative to remove)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit log")
	cmd.Flags().StringVar(&actor, "actor", os.Getenv("USER"), "operator recorded in the audit log")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Re-run achievement rules for a learner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				unlocked, err := a.Engine.Achievements.Evaluate(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), unlocked)
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a learner's stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Engine.Stats.GetUserStats(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top learners by XP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Engine.Leaderboard.GetLeaderboard(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", progression.DefaultLeaderboardLimit, "number of entries")
	return cmd
}

func newPurgeUserCmd() *cobra.Command {
	var (
		user string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "purge-user",
		Short: "Delete every progression row for a learner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to purge %s without --yes", userID)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Engine.PurgeUser(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d rows for %s\n", n, userID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner user id")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect achievement catalogs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate a catalog file, or the built-in catalog when no path is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			catalog, err := progression.LoadCatalog(path, progression.DefaultPredicates())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, def := range catalog.Definitions() {
				fmt.Fprintf(out, "%-18s %-10s %4d xp  %s\n", def.ID, def.Rarity, def.XPReward, def.Rule.Predicate)
			}
			fmt.Fprintf(out, "%d achievements ok\n", catalog.Len())
			return nil
		},
	})
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a learner (local testing)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			var jwtCfg struct {
				Secret string `env:"JWT_SECRET_KEY,notEmpty"`
				Issuer string `env:"JWT_ISSUER"`
			}
			if err := config.ParseEnv(&jwtCfg); err != nil {
				return err
			}
			v, err := identity.NewVerifier(jwtCfg.Secret, jwtCfg.Issuer)
			if err != nil {
				return err
			}
			tok, err := v.Mint(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner user id")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
