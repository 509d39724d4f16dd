package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"guardian-server/internal/config"
	"guardian-server/internal/database"
	"guardian-server/internal/service"
	"guardian-server/migrations"
	"guardian-server/pkg/migration"
	sharedLogger "guardian-server/shared/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "guardianctl",
	Short:         "Guardian server maintenance CLI",
	Long:          "guardianctl applies schema migrations and inspects guardian tokens and the leaderboard.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GUARDIAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("env-file", ".env", "path to .env file")
	rootCmd.PersistentFlags().String("database-url", "", "postgres DSN (overrides DATABASE_URL and DB_* settings)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Duration("timeout", 2*time.Minute, "operation timeout")
	_ = viper.BindPFlag("env-file", rootCmd.PersistentFlags().Lookup("env-file"))
	_ = viper.BindPFlag("database-url", rootCmd.PersistentFlags().Lookup("database-url"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func registerCommands() {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokensCmd())
	rootCmd.AddCommand(leaderboardCmd())
}

func migrateCmd() *cobra.Command {
	m := &cobra.Command{Use: "migrate", Short: "Manage schema migrations"}
	m.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, mg *migration.Migrator) error {
				return mg.Up(ctx)
			})
		},
	})
	m.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, mg *migration.Migrator) error {
				return mg.Down(ctx)
			})
		},
	})
	m.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations (negative N rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[0], err)
			}
			return withMigrator(cmd.Context(), func(ctx context.Context, mg *migration.Migrator) error {
				return mg.Steps(ctx, n)
			})
		},
	})
	m.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set migration version without running migrations (clears dirty state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(cmd.Context(), func(ctx context.Context, mg *migration.Migrator) error {
				return mg.ForceVersion(ctx, uint(v))
			})
		},
	})
	m.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, mg *migration.Migrator) error {
				version, dirty, err := mg.Version(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"version": version, "dirty": dirty})
				}
				fmt.Printf("version: %d dirty: %t\n", version, dirty)
				return nil
			})
		},
	})
	return m
}

func tokensCmd() *cobra.Command {
	t := &cobra.Command{Use: "tokens", Short: "Inspect guardian tokens"}

	var limit int
	list := &cobra.Command{
		Use:   "open",
		Short: "List open guardian tokens in contribution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(ctx context.Context, catalog service.CatalogService) error {
				tokens, err := catalog.ListOpenTokens(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tokens)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Progress", "Last contributor", "Created"})
				for _, tok := range tokens {
					last := ""
					if tok.LastContributorID != nil {
						last = tok.LastContributorID.String()
					}
					tw.AppendRow(table.Row{tok.ID, fmt.Sprintf("%.4f", tok.CurrentProgress), last, tok.CreatedAt.Format(time.RFC3339)})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 100, "max tokens to show")

	var minOpen int
	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create tokens until at least --min are open",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(ctx context.Context, catalog service.CatalogService) error {
				created, err := catalog.EnsureOpenTokens(ctx, minOpen)
				if err != nil {
					return err
				}
				fmt.Printf("created %d token(s)\n", created)
				return nil
			})
		},
	}
	ensure.Flags().IntVar(&minOpen, "min", 1, "minimum number of open tokens")

	t.AddCommand(list, ensure)
	return t
}

func leaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard straight from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				players, err := database.NewPgPlayerRepository(zap.NewNop()).ListLeaderboard(ctx, pool, service.LeaderboardLimit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(players)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"#", "Username", "Tokens", "Rating"})
				for i, p := range players {
					tw.AppendRow(table.Row{i + 1, p.Username, p.GuardianTokensCompleted, fmt.Sprintf("%.2f", p.SkillRating)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func withPool(parent context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, viper.GetDuration("timeout"))
	defer cancel()

	dsn := viper.GetString("database-url")
	if dsn == "" {
		cfg, err := config.LoadConfig(viper.GetString("env-file"))
		if err != nil {
			return err
		}
		dsn = cfg.GetDSN()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("unable to create postgres pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping postgres: %w", err)
	}
	return fn(ctx, pool)
}

func withMigrator(parent context.Context, fn func(ctx context.Context, mg *migration.Migrator) error) error {
	return withPool(parent, func(ctx context.Context, pool *pgxpool.Pool) error {
		logger := sharedLogger.NewZerolog(sharedLogger.Config{Level: "info", Encoding: sharedLogger.EncodingConsole, Service: "guardianctl"}, os.Stderr)
		return fn(ctx, migration.NewMigrator(migration.Config{MigrationsFS: migrations.FS}, pool, logger))
	})
}

func withCatalog(parent context.Context, fn func(ctx context.Context, catalog service.CatalogService) error) error {
	return withPool(parent, func(ctx context.Context, pool *pgxpool.Pool) error {
		logger := zap.NewNop()
		catalog := service.NewCatalogService(pool, database.NewPgTxManager(pool, logger), database.NewPgTrashItemRepository(logger), database.NewPgGuardianTokenRepository(logger), logger)
		return fn(ctx, catalog)
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
