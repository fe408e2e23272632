package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kyrillus/ClawCRM/internal/config"
	"github.com/Kyrillus/ClawCRM/internal/ingest"
	"github.com/Kyrillus/ClawCRM/internal/llm"
	"github.com/Kyrillus/ClawCRM/internal/resolve"
	"github.com/Kyrillus/ClawCRM/internal/store"
)

var version = "dev"

type rootFlags struct {
	configPath string
	dbPath     string
	verbose    bool
}

// app bundles everything a subcommand needs. Built lazily so commands
// like version never touch the database.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.Store
	provider llm.Provider
	resolver *resolve.Resolver
	pipeline *ingest.Pipeline
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.log != nil {
		a.log.Sync() //nolint:errcheck
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "clawcrm",
		Short:         "Offline-first personal CRM built on meeting notes",
		Long:          "clawcrm ingests free-text meeting notes, extracts who you met and what it was about,\nand keeps people, meetings, and relationship strength in a local SQLite file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.clawcrm/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "database file (overrides config)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newIngestCmd(flags),
		newPeopleCmd(flags),
		newResolveCmd(flags),
		newStatsCmd(flags),
		newMCPCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// openApp resolves config, opens the store, and wires the pipeline.
func openApp(ctx context.Context, flags *rootFlags) (*app, error) {
	// A .env next to the binary is the lowest-friction way to carry an
	// API key; ignore it when absent.
	godotenv.Load() //nolint:errcheck

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}

	log, err := newLogger(flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Sync() //nolint:errcheck
		return nil, err
	}

	provider, err := newProvider(cfg, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	// Owner identity lives in the database too, so resolution keeps
	// excluding the owner even when the config file is absent.
	if cfg.OwnerName != "" {
		if err := st.SetSetting(ctx, "owner_name", cfg.OwnerName); err != nil {
			log.Warn("persist owner name", zap.Error(err))
		}
	} else if stored, err := st.GetSetting(ctx, "owner_name"); err == nil && stored != "" {
		cfg.OwnerName = stored
		cfg.OwnerAliases = append(cfg.OwnerAliases, stored)
	}

	resolver := resolve.NewResolver(cfg.AcceptThreshold, cfg.OwnerAliases)
	pipeline := ingest.New(st, provider, resolver, log)

	log.Debug("app ready",
		zap.String("db", cfg.DBPath),
		zap.String("provider", provider.Name()))

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		provider: provider,
		resolver: resolver,
		pipeline: pipeline,
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zc.Build()
}

func newProvider(cfg *config.Config, log *zap.Logger) (llm.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			EmbedModel: cfg.OpenAIEmbed,
		}, log)
	default:
		return llm.NewOfflineProvider(cfg.EmbeddingDims), nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the clawcrm version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "clawcrm", version)
		},
	}
}
