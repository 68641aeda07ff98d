package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"golang-physiobackend/config"
	"golang-physiobackend/database"
	"golang-physiobackend/logger"
)

var (
	envFile string
	cfg     *config.Config
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "physio",
	Short:         "Physiotherapy clinic backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		var err error
		cfg, err = config.Load(files...)
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: .env when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (database.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := database.Open(ctx, database.Options{
		Driver:        cfg.DBDriver,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		PostgresDSN:   cfg.DatabaseURL,
	})
	if err != nil {
		return nil, err
	}
	log.Info("store ready", zap.String("driver", cfg.DBDriver))
	return store, nil
}

// openCache returns nil when REDIS_ADDR is unset.
func openCache(ctx context.Context) (*database.RedisExerciseCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	log.Info("exercise cache ready", zap.String("addr", cfg.RedisAddr))
	return database.NewRedisExerciseCache(rdb, cfg.CatalogTTL, log.Named("cache")), nil
}
