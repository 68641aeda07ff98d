package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"golang-physiobackend/models"
	"golang-physiobackend/services"
)

var seedFile string

type catalogFile struct {
	Exercises []models.Exercise `yaml:"ejercicios"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the exercise catalog from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		exercises, err := readCatalog(seedFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		deps := services.Deps{Store: store, Log: log}
		cache, err := openCache(ctx)
		if err != nil {
			log.Warn("exercise cache unavailable; it will expire on its own", zap.Error(err))
		} else if cache != nil {
			defer cache.Close()
			deps.Cache = cache
		}

		n, err := services.New(deps).Exercises.Seed(ctx, exercises)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d exercises from %s\n", n, seedFile)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "exercises.yaml", "YAML catalog to load")
}

func readCatalog(path string) ([]models.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(catalog.Exercises) == 0 {
		return nil, fmt.Errorf("%s contains no exercises", path)
	}
	return catalog.Exercises, nil
}
