package main

import (
	"github.com/ahmetcoskunkizilkaya/questlog/internal/catalog"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the game and quest catalog into the store",
	Long: `Seed upserts every game and quest from a catalog file (YAML, TOML or
JSON) in one transaction. Running it twice is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if seedFile == "" {
			seedFile = cfg.CatalogPath
		}

		file, err := catalog.LoadFromFile(seedFile)
		if err != nil {
			return err
		}

		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		return catalog.Seed(cmd.Context(), b.store, file)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog file (defaults to CATALOG_PATH)")
}
