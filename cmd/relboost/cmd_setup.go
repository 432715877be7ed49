package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"

	"github.com/xh3b4sd/relboost/store"
)

var (
	setupDataset string
	setupSource  string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Materialize a downloaded dataset into its local database",
	Long: `Loads every table of a dataset and the train, val and test label tables of
all its tasks from a local directory into the dataset's database.

Expected layout:
  <source>/<table>.parquet
  <source>/tasks/<task>/<split>.parquet

CSV files are accepted in place of parquet files.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVarP(&setupDataset, "dataset", "d", "", "Dataset name, e.g. rel-f1.")
	setupCmd.Flags().StringVar(&setupSource, "source", "", "Directory holding the downloaded dataset files.")

	_ = setupCmd.MarkFlagRequired("dataset")
	_ = setupCmd.MarkFlagRequired("source")
}

func runSetup(cmd *cobra.Command, args []string) error {
	reg, err := load()
	if err != nil {
		return tracer.Mask(err)
	}

	dat, err := reg.Dataset(setupDataset)
	if err != nil {
		return tracer.Mask(err)
	}

	err = os.MkdirAll(filepath.Dir(dat.Database), 0755)
	if err != nil {
		return tracer.Mask(err)
	}

	sto, err := store.New(store.Config{Log: logger, Pat: dat.Database})
	if err != nil {
		return tracer.Mask(err)
	}
	defer sto.Close()

	logger.Info("setting up dataset",
		zap.String("dataset", dat.Name),
		zap.String("database", dat.Database),
		zap.String("source", setupSource),
	)

	err = sto.Setup(cmd.Context(), dat, setupSource)
	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}
