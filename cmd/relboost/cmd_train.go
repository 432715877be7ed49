package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/relboost/booster"
	"github.com/xh3b4sd/relboost/pipeline"
	"github.com/xh3b4sd/relboost/store"
)

var (
	trainBooster   string
	trainDataset   string
	trainDropCols  []string
	trainGenerate  bool
	trainPython    string
	trainSubsample int
	trainTask      string
	trainTrials    int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Tune a GBDT on a task and evaluate it on val and test",
	Long: `Loads the feature tables of a task, optionally generating them first from
the task's feats.sql, tunes a LightGBM or XGBoost model on the train split and
reports the task metrics of its val and test predictions.

Example:
  relboost train -d rel-f1 -t driver-dnf --generate-feats -b xgb`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&trainBooster, "booster", "b", booster.LightGBM, `One of "lgbm" or "xgb".`)
	trainCmd.Flags().StringVarP(&trainDataset, "dataset", "d", "", "Dataset name, e.g. rel-f1.")
	trainCmd.Flags().StringSliceVar(&trainDropCols, "drop-cols", nil, "Feature columns to leave out of training.")
	trainCmd.Flags().BoolVar(&trainGenerate, "generate-feats", false, "Generate the feature tables from the task's feats.sql first.")
	trainCmd.Flags().StringVar(&trainPython, "python", "python3", "Python interpreter running the training script.")
	trainCmd.Flags().IntVarP(&trainSubsample, "subsample", "s", 0, "Train on this many train rows only. With --generate-feats the feature template applies the restriction.")
	trainCmd.Flags().StringVarP(&trainTask, "task", "t", "", "Task name, e.g. driver-dnf.")
	trainCmd.Flags().IntVar(&trainTrials, "trials", 10, "Number of hyperparameter tuning trials.")

	_ = trainCmd.MarkFlagRequired("dataset")
	_ = trainCmd.MarkFlagRequired("task")
}

func runTrain(cmd *cobra.Command, args []string) error {
	if trainBooster != booster.LightGBM && trainBooster != booster.XGBoost {
		return tracer.Maskf(invalidFlagError, "--booster must be one of %q or %q, got %q", booster.LightGBM, booster.XGBoost, trainBooster)
	}

	reg, err := load()
	if err != nil {
		return tracer.Mask(err)
	}

	dat, err := reg.Dataset(trainDataset)
	if err != nil {
		return tracer.Mask(err)
	}

	tas, err := reg.Task(trainDataset, trainTask)
	if err != nil {
		return tracer.Mask(err)
	}

	var tem string
	if trainGenerate {
		byt, err := os.ReadFile(tas.Template())
		if err != nil {
			return tracer.Mask(err)
		}

		tem = string(byt)
	}

	sto, err := store.New(store.Config{Log: logger, Pat: dat.Database})
	if err != nil {
		return tracer.Mask(err)
	}
	defer sto.Close()

	boo := &booster.Booster{
		Boo: trainBooster,
		Deb: debug,
		Dro: trainDropCols,
		Ide: tas.Identifiers,
		Log: logger,
		Met: tas.Metric,
		Pat: filepath.Join(tas.Dir, trainBooster),
		Pyt: trainPython,
		Tar: tas.Target,
		Tri: trainTrials,
		Typ: tas.Type,
	}

	p := &pipeline.Pipeline{
		Boo: boo,
		Gen: trainGenerate,
		Log: logger,
		Met: pipeline.NewMetrics(metrics),
		Sto: sto,
		Sub: trainSubsample,
		Tas: tas,
		Tem: tem,
	}

	res, err := p.Run(cmd.Context())
	if err != nil {
		return tracer.Mask(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Val: %s\n", format(res.Val))
	fmt.Fprintf(cmd.OutOrStdout(), "Test: %s\n", format(res.Tes))

	return nil
}

func format(met map[string]float64) string {
	var key []string
	for k := range met {
		key = append(key, k)
	}

	sort.Strings(key)

	var out string
	for i, k := range key {
		if i != 0 {
			out += " "
		}

		out += fmt.Sprintf("%s=%.4f", k, met[k])
	}

	return out
}
