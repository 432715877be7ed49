package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/relboost"
	"github.com/xh3b4sd/relboost/registry"
	"github.com/xh3b4sd/relboost/store"
	"github.com/xh3b4sd/relboost/summary"
)

var (
	summaryDataset string
	summarySplit   string
	summaryTask    string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Rank the generated features of a task by their relation to the target",
	Long: `Reads a generated feature table and prints, for every numeric feature, its
Pearson correlation and mutual information with the task target as well as its
share of missing values. Features are sorted by mutual information.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryDataset, "dataset", "d", "", "Dataset name, e.g. rel-f1.")
	summaryCmd.Flags().StringVar(&summarySplit, "split", relboost.Train, "Split whose feature table is summarized.")
	summaryCmd.Flags().StringVarP(&summaryTask, "task", "t", "", "Task name, e.g. driver-dnf.")

	_ = summaryCmd.MarkFlagRequired("dataset")
	_ = summaryCmd.MarkFlagRequired("task")
}

func runSummary(cmd *cobra.Command, args []string) error {
	reg, err := load()
	if err != nil {
		return tracer.Mask(err)
	}

	dat, err := reg.Dataset(summaryDataset)
	if err != nil {
		return tracer.Mask(err)
	}

	tas, err := reg.Task(summaryDataset, summaryTask)
	if err != nil {
		return tracer.Mask(err)
	}

	sto, err := store.New(store.Config{Log: logger, Pat: dat.Database})
	if err != nil {
		return tracer.Mask(err)
	}
	defer sto.Close()

	tab, err := sto.Table(cmd.Context(), tas.Features(summarySplit))
	if err != nil {
		return tracer.Mask(err)
	}

	fea, err := summary.Summarize(tab.Drop(tas.Identifiers...), tas.Target, tas.Type == registry.BinaryClassification)
	if err != nil {
		return tracer.Mask(err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "feature\tcorrelation\tmutual_info\tnan_share")
	for _, f := range fea {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\n", f.Name, f.Cor, f.Mut, f.Nan)
	}

	err = w.Flush()
	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}
