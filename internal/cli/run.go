package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/hpsweep/internal/experiment"
	"github.com/GoSim-25-26J-441/hpsweep/internal/store"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/config"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every model sweep of an experiment and report the winners",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := config.LoadExperiment(configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if exp.LogLevel != "" && !cmd.Flags().Changed("log-level") {
				format, _ := cmd.Flags().GetString("log-format")
				ctx = logger.WithContext(ctx, logger.NewWithFormat(exp.LogLevel, format, cmd.ErrOrStderr()))
			}

			baseDir := filepath.Dir(configPath)
			opts := []experiment.Option{experiment.WithBaseDir(baseDir)}
			historyPath := dbPath
			if historyPath == "" && exp.Output != nil && exp.Output.DBPath != "" {
				historyPath = exp.Output.DBPath
				if !filepath.IsAbs(historyPath) {
					historyPath = filepath.Join(baseDir, historyPath)
				}
			}
			if historyPath != "" {
				history, err := store.Open(historyPath)
				if err != nil {
					return err
				}
				defer history.Close()
				opts = append(opts, experiment.WithRecorder(history))
			}

			report, err := experiment.NewRunner(opts...).Run(ctx, exp)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "experiment YAML file")
	cmd.Flags().StringVar(&dbPath, "db", "", "record the sweep in this history database (overrides output.db_path)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func printReport(w io.Writer, r *experiment.Report) {
	fmt.Fprintf(w, "sweep %s (%s): %d rows, %d features, train/validation/test %d/%d/%d, %s\n",
		r.SweepID, r.Experiment, r.Rows, len(r.Features),
		r.TrainRows, r.ValidationRows, r.TestRows, utils.FormatDuration(r.Duration))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tOBJECTIVE\tTRIALS\tBEST SCORE\tTRAIN ACC/AUC\tVALID ACC/AUC\tTEST ACC/AUC\tBEST PARAMS")
	for _, s := range r.Summaries(false) {
		if !s.Found {
			fmt.Fprintf(tw, "%s\t%s\t%d\tno winner\t-\t-\t-\t-\n", s.Model, s.Objective, s.Evaluations)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%s\t%s\t%s\t%s\n",
			s.Model, s.Objective, s.Evaluations, s.BestScore,
			splitCell(s.Train), splitCell(s.Validation), splitCell(s.Test),
			formatParams(s.BestParams))
	}
	tw.Flush()

	if r.SubmissionPath != "" {
		fmt.Fprintf(w, "submission written to %s\n", r.SubmissionPath)
	}
}

func splitCell(m *models.SplitMetrics) string {
	if m == nil {
		return "-"
	}
	if m.AUC == nil {
		return fmt.Sprintf("%.4f/-", m.Accuracy)
	}
	return fmt.Sprintf("%.4f/%.4f", m.Accuracy, *m.AUC)
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
