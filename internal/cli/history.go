package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/hpsweep/internal/store"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int
	var sweepID string
	var model string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sweeps, or the trials of one model of a sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer history.Close()

			if sweepID != "" {
				if model == "" {
					return fmt.Errorf("--model is required with --sweep")
				}
				return printTrials(cmd, history, sweepID, model)
			}

			sweeps, err := history.ListSweeps(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SWEEP\tEXPERIMENT\tSTARTED\tDURATION\tMODEL\tBEST SCORE")
			for _, sw := range sweeps {
				started := sw.StartedAt.UTC().Format("2006-01-02 15:04:05")
				if len(sw.Models) == 0 {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t-\t-\n", sw.ID, sw.Experiment, started, utils.FormatDuration(sw.Duration))
				}
				for _, m := range sw.Models {
					score := "no winner"
					if m.Found {
						score = fmt.Sprintf("%.4f", m.BestScore)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", sw.ID, sw.Experiment, started, utils.FormatDuration(sw.Duration), m.Model, score)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "history database")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of sweeps to list (0 for all)")
	cmd.Flags().StringVar(&sweepID, "sweep", "", "show trials of this sweep")
	cmd.Flags().StringVar(&model, "model", "", "model whose trials to show")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func printTrials(cmd *cobra.Command, history *store.Store, sweepID, model string) error {
	if _, err := history.Sweep(cmd.Context(), sweepID); err != nil {
		return err
	}
	trials, err := history.Trials(cmd.Context(), sweepID, model)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIAL\tSCORE\tIMPROVED\tPARAMS")
	for _, t := range trials {
		mark := ""
		if t.Improved {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\n", t.Index, t.Score, mark, formatParams(t.Params))
	}
	return tw.Flush()
}
