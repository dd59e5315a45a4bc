package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/hpsweep/internal/experiment"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/config"
)

func newGridCmd() *cobra.Command {
	var configPath string
	var model string
	var showConfig bool

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print every combination each model would evaluate",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := config.LoadExperiment(configPath)
			if err != nil {
				return err
			}
			if model != "" {
				if _, ok := exp.Model(model); !ok {
					return fmt.Errorf("unknown model: %s", model)
				}
			}

			w := cmd.OutOrStdout()
			if showConfig {
				out, err := config.MarshalExperimentYAML(exp)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "# resolved experiment")
				fmt.Fprint(w, out)
				fmt.Fprintln(w)
			}
			seed := exp.SeedOrDefault()
			for i := range exp.Models {
				m := &exp.Models[i]
				if model != "" && m.Name != model {
					continue
				}
				combos, err := experiment.Combinations(m, seed)
				if err != nil {
					return fmt.Errorf("model %s: %w", m.Name, err)
				}
				fmt.Fprintf(w, "%s (%s, %s search, %d combinations)\n", m.Name, m.Family, m.Search, len(combos))
				for j, c := range combos {
					fmt.Fprintf(w, "  %3d %s\n", j, c)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "experiment YAML file")
	cmd.Flags().StringVarP(&model, "model", "m", "", "only print this model")
	cmd.Flags().BoolVar(&showConfig, "show-config", false, "print the experiment with defaults applied before the grid")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
