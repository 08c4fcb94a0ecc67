// Package cmd provides the combo command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/combo-clustering/pkg/combo"
)

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"resolution":          "algorithm.modularity_resolution",
	"max-communities":     "algorithm.max_communities",
	"split-attempts":      "algorithm.num_split_attempts",
	"fixed-split-step":    "algorithm.fixed_split_step",
	"start-separate":      "algorithm.start_separate",
	"treat-as-modularity": "algorithm.treat_as_modularity",
	"seed":                "algorithm.random_seed",
	"log-level":           "logging.level",
	"verbose":             "logging.verbose",
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "combo",
		Short: "Combo - modularity-maximizing community detection",
		Long: `Combo partitions weighted graphs into communities by greedy split,
reassignment and merge moves that never decrease modularity.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Configuration file (yaml, json or toml)")
	flags.Float64("resolution", 1.0, "Modularity resolution")
	flags.Int("max-communities", combo.Unlimited, "Community ceiling, -1 for no limit")
	flags.Int("split-attempts", 0, "Random split restarts per community")
	flags.Int("fixed-split-step", 0, "Use a fixed split seed every n-th restart, 0 to disable")
	flags.Bool("start-separate", false, "Start from singletons instead of one community")
	flags.Bool("treat-as-modularity", false, "Use the input matrix as the modularity matrix")
	flags.Int64("seed", 0, "Random seed, a fresh one per run when unset")
	flags.String("log-level", "info", "Log level")
	flags.CountP("verbose", "v", "Trace accepted moves (-v) and rounds (-vv)")

	root.AddCommand(newPartitionCmd(), newServeCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the configuration for cmd: defaults, then the --config
// file, then COMBO_* environment variables, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*combo.Config, error) {
	config := combo.NewConfig()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := config.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := config.BindFlag(key, flag); err != nil {
				return nil, err
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
