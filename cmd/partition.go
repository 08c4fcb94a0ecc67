package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/combo-clustering/pkg/combo"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func newPartitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partition <graph-file>",
		Short: "Partition a graph file into communities",
		Long: `Partition a Pajek (.net) or edge-list graph file and print one community
label per node together with the achieved modularity.

Examples:
  combo partition karate.net
  combo partition --max-communities 4 --split-attempts 10 graph.txt
  combo partition --format json -o result.json graph.net`,
		Args: cobra.ExactArgs(1),
		RunE: runPartition,
	}

	cmd.Flags().String("intermediate-results", "", "Write a JSON line per accepted move to this file")
	cmd.Flags().StringP("output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().StringP("format", "f", FormatText, "Output format: text, json or yaml")
	return cmd
}

func runPartition(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("unknown output format %q", format)
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.BindFlag("output.intermediate_results_path", cmd.Flags().Lookup("intermediate-results")); err != nil {
		return err
	}

	graph, err := combo.LoadGraph(args[0], config.Resolution(), config.TreatAsModularity())
	if err != nil {
		return err
	}

	algo, err := combo.NewAlgorithm(config)
	if err != nil {
		return err
	}
	result, err := algo.Run(graph)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}
	return writeResult(out, result, format)
}

func writeResult(w io.Writer, result *combo.Result, format string) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(result)
	default:
		fmt.Fprintf(w, "# communities: %d\n", result.NumCommunities)
		fmt.Fprintf(w, "# modularity: %.6f\n", result.Modularity)
		for node, label := range result.Labels {
			if _, err := fmt.Fprintf(w, "%d %d\n", node, label); err != nil {
				return err
			}
		}
		return nil
	}
}
