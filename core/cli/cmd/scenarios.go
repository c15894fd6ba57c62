package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meterscope/meterscope/core/catalog"
	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
)

var scenariosJSON bool

var scenariosCmd = &cobra.Command{
	Use:           "scenarios",
	Short:         "List the query scenarios",
	RunE:          runScenarios,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.Flags().BoolVar(&scenariosJSON, "json", false, "Print the catalog as JSON")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	if err := configureLogging(logging.LogLevelWarn); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.ScenariosFile)
	if err != nil {
		return logging.WithTag("catalog", err)
	}

	if scenariosJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cat.List())
	}
	return printScenarios(cmd.OutOrStdout(), cat.List())
}

func printScenarios(out io.Writer, scenarios []domain.ScenarioSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tDATABASE\tPARAMETERS\tNAME")
	for _, s := range scenarios {
		params := strings.Join(s.Parameters, ",")
		if params == "" {
			params = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Key, s.Database, params, s.Name)
	}
	return w.Flush()
}
