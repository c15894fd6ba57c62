package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/infrastructure/di"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
)

var (
	queryParams   []string
	querySQL      string
	queryDatabase string
)

var queryCmd = &cobra.Command{
	Use:   "query [scenario-key]",
	Short: "Run one scenario or read-only statement and print the result as JSON",
	Example: `  meterscope query meterTrend24h --param meter_id=M1
  meterscope query --sql "SELECT * FROM rdb.meter_info LIMIT 5" --database rdb`,
	RunE:          runQuery,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringArrayVar(&queryParams, "param", nil, "Scenario parameter as name=value, or a positional value with --sql. JSON literals are decoded")
	queryCmd.Flags().StringVar(&querySQL, "sql", "", "Read-only statement to run instead of a scenario")
	queryCmd.Flags().StringVar(&queryDatabase, "database", "", "Target for --sql: rdb, tsdb, mixed or defaultdb (default rdb)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (querySQL == "") {
		return logging.WithTag("query", fmt.Errorf("specify either a scenario key or --sql"))
	}
	if err := configureLogging(logging.LogLevelWarn); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	var result *domain.QueryResult
	if querySQL != "" {
		positional := make([]any, 0, len(queryParams))
		for _, raw := range queryParams {
			positional = append(positional, decodeParamValue(raw))
		}
		result, err = container.Gateway.ExecuteCustom(ctx, querySQL, domain.Database(queryDatabase), positional)
	} else {
		params, perr := parseNamedParams(queryParams)
		if perr != nil {
			return logging.WithTag("query", perr)
		}
		result, err = container.Gateway.ExecuteScenario(ctx, args[0], params)
	}
	if err != nil {
		return logging.WithTag("query", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// parseNamedParams turns name=value pairs into scenario parameters
func parseNamedParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --param %q, expected name=value", pair)
		}
		params[strings.TrimSpace(name)] = decodeParamValue(value)
	}
	return params, nil
}

// decodeParamValue keeps numbers, booleans and JSON literals typed
func decodeParamValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
