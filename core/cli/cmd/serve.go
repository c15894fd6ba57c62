package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/meterscope/meterscope/core/infrastructure/logging"
	"github.com/meterscope/meterscope/core/runtime"
)

var serveCmd = &cobra.Command{
	Use:           "serve",
	Short:         "Run the Meterscope API server",
	RunE:          runServe,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServerFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := prepareRuntime(cmd.Context())
	if err != nil {
		return err
	}
	return rt.Start()
}

// prepareRuntime configures logging, resolves config and builds a runtime
func prepareRuntime(ctx context.Context) (*runtime.Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := configureLogging(logging.LogLevelInfo); err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logging.New("main")
	log.Infof("Connecting to KWDB at %s:%d", cfg.Database.Host, cfg.Database.Port)

	rt, err := runtime.NewRuntime(ctx, cfg, runtime.WithVersion(GetVersion()))
	if err != nil {
		return nil, err
	}
	log.Infof("Runtime initialized")
	return rt, nil
}
