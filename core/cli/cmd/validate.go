package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meterscope/meterscope/core/catalog"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
)

var validateCmd = &cobra.Command{
	Use:           "validate [scenarios-file]",
	Short:         "Validate the configuration and a scenarios file",
	RunE:          runValidate,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logging.New("validate")
	if err := configureLogging(logging.LogLevelInfo); err != nil {
		return err
	}

	if len(args) > 0 {
		if scenariosFile != "" && scenariosFile != args[0] {
			return logging.WithTag("validate", fmt.Errorf("cannot combine path argument with --scenarios"))
		}
		scenariosFile = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Infof("Configuration valid (KWDB %s:%d, port %d)", cfg.Database.Host, cfg.Database.Port, cfg.Server.Port)

	cat, err := catalog.Load(cfg.ScenariosFile)
	if err != nil {
		return logging.WithTag("validate", err)
	}

	if cfg.ScenariosFile == "" {
		log.Successf("Catalog valid: %d built-in scenario(s)", cat.Len())
		return nil
	}
	log.Successf("Catalog valid: %d scenario(s), %d from %s", cat.Len(), cat.Len()-len(catalog.Builtin()), cfg.ScenariosFile)
	return nil
}
