package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
)

// version stores the version string, set via SetVersion()
var version = "dev"

// SetVersion sets the version string (called from main.init())
func SetVersion(v string) {
	version = v
}

// GetVersion returns the current version string
func GetVersion() string {
	return version
}

var (
	envDir        string
	port          int
	scenariosFile string
	staticDir     string
	logLevel      int
	verbose       bool
	logTags       string
	logFile       bool
	showVersion   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "meterscope",
	Short:         "Meterscope\nSmart meter query API over KWDB",
	SilenceUsage:  true,
	SilenceErrors: true, // Errors are already logged, suppress Cobra's error output
}

// completionCmd is a hidden command that generates shell completions
var completionCmd = &cobra.Command{
	Use:          "completion [bash|zsh|fish|powershell]",
	Short:        "Generate shell completion script",
	Hidden:       true,
	ValidArgs:    []string{"bash", "zsh", "fish", "powershell"},
	Args:         cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletion(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(completionCmd)
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print the installed version and exit")

	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", "", "Directory searched first for .env.local, .env.development and .env")
	rootCmd.PersistentFlags().StringVar(&scenariosFile, "scenarios", "", "YAML file with extra scenarios (overrides SCENARIOS_FILE)")
	rootCmd.PersistentFlags().IntVar(&logLevel, "log-level", 0, "Log level: 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging (sets log level to DEBUG)")
	rootCmd.PersistentFlags().StringVar(&logTags, "log-tags", "", "Filter logs by tags (comma-separated, use -tag to exclude). Overrides METERSCOPE_LOG_TAGS env var")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Tee logs to a file under the temp directory")

	// Root command should only print help.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}
		return cmd.Help()
	}
}

// addServerFlags registers the listener flags shared by serve and dev
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Server port (overrides PORT env var)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Serve a built client bundle from this directory (overrides STATIC_DIR)")
}

// configureLogging applies the logging flags. Flags win over the
// environment.
func configureLogging(defaultLevel int) error {
	log := logging.New("main")

	switch {
	case verbose:
		logging.SetLogLevel(logging.LogLevelDebug)
	case logLevel > 0:
		logging.SetLogLevel(logLevel)
	default:
		logging.SetLogLevel(defaultLevel)
	}

	tagFilterStr := logTags
	if tagFilterStr == "" {
		tagFilterStr = os.Getenv("METERSCOPE_LOG_TAGS")
	}
	if tagFilterStr != "" {
		logging.SetTagFilter(tagFilterStr)
	}

	if logFile {
		filePath, err := logging.SetLogFile("")
		if err != nil {
			return logging.WithTag("main", fmt.Errorf("failed to initialize log file: %w", err))
		}
		log.Infof("Log file: %s", filePath)
	}
	return nil
}

// loadConfig resolves configuration from .env files, the environment and
// command-line flags, in increasing priority.
func loadConfig() (config.Config, error) {
	log := logging.New("config")

	if loaded := config.LoadEnvFiles(envDir); loaded != "" {
		log.Debugf("Loaded environment from %s", loaded)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, logging.WithTag("config", err)
	}

	if port > 0 {
		cfg.Server.Port = port
	}
	if scenariosFile != "" {
		cfg.ScenariosFile = scenariosFile
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, logging.WithTag("config", err)
	}
	return cfg, nil
}
