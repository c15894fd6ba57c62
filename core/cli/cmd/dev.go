package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/meterscope/meterscope/core/catalog"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
)

const devDebounce = 500 * time.Millisecond

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the server in development mode",
	Long:  `Run the Meterscope server and restart it when the scenarios file changes.`,
	RunE:  runDevServer,
	Args:  cobra.NoArgs,
}

func init() {
	rootCmd.AddCommand(devCmd)
	addServerFlags(devCmd)
}

func runDevServer(cmd *cobra.Command, args []string) error {
	log := logging.New("dev")

	if err := configureLogging(logging.LogLevelDebug); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ScenariosFile == "" {
		return logging.WithTag("dev", fmt.Errorf("dev mode needs a scenarios file to watch (--scenarios or SCENARIOS_FILE)"))
	}

	target, err := filepath.Abs(cfg.ScenariosFile)
	if err != nil {
		return logging.WithTag("dev", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return logging.WithTag("dev", err)
	}
	defer watcher.Close()

	// Editors often replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return logging.WithTag("dev", err)
	}

	restart := make(chan struct{}, 1)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go watchFile(watcher, target, restart)

	log.Infof("Watching %s for changes...", target)

	for {
		rt, err := prepareRuntime(cmd.Context())
		if err != nil {
			log.Errorf("Startup failed, waiting for the next change: %v", err)
			select {
			case <-sigChan:
				return nil
			case <-restart:
				continue
			}
		}

		if err := rt.StartAsync(); err != nil {
			_ = rt.Stop()
			return err
		}

		select {
		case <-sigChan:
			return rt.Stop()
		case <-restart:
			log.Infof("Scenarios changed, restarting...")
			if err := rt.Stop(); err != nil {
				log.Warnf("Errors during restart: %v", err)
			}
		}
	}
}

// watchFile signals restart when target changes and still parses. Bursts
// of events are coalesced.
func watchFile(watcher *fsnotify.Watcher, target string, restart chan<- struct{}) {
	log := logging.New("dev")
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(devDebounce, func() {
				if _, err := catalog.Load(target); err != nil {
					log.Errorf("Ignoring change, scenarios file is invalid: %v", err)
					return
				}
				select {
				case restart <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}
