package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/patrislav/bspgo/internal/config"
	"github.com/patrislav/bspgo/internal/logger"
	"github.com/patrislav/bspgo/internal/wm"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the X server and manage it",
	Long: `run claims the window-manager role on the X server named by the
DISPLAY environment variable, loads the bspgo configuration (seeding a
default one on first run), and drives the event loop until SIGINT/SIGTERM
or a bound quit command stops it.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger.Init(logLevel, pretty)
	log := logger.WithComponent("main")

	path, err := resolveConfigPath()
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := config.WriteTemplate(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	v, cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Info().Str("path", path).Msg("configuration loaded")

	mgr, err := wm.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to X server: %w", err)
	}
	defer mgr.Close()

	config.Watch(v, func(cfg config.Config) {
		log.Info().Str("path", path).Msg("configuration changed on disk")
		mgr.RequestReload(cfg)
	})

	if err := mgr.Init(); err != nil {
		return fmt.Errorf("initialize window manager: %w", err)
	}
	log.Info().Int("monitors", len(mgr.Monitors)).Msg("window manager ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("received shutdown signal")
		os.Exit(0)
	}()

	for _, line := range cfg.Exec {
		c := exec.Command("sh", "-c", line)
		if err := c.Start(); err != nil {
			log.Warn().Err(err).Str("cmd", line).Msg("autostart failed")
			continue
		}
		go func(c *exec.Cmd) { _ = c.Wait() }(c)
	}

	return mgr.Run()
}
