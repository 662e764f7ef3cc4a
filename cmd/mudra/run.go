package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/console"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/lang"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/tray"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start capturing and interpreting signs",
	RunE:  runMudra,
}

func init() {
	runCmd.Flags().String("language", "", "Target language for this session, e.g. es, English, português")
	runCmd.Flags().Bool("no-tray", false, "Do not show the menu bar icon")
	runCmd.Flags().Bool("demo", false, "Use the offline demo interpreter")
	rootCmd.AddCommand(runCmd)
}

func runMudra(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("language"); v != "" {
		cfg.Engine.Language = v
	}
	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		cfg.Interpreter.Provider = interpret.ProviderDemo
	}
	if noTray, _ := cmd.Flags().GetBool("no-tray"); noTray {
		cfg.Tray.Enabled = false
	}

	log, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := ensureStoreDir(cfg); err != nil {
		return err
	}

	var (
		presenters []engine.Presenter
		listeners  []app.Listener
		tr         *tray.Tray
	)
	if cfg.Console.Enabled {
		presenters = append(presenters, console.New(os.Stdout))
	}
	if cfg.Tray.Enabled {
		tr = tray.New(cfg.Engine.Language)
		presenters = append(presenters, tr)
		listeners = append(listeners, tr)
	}

	a, err := app.New(cfg, app.Deps{
		Logger:     log,
		Presenters: presenters,
		Listeners:  listeners,
	})
	if err != nil {
		return err
	}
	defer a.Stop()

	if err := a.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tr == nil {
		<-ctx.Done()
		return nil
	}

	wireTray(tr, a, cfg.Server.Enabled, "http://"+cfg.Server.Addr, stop, log)
	go func() {
		<-ctx.Done()
		tr.Quit()
	}()
	tr.Run()
	return nil
}

// wireTray connects menu actions to the app. Tray.Run must own the main
// goroutine on macOS.
func wireTray(tr *tray.Tray, a *app.App, serverEnabled bool, url string, quit context.CancelFunc, log zerolog.Logger) {
	tr.SetLanguage(a.Status().Language)
	tr.OnPause(func(paused bool) {
		if paused {
			a.Pause()
		} else {
			a.Resume()
		}
	})
	tr.OnLanguage(func(l lang.Language) {
		if err := a.SetLanguage(l); err != nil {
			log.Error().Err(err).Str("language", l.Name).Msg("set language")
		}
	})
	tr.OnOpen(func() {
		if !serverEnabled {
			log.Warn().Msg("http server is disabled, nothing to open")
			return
		}
		if err := openBrowser(url); err != nil {
			log.Error().Err(err).Msg("open browser")
		}
	})
	tr.OnQuit(quit)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
