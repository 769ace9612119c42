package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ayusman/yubimoji/internal/app"
	"github.com/ayusman/yubimoji/internal/capture"
	"github.com/ayusman/yubimoji/internal/classifier"
	"github.com/ayusman/yubimoji/internal/config"
	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/plugin"
	"github.com/ayusman/yubimoji/internal/server"
	"github.com/ayusman/yubimoji/internal/speech"
	"github.com/ayusman/yubimoji/internal/store"
	"github.com/ayusman/yubimoji/internal/tray"
)

type serveOptions struct {
	bind     string
	tray     bool
	noCamera bool
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recognition pipeline and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bind, "bind", "", "Listen address (overrides server.bind)")
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "Show a system tray menu")
	cmd.Flags().BoolVar(&opts.noCamera, "no-camera", false, "Disable the local camera pipeline")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, opts serveOptions) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := ctx.logger()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another yubimoji server instance is already running")
	}
	defer lock.Unlock()

	st, err := openDictionaryStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	dict, err := st.Words().Dictionary()
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	logger.Info("dictionary loaded", "words", dict.Len())

	client, err := classifier.New(cfg.Classifier.BaseURL, classifier.WithTimeout(cfg.Classifier.Timeout()))
	if err != nil {
		return err
	}

	appConfig := app.Config{
		Predictor:         client,
		Dictionary:        dict,
		RequestsPerSecond: cfg.Classifier.RequestsPerSecond,
		Threshold:         cfg.Classifier.Threshold,
		Logger:            logger,
	}

	if cfg.Camera.Enabled && !opts.noCamera {
		det, err := detector.NewMediaPipeDetector(detector.Config{
			MaxHands:               cfg.Detector.MaxHands,
			MinDetectionConfidence: cfg.Detector.MinConfidence,
			MinTrackingConfidence:  cfg.Detector.MinTrackingConfidence,
			ScriptPath:             cfg.Detector.ScriptPath,
		}, logger)
		if err != nil {
			logger.Warn("hand detector unavailable; camera pipeline disabled", "error", err)
		} else {
			appConfig.Detector = det
			camCfg := capture.DefaultConfig()
			camCfg.DeviceID = cfg.Camera.DeviceID
			camCfg.FPS = cfg.Camera.FPS
			appConfig.Camera = capture.NewCamera(camCfg)
		}
	}

	if cfg.Speech.Enabled {
		speaker, err := speech.NewCommandSpeaker(speech.Config{
			Command: cfg.Speech.Command,
			Args:    cfg.Speech.Args,
			Timeout: cfg.Speech.Timeout(),
		}, logger)
		if err != nil {
			logger.Warn("speech disabled", "error", err)
		} else {
			defer speaker.Close()
			appConfig.Speaker = speaker
			appConfig.SpeakWords = cfg.Speech.SpeakWords
		}
	}

	a, err := app.New(appConfig)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("app close", "error", err)
		}
	}()

	if cfg.Plugins.Enabled {
		manager := plugin.NewManager(cfg.Plugins.Dir, logger)
		if err := manager.Discover(); err != nil {
			logger.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
		} else {
			dispatcher := plugin.NewDispatcher(manager, plugin.NewExecutor(cfg.Plugins.Timeout()), logger)
			a.AddObserver(dispatcher)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Plugins.Timeout())
				defer cancel()
				if err := dispatcher.Close(shutdownCtx); err != nil {
					logger.Warn("plugin dispatcher close", "error", err)
				}
			}()
		}
	}

	if a.HasCamera() {
		a.SetEnabled(true)
		if err := a.Start(); err != nil {
			logger.Warn("camera pipeline failed to start", "error", err)
		}
	}

	bind := cfg.Server.Bind
	if strings.TrimSpace(opts.bind) != "" {
		bind = opts.bind
	}
	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg)
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		App:       a,
		Logger:    logger,
	})

	if !opts.tray {
		return srv.Run(signalCtx, bind)
	}
	return runWithTray(signalCtx, cancel, srv, a, bind, logger)
}

// runWithTray blocks in the tray loop on the calling goroutine while the
// server runs in the background.
func runWithTray(ctx context.Context, cancel context.CancelFunc, srv *server.Server, a *app.App, bind string, logger *slog.Logger) error {
	t := tray.New()
	a.AddObserver(t)
	t.OnToggle(a.SetEnabled)
	t.OnReset(a.Session().Reset)
	t.OnOpen(func() {
		if err := openBrowser(browserURL(bind)); err != nil {
			logger.Warn("failed to open browser", "error", err)
		}
	})
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, bind)
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

func openDictionaryStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	count, err := st.Words().Count()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("count words: %w", err)
	}
	if count == 0 {
		added, err := st.Words().SeedDefaults()
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("seed dictionary: %w", err)
		}
		logger.Info("seeded empty dictionary", "words", added)
	}
	return st, nil
}

func browserURL(bind string) string {
	host := bind
	if strings.HasPrefix(host, ":") || strings.HasPrefix(host, "0.0.0.0:") {
		host = "localhost" + host[strings.Index(host, ":"):]
	}
	return "http://" + host + "/"
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

// findWebDir searches for the web UI in the working directory and its
// parents, then in the data directory.
func findWebDir(cfg *config.Config) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWeb := filepath.Join(cfg.Paths.DataDir, "web")
	if info, err := os.Stat(dataWeb); err == nil && info.IsDir() {
		return dataWeb
	}
	return ""
}
