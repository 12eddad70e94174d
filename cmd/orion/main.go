package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/orion/internal/app"
	"github.com/ayusman/orion/internal/config"
	"github.com/ayusman/orion/internal/logger"
	"github.com/ayusman/orion/internal/plugin"
	"github.com/ayusman/orion/internal/server"
	"github.com/ayusman/orion/internal/store"
	"github.com/ayusman/orion/internal/tray"
	"github.com/ayusman/orion/internal/webhook"
)

func main() {
	configPath := flag.String("config", filepath.Join(config.DataDir(), "config.yaml"), "path to the config file")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	pluginDir := flag.String("plugins", "", "plugin directory, overrides the config file")
	dev := flag.Bool("dev", false, "development logging")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orion: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *pluginDir != "" {
		cfg.Plugins.Dir = *pluginDir
	}
	if *dev {
		cfg.Log.Development = true
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "orion: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatal("failed to create data directory", zap.Error(err))
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	hub := server.NewHub(logger.Named("ws"))

	dispatcher, err := plugin.NewDispatcher(cfg.Plugins, logger.Named("plugin"))
	if err != nil {
		log.Fatal("failed to load plugins", zap.Error(err))
	}
	defer dispatcher.Close()

	actuators := app.Actuators{dispatcher}
	if notifier := webhook.New(cfg.Webhooks, logger.Named("webhook")); notifier != nil {
		actuators = append(actuators, notifier)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			notifier.Close(ctx)
		}()
	}

	application := app.New(app.Config{
		Camera:      cfg.Camera,
		Detector:    cfg.Detector,
		Tracking:    cfg.Tracking,
		Store:       st,
		Broadcaster: hub,
		Actuator:    actuators,
		Logger:      logger.Named("app"),
	})

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info("serving static files", zap.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Tracker:   application,
		Frames:    application,
		Hub:       hub,
		Logger:    logger.Named("server"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing camera leaves the dashboard and history available.
	if err := application.Start(); err != nil {
		log.Error("failed to start pipeline", zap.Error(err))
	}

	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	if cfg.Tray.Enabled && !*noTray {
		t := tray.New(application.Enabled())
		t.OnToggle(application.SetEnabled)
		t.OnReset(application.Reset)
		t.OnDashboard(func() {
			if err := openBrowser(dashboardURL(cfg.Server.Addr)); err != nil {
				log.Warn("failed to open dashboard", zap.Error(err))
			}
		})
		t.OnQuit(stop)
		application.OnOutput(t.SetStatus)

		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	} else {
		<-ctx.Done()
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	application.Stop()
}

// findWebDir searches for the dashboard files in web, ../web, ../../web and
// ~/.orion/web. It returns an empty string when none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
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
