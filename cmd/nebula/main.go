package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ayusman/nebula/internal/app"
	"github.com/ayusman/nebula/internal/audio"
	"github.com/ayusman/nebula/internal/capture"
	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/log"
	"github.com/ayusman/nebula/internal/plugin"
	"github.com/ayusman/nebula/internal/render"
	"github.com/ayusman/nebula/internal/render/window"
	"github.com/ayusman/nebula/internal/server"
	"github.com/ayusman/nebula/internal/shapes"
	"github.com/ayusman/nebula/internal/store"
	"github.com/ayusman/nebula/internal/tray"
)

// Window size of the desktop renderer.
const (
	windowWidth  = 1280
	windowHeight = 720
)

type options struct {
	configPath string
	addr       string
	window     bool
	tray       bool
	noCamera   bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "path to the TOML configuration file")
	pflag.StringVar(&opts.addr, "addr", "", "listen address, overriding the configuration file")
	pflag.BoolVar(&opts.window, "window", false, "open the desktop window renderer")
	pflag.BoolVar(&opts.tray, "tray", false, "show the system tray menu")
	pflag.BoolVar(&opts.noCamera, "no-camera", false, "run without camera tracking")
	pflag.Parse()

	if err := run(opts); err != nil {
		log.Error("nebula stopped", "err", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	file, cfgErr := config.Load(opts.configPath)
	log.Init(file.Server.LogLevel)
	if cfgErr != nil {
		log.Warn("using default configuration", "err", cfgErr)
	}
	srvCfg := file.Server
	if opts.addr != "" {
		srvCfg.Addr = opts.addr
	}
	srvCfg.Window = srvCfg.Window || opts.window
	srvCfg.Tray = srvCfg.Tray || opts.tray

	// Initialize the store
	dataDir, err := dataDir(srvCfg.DataDir)
	if err != nil {
		return err
	}
	st, err := store.New(filepath.Join(dataDir, "nebula.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	// Tuning saved from the settings API wins over the file.
	tuning := file.Tuning
	if saved, err := st.Settings().LoadTuning(); err == nil {
		tuning = saved
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn("ignoring saved tuning", "err", err)
	}
	live := config.NewLive(tuning)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := config.Watch(ctx, opts.configPath, live); err != nil {
			log.Warn("config hot reload disabled", "err", err)
		}
	}()

	plugins := plugin.NewManager(pluginDir(srvCfg.PluginDir))
	if err := plugins.Discover(); err != nil {
		log.Warn("plugin discovery failed", "dir", plugins.PluginDir(), "err", err)
	}
	log.Info("plugins loaded", "dir", plugins.PluginDir(), "count", len(plugins.List()))

	sound := audio.NewController(&audio.Speaker{}, tuning.AudioSmoothing)

	var tracker *app.Tracker
	if !opts.noCamera {
		tracker = app.NewTracker(capture.NewCamera(srvCfg.CameraID), newDetector(tuning), live)
	}

	frames := render.NewBroadcaster(render.DefaultBroadcastFPS)
	latest := &render.Latest{}
	renderers := render.Multi{frames, latest}

	var (
		win  *window.Window
		menu *tray.Tray
	)
	switch {
	case srvCfg.Window:
		win = window.New(windowWidth, windowHeight, nil)
		renderers = append(renderers, win)
	case srvCfg.Tray:
		menu = tray.New()
		renderers = append(renderers, menu)
	}

	engine := app.New(app.Config{
		Live:     live,
		Tracker:  tracker,
		Sampler:  shapes.CachingSampler{Cache: st.Clouds(), Next: plugins},
		Audio:    sound,
		Renderer: renderers,
		Seed:     uint64(time.Now().UnixNano()),
	})
	defer engine.Close()
	if err := engine.Start(); err != nil {
		return err
	}

	cfg := server.Config{
		StaticDir: findWebDir(srvCfg.StaticDir),
		Store:     st,
		Live:      live,
		Engine:    engine,
		Mic:       sound,
		Plugins:   plugins,
		Frames:    frames,
		Status:    latest,
	}
	if tracker != nil {
		cfg.Preview = tracker
		cfg.Tracking = tracker
	}
	if cfg.StaticDir != "" {
		log.Info("serving static files", "dir", cfg.StaticDir)
	}
	srv := server.New(cfg)
	defer srv.Close()

	httpSrv := &http.Server{Addr: srvCfg.Addr, Handler: srv}
	go func() {
		log.Info("starting server", "addr", srvCfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	go func() {
		if err := engine.Run(ctx); err != nil {
			log.Error("frame loop failed", "err", err)
		}
	}()

	// The window and the tray need the main goroutine.
	switch {
	case win != nil:
		win.SetOnCommand(func(cmd string) {
			switch cmd {
			case window.CommandPause:
				go engine.TogglePause(ctx)
			case window.CommandNext:
				go engine.NextShape(ctx)
			case window.CommandQuit:
				stop()
			}
		})
		go func() {
			<-ctx.Done()
			win.Close()
		}()
		if err := win.Run("Nebula"); err != nil {
			log.Error("window closed", "err", err)
		}
		stop()
	case menu != nil:
		menu.OnNext(func() { engine.NextShape(ctx) })
		menu.OnPause(func() { engine.TogglePause(ctx) })
		menu.OnOpen(func() { openBrowser(browserURL(srvCfg.Addr)) })
		menu.OnQuit(stop)
		go func() {
			<-ctx.Done()
			menu.Quit()
		}()
		menu.Run()
		stop()
	default:
		<-ctx.Done()
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newDetector prefers the MediaPipe service and falls back to the mock
// detector, which reports no hands.
func newDetector(tuning config.Config) detector.Detector {
	dc := detector.DefaultConfig()
	dc.ModelComplexity = tuning.ModelComplexity
	mp, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		log.Warn("MediaPipe not available, using mock detector", "err", err)
		return detector.NewMockDetector()
	}
	log.Info("using MediaPipe landmark detection")
	return mp
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "nebula.toml"
	}
	return filepath.Join(homeDir, ".nebula", "nebula.toml")
}

// dataDir returns dir, or ~/.nebula when empty, creating it if needed.
func dataDir(dir string) (string, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".nebula")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// pluginDir returns dir, or the first "plugins" directory found near the
// working directory, or ~/.nebula/plugins.
func pluginDir(dir string) string {
	if dir != "" {
		return dir
	}
	if found := findDir("plugins", ""); found != "" {
		return found
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "plugins"
	}
	return filepath.Join(homeDir, ".nebula", "plugins")
}

// findWebDir returns configured when set, else searches for a web directory.
func findWebDir(configured string) string {
	if configured != "" {
		return configured
	}
	return findDir("web", "web")
}

// findDir searches for name in common locations.
// It checks: name, ../name, ../../name, and ~/.nebula/<home> when home is set.
// Returns the first existing directory or empty string if none found.
func findDir(name, home string) string {
	// Check relative paths from current working directory
	relativePaths := []string{name, filepath.Join("..", name), filepath.Join("..", "..", name)}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	if home == "" {
		return ""
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeDirPath := filepath.Join(homeDir, ".nebula", home)
	if info, err := os.Stat(homeDirPath); err == nil && info.IsDir() {
		return homeDirPath
	}

	return ""
}

func browserURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("open browser", "url", url, "err", err)
	}
}
