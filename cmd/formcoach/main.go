package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/formcoach/internal/app"
	"github.com/ayusman/formcoach/internal/config"
	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/server"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
	"github.com/ayusman/formcoach/internal/tray"
)

func main() {
	fmt.Println("FormCoach - Exercise Form Evaluation")

	configPath := flag.String("config", config.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the store
	if err := os.MkdirAll(config.DataDir(), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:         st,
		PluginDir:     cfg.PluginDir,
		CameraID:      cfg.CameraID,
		Exercise:      cfg.Exercise,
		MinConfidence: cfg.MinConfidence,
	})

	if err := a.LoadActiveExercise(); err != nil {
		log.Printf("Failed to restore exercise selection: %v", err)
	}
	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Failed to discover feedback plugins: %v", err)
	} else {
		log.Printf("Discovered %d feedback plugins", len(a.PluginManager().List()))
	}

	// Find web directory
	webDir := findWebDir(cfg.WebDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	serverCfg := server.Config{
		StaticDir: webDir,
		Store:     st,
		Sessions:  session.NewManager(),
		Live:      a,
	}

	// Start the coaching pipeline. Without a camera the session API
	// still serves recorded frames, so this is not fatal.
	if err := a.Start(); err != nil {
		log.Printf("Camera unavailable: %v", err)
	} else {
		serverCfg.Camera = a.Camera()
		a.SetEnabled(true)
	}

	srv := server.New(serverCfg)

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	tr := tray.New(exercise.Names(), a.Exercise())
	tr.OnToggle(a.SetEnabled)
	tr.OnExercise(func(name string) {
		if err := a.SetExercise(name); err != nil {
			log.Printf("Failed to switch exercise: %v", err)
		}
	})
	tr.OnDashboard(func() {
		openBrowser(dashboardURL(cfg.ListenAddr))
	})

	// Ctrl-C quits the same way the menu item does
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		tr.Quit()
	}()

	// Blocks until the tray quits
	tr.Run()

	a.Stop()
}

// findWebDir searches for the web directory. An explicit configured
// path wins; otherwise it checks "web", "../web", "../../web", and
// ~/.formcoach/web. Returns the first existing directory or empty
// string if none found.
func findWebDir(configured string) string {
	if configured != "" {
		if info, err := os.Stat(configured); err == nil && info.IsDir() {
			return configured
		}
		log.Printf("Configured web_dir %s not found", configured)
	}

	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
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

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL with the platform's default browser.
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
		log.Printf("Failed to open dashboard: %v", err)
	}
}
