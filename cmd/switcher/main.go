// Package main provides the entry point for the Codex account switcher.
// It adds ChatGPT accounts through the browser-based OAuth login and lists the
// accounts stored in the auth directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/router-for-me/codex-switcher/internal/buildinfo"
	"github.com/router-for-me/codex-switcher/internal/cmd"
	"github.com/router-for-me/codex-switcher/internal/config"
	"github.com/router-for-me/codex-switcher/internal/logging"
	"github.com/router-for-me/codex-switcher/internal/util"
	log "github.com/sirupsen/logrus"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	var login bool
	var list bool
	var name string
	var noBrowser bool
	var oauthCallbackPort int
	var configPath string
	var debug bool
	var version bool

	flag.BoolVar(&login, "login", false, "Add a ChatGPT account using OAuth")
	flag.BoolVar(&list, "list", false, "List stored accounts")
	flag.StringVar(&name, "name", "", "Display name of the account to add (prompted when empty)")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for OAuth")
	flag.IntVar(&oauthCallbackPort, "oauth-callback-port", 0, "Override OAuth callback port (defaults to 1455)")
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&version, "version", false, "Print version information and exit")
	flag.Parse()

	if version {
		fmt.Printf("Codex Switcher Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return 0
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return 1
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if configPath == "" {
		configPath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return 1
	}
	if debug {
		cfg.Debug = true
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return 1
	}
	util.SetLogLevel(cfg)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case login:
		err = cmd.DoCodexLogin(ctx, cfg, &cmd.LoginOptions{
			AccountName:  name,
			NoBrowser:    noBrowser,
			CallbackPort: oauthCallbackPort,
		})
	case list:
		err = cmd.DoListAccounts(ctx, cfg, os.Stdout)
	default:
		flag.Usage()
		return 2
	}
	if err != nil {
		log.Debugf("command failed: %v", err)
		return 1
	}
	return 0
}
