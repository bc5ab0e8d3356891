package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwch/vterm/internal/appdirs"
	"github.com/ashwch/vterm/internal/config"
	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/history"
	"github.com/ashwch/vterm/internal/logging"
	"github.com/ashwch/vterm/internal/runtime"
	"github.com/ashwch/vterm/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app is everything a subcommand needs, built once per invocation.
type app struct {
	cfg        config.Config
	cfgPath    string
	logPath    string
	startDir   string
	logger     *zap.Logger
	history    *history.Store
	dispatcher *dispatch.Dispatcher
}

type appState struct {
	viper *viper.Viper
	app   *app
}

func (s *appState) load(cmd *cobra.Command) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, cfgPath, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(s.viper); err != nil {
		return err
	}

	logOpts := logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON}
	logPath := ""
	if cmd.Annotations[logToStderr] == "" {
		logPath, err = appdirs.LogFilePath()
		if err != nil {
			return err
		}
		logOpts.Path = logPath
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return err
	}

	startDir, err := resolveStartDir(cfg.Shell.StartDir)
	if err != nil {
		_ = logger.Sync()
		return err
	}

	var store *history.Store
	if cfg.History.Enabled {
		path, err := appdirs.HistoryFilePath()
		if err != nil {
			_ = logger.Sync()
			return err
		}
		store = history.NewStore(path, cfg.History.MaxEntries, cfg.Safety.RedactHistory)
	}

	s.app = &app{
		cfg:      cfg,
		cfgPath:  cfgPath,
		logPath:  logPath,
		startDir: startDir,
		logger:   logger,
		history:  store,
		dispatcher: dispatch.New(
			dispatch.WithExecutor(runtime.NewShellExecutor(cfg.Shell.Program)),
			dispatch.WithTimeout(cfg.Timeout()),
			dispatch.WithLogger(logger),
		),
	}
	logger.Debug("loaded config", zap.String("path", cfgPath), zap.String("command", cmd.Name()))
	return nil
}

func (s *appState) close() {
	if s.app != nil && s.app.logger != nil {
		_ = s.app.logger.Sync()
	}
}

func loadConfig(path string) (config.Config, string, error) {
	if path = strings.TrimSpace(path); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.LoadOrCreate()
}

func resolveStartDir(configured string) (string, error) {
	dir := strings.TrimSpace(configured)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not resolve working directory: %w", err)
		}
		return wd, nil
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid start directory %q: %w", configured, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("start directory is not a directory: %s", abs)
	}
	return abs, nil
}

// newSession starts a local session that records into history when enabled.
func (a *app) newSession() *session.Session {
	var recorder session.Recorder
	if a.history != nil {
		recorder = a.history
	}
	return session.New(uuid.NewString(), a.startDir, a.dispatcher, recorder)
}
