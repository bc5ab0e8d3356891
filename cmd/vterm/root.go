package main

import (
	"github.com/ashwch/vterm/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const logToStderr = "log-stderr"

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	state := &appState{viper: v}

	rootCmd := &cobra.Command{
		Use:   "vterm",
		Short: "Session-scoped virtual shell that understands plain words",
		Long: "vterm accepts shell commands or loose phrases like \"go to projects\" or " +
			"\"create folder reports\", normalizes them into canonical commands and runs " +
			"them against a per-session working directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return state.load(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			state.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, state.app)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to config file (default: user config dir)")
	flags.String("dir", "", "starting working directory")
	flags.Float64("timeout", 0, "passthrough timeout in seconds")
	flags.String("shell", "", "shell program for passthrough commands")
	flags.String("ui", "", "ui backend: auto, bubbletea, huh, tview, plain")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	bindFlag(v, rootCmd, "shell.start_dir", "dir")
	bindFlag(v, rootCmd, "shell.timeout_seconds", "timeout")
	bindFlag(v, rootCmd, "shell.program", "shell")
	bindFlag(v, rootCmd, "ui.backend", "ui")
	bindFlag(v, rootCmd, "log.level", "log-level")

	rootCmd.AddCommand(
		newVersionCmd(),
		newREPLCmd(state),
		newRunCmd(state),
		newNormalizeCmd(),
		newServeCmd(state, v),
		newStatusCmd(state),
		newConfigCmd(state),
		newHistoryCmd(state),
	)
	return rootCmd
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key string, flag string) {
	if f := cmd.PersistentFlags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
		return
	}
	_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
}
