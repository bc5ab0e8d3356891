package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type statusPayload struct {
	Cwd         string `json:"cwd"`
	Timestamp   string `json:"timestamp"`
	ConfigPath  string `json:"config_path"`
	HistoryPath string `json:"history_path,omitempty"`
	LogPath     string `json:"log_path,omitempty"`
	UIBackend   string `json:"ui_backend"`
	Timeout     string `json:"timeout"`
}

func newStatusCmd(state *appState) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the starting directory and where vterm keeps its files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := state.app
			payload := statusPayload{
				Cwd:        a.startDir,
				Timestamp:  time.Now().Format("2006-01-02 15:04:05"),
				ConfigPath: a.cfgPath,
				LogPath:    a.logPath,
				UIBackend:  a.cfg.UI.Backend,
				Timeout:    a.dispatcher.Timeout().String(),
			}
			if a.history != nil {
				payload.HistoryPath = a.history.Path()
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}
			fmt.Fprintf(out, "cwd: %s\n", payload.Cwd)
			fmt.Fprintf(out, "time: %s\n", payload.Timestamp)
			fmt.Fprintf(out, "config: %s\n", payload.ConfigPath)
			if payload.HistoryPath != "" {
				fmt.Fprintf(out, "history: %s\n", payload.HistoryPath)
			}
			if payload.LogPath != "" {
				fmt.Fprintf(out, "log: %s\n", payload.LogPath)
			}
			fmt.Fprintf(out, "ui: %s\n", payload.UIBackend)
			_, err := fmt.Fprintf(out, "timeout: %s\n", payload.Timeout)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	return cmd
}
