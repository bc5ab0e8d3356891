package main

import (
	"encoding/json"
	"fmt"

	"github.com/ashwch/vterm/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit settings",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := state.app
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(a.cfg)
			}
			encoded, err := toml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("could not render config: %w", err)
			}
			if _, err := out.Write(encoded); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\n# config: %s\n", a.cfgPath)
			return err
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print settings as JSON")

	get := &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one effective setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := state.app.cfg.Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save one setting to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := state.app
			// Reload so environment and flag overrides never leak into the file.
			fileCfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if err := fileCfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(a.cfgPath, fileCfg); err != nil {
				return err
			}
			value, _ := fileCfg.Get(args[0])
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s=%s\nconfig: %s\n", args[0], value, a.cfgPath)
			return err
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List settable keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, key := range config.Keys() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(show, get, set, keys)
	return cmd
}
