package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/yubimoji/internal/plugin"
)

func newPluginsCommand(ctx *commandContext) *cobra.Command {
	pluginsCmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect output plugins",
	}
	pluginsCmd.AddCommand(newPluginsListCommand(ctx))
	return pluginsCmd
}

func newPluginsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plugins found in the plugin directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			manager := plugin.NewManager(cfg.Plugins.Dir, nil)
			if err := manager.Discover(); err != nil {
				return fmt.Errorf("discover plugins: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plugin directory: %s (enabled: %s)\n", cfg.Plugins.Dir, yesNo(cfg.Plugins.Enabled))
			plugins := manager.List()
			if len(plugins) == 0 {
				fmt.Fprintln(out, "No plugins found")
				return nil
			}

			tbl := newTable("Name", "Version", "Events", "Description")
			for _, p := range plugins {
				events := strings.Join(p.Manifest.Events, ", ")
				if events == "" {
					events = plugin.EventWord
				}
				tbl.row(p.Manifest.Name, p.Manifest.Version, events, p.Manifest.Description)
			}
			tbl.render(out)
			return nil
		},
	}
}
