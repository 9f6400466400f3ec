package intelifit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage intelifit configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a configuration value to the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := app.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		key := strings.ToLower(strings.TrimSpace(args[0]))
		if err := app.SetConfigValue(path, key, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show the effective value of a configuration key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(strings.TrimSpace(args[0]))
		if !app.KnownKey(key) {
			return fmt.Errorf("unknown config key %q", key)
		}
		v, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), displayConfigValue(key, v.GetString(key)))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every configuration key with its effective value",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		keys := append([]string(nil), app.Keys...)
		sort.Strings(keys)
		fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, displayConfigValue(k, v.GetString(k)))
		}
		return nil
	},
}

func displayConfigValue(key, value string) string {
	if key == app.KeyInferenceAPIKey && value != "" {
		if len(value) <= 4 {
			return "****"
		}
		return "****" + value[len(value)-4:]
	}
	return value
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
}
