package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/tasknest/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "# config file: %s\n", used)
		} else {
			fmt.Fprintln(out, "# no config file, defaults and environment only")
		}
		fmt.Fprintf(out, "store.backend:  %s\n", appConfig.Store.Backend)
		fmt.Fprintf(out, "store.dir:      %s\n", appConfig.Store.Dir)
		fmt.Fprintf(out, "store.watch:    %t\n", appConfig.Store.Watch)
		fmt.Fprintf(out, "store.debounce: %s\n", appConfig.Store.Debounce)
		fmt.Fprintf(out, "log.level:      %s\n", appConfig.Log.Level)
		fmt.Fprintf(out, "log.format:     %s\n", appConfig.Log.Format)
		fmt.Fprintf(out, "project:        %s\n", appConfig.Project)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting to the config file",
	Example: `  tasknest config set store.backend sqlite
  tasknest config set store.debounce 100ms`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.SaveSetting(viper.GetViper(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
