/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/tasknest/internal/config"
	"github.com/josephgoksu/tasknest/internal/logger"
	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/types"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.1.0"

	// appConfig is the loaded configuration of the running command.
	appConfig types.AppConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tasknest",
	Short: "TaskNest - nested task lists in your terminal",
	Long: `TaskNest keeps projects of nested tasks in a local store shared by every
terminal on the machine. Add tasks and subtasks, tick them off (children follow
their parent), reorder, search, and import or export task trees as JSON.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.HandlePanic()
	logger.SetVersion(version)

	if err := rootCmd.Execute(); err != nil {
		PrintError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.tasknest/.tasknest.yaml, $HOME/.tasknest.yaml or ./.tasknest.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project id or unique prefix")
	rootCmd.PersistentFlags().String("backend", "", "store backend: file, sqlite or memory")
	rootCmd.PersistentFlags().String("store-dir", "", "directory of the store")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json or logfmt")
}

// flagBindings maps persistent flags onto config keys.
var flagBindings = map[string]string{
	"verbose":    "verbose",
	"project":    "project",
	"backend":    "store.backend",
	"store-dir":  "store.dir",
	"log-format": "log.format",
}

// initApp loads configuration and logging before any command runs.
func initApp(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	for flag, key := range flagBindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if err := config.Init(v, cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	appConfig = cfg

	opts := logger.DefaultOptions()
	opts.Level = cfg.Log.Level
	opts.Format = cfg.Log.Format
	if cfg.Verbose {
		opts.Level = "debug"
	}
	if err := logger.Setup(opts); err != nil {
		return err
	}

	metrics.InitDefault()
	logger.SetCrashDir(cfg.Store.Dir)
	logger.SetCommand(cmd.CommandPath(), args)
	return nil
}

// PrintError prints err for the user. Verbose mode adds the wrapped chain.
func PrintError(err error) {
	msg := err.Error()
	var ue *userError
	if errors.As(err, &ue) && !viper.GetBool("verbose") {
		msg = ue.msg
	}
	fmt.Fprintln(os.Stderr, "Error:", msg)
}

// userError carries a short message for the user and the full cause for
// verbose output.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *userError) Unwrap() error { return e.err }

func newUserError(msg string, err error) error {
	return &userError{msg: msg, err: err}
}
