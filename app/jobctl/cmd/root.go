// Package cmd implements jobctl, the operator CLI for hirelink.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yoockh/hirelink/internal/logger"
)

const app = "jobctl"

var (
	cfgFile string
	v       = viper.New()

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "jobctl runs maintenance tasks against the hirelink stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml); values fill unset environment variables")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	rootCmd.AddCommand(reconcileCmd, indexesCmd, migrateCmd)
}

// initConfig loads .env and the optional config file. Config file keys are
// exported as upper-case environment variables unless already set, so the
// store bootstraps see them.
func initConfig() error {
	_ = godotenv.Load()
	if cfgFile == "" {
		return nil
	}

	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	for _, key := range v.AllKeys() {
		env := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if _, set := os.LookupEnv(env); set {
			continue
		}
		if err := os.Setenv(env, v.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}

func newLogger() *logrus.Logger {
	return logger.New(v.GetString("log_level"))
}
