package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geodocs/skillserve/pkg/logger"
)

func init() {
	viper.SetEnvPrefix("SKILLSERVE")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillserve")
	viper.AddConfigPath(".")

	viper.SetDefault("skills_dir", "./skills")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillserve",
	Short: "MCP server for GIS documentation skills",
	Long: `skillserve discovers skill bundles (SKILL.md plus supporting scripts,
references and assets) under a skills directory and serves them to
tool-calling clients over the Model Context Protocol.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetLogFormat(viper.GetString("log_format"))
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
			os.Exit(1)
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("skills-dir", "", "Directory containing skill bundles (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (fmt or json)")

	viper.BindPFlag("skills_dir", rootCmd.PersistentFlags().Lookup("skills-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
