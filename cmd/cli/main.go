package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sushigram/configtool/internal/config"
)

// Global configuration instance
var cfg *config.Config

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Flags override the config file for the output locations
	if output, err := cmd.Flags().GetString("output"); err == nil && len(output) > 0 {
		cfg.Output.ConfigFile = output
	}

	if captcha, err := cmd.Flags().GetString("captcha"); err == nil && len(captcha) > 0 {
		cfg.Output.CaptchaFile = captcha
	}

	return nil
}

var rootCmd = &cobra.Command{
	Use:   "configtool",
	Short: "Sushigram config tool - log in and generate the Cardputer config file",
	Long: `Sushigram config tool guides you through setting up WiFi, choosing the
MPGram server and logging into Telegram. On success it writes sushigram.json,
which goes in the root directory of the M5Cardputer's SD card.

Nothing is retried: if any step fails, run the tool again.`,
	PersistentPreRunE: preRunConfigE,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              runLogin,
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Tool config file (default is ./configtool.yaml or ~/.config/sushigram/configtool.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Where to write the device config (default sushigram.json)")
	rootCmd.Flags().String("captcha", "", "Where to save the captcha image (default captcha.png)")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
