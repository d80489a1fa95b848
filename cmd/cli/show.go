package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sushigram/configtool/internal/device"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the device config written by the last login",
	Long: `Show the device config written by the last successful login.

The WiFi password and the user token are masked unless --reveal is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		path := cfg.GetConfigFile()

		deviceConfig, err := device.Read(path)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(fmt.Sprintf("❌ %v", err)))
			return err
		}

		reveal, _ := cmd.Flags().GetBool("reveal")

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(path))
		for _, row := range showRows(deviceConfig, reveal) {
			fmt.Fprintf(out, "  %-12s %s\n", mutedStyle.Render(row[0]), row[1])
		}

		return nil
	},
}

func showRows(c *device.Config, reveal bool) [][2]string {
	password := c.Password
	token := c.UserToken
	if !reveal {
		password = mask(password)
		token = mask(token)
	}

	return [][2]string{
		{"ssid", c.SSID},
		{"password", password},
		{"server_ip", c.ServerIP},
		{"phone", c.Phone},
		{"user_token", token},
	}
}

// mask keeps the last four characters of long values.
func mask(s string) string {
	if len(s) == 0 {
		return "(empty)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func init() {
	showCmd.Flags().Bool("reveal", false, "Print the password and token unmasked")
	rootCmd.AddCommand(showCmd)
}
