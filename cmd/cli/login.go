package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sushigram/configtool/internal/common"
	"github.com/sushigram/configtool/internal/login"
	"github.com/sushigram/configtool/internal/mpgram"
)

// errLoginFailed is returned to cobra after the failure has been shown, so
// the process exits non-zero without printing it twice.
var errLoginFailed = errors.New("login failed")

func runLogin(cmd *cobra.Command, args []string) error {

	out := cmd.OutOrStdout()
	reporter := &styledReporter{out: out}

	printIntro(out)

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	workflow := login.New(
		newPrompter(),
		reporter,
		newAPIClient,
		login.WithConfigFile(cfg.GetConfigFile()),
		login.WithCaptchaFile(cfg.GetCaptchaFile()),
	)

	result, err := workflow.Run(ctx)
	if err != nil {
		return reportFailure(reporter, err)
	}

	printNextSteps(out, result)

	return nil
}

func newAPIClient(instanceURL string) login.API {
	return mpgram.NewClient(
		instanceURL,
		mpgram.WithVersion(cfg.GetAPIVersion()),
		mpgram.WithTimeout(cfg.GetTimeout()),
		mpgram.WithUserAgent(cfg.API.UserAgent),
	)
}

func printIntro(out io.Writer) {
	fmt.Fprintln(out, titleStyle.Render("M5Cardputer Full Config and Login Assistant"))
	fmt.Fprintln(out, "This tool will configure WiFi and log you into Telegram to generate a complete session file.")
	fmt.Fprintln(out)
}

// reportFailure explains why the run stopped. Cancellation is not a
// failure and ends the process normally.
func reportFailure(reporter *styledReporter, err error) error {

	if errors.Is(err, login.ErrCancelled) {
		fmt.Fprintln(reporter.out)
		fmt.Fprintln(reporter.out, warningStyle.Render("Operation cancelled. Exiting."))
		return nil
	}

	var failure *login.FailureError
	if !errors.As(err, &failure) {
		reporter.Failure(fmt.Sprintf("Unexpected error: %v", err))
		return errLoginFailed
	}

	reporter.Failure(fmt.Sprintf("%s.", capitalize(failure.Reason)))

	if failure.HasResponse() {
		fmt.Fprintln(reporter.out, "Server response:", failure.Response.Pretty())
	}

	if failure.Err != nil {
		var reqErr *mpgram.RequestError
		if errors.As(failure.Err, &reqErr) && reqErr.Timeout() {
			fmt.Fprintln(reporter.out, mutedStyle.Render("The server did not answer in time."))
		}
		fmt.Fprintln(reporter.out, mutedStyle.Render(fmt.Sprintf("[ERROR] %v", failure.Err)))
	}

	fmt.Fprintln(reporter.out, warningStyle.Render("Please restart the tool to try again."))

	return errLoginFailed
}

func printNextSteps(out io.Writer, result *login.Result) {
	lines := []string{
		successStyle.Render(fmt.Sprintf("✅ Success! The configuration file '%s' has been created with your session token.", result.Path)),
		"",
		headerStyle.Render("Next Steps:"),
		fmt.Sprintf("1. Copy the '%s' file to the main (root) directory of your M5Cardputer's SD card.", baseName(result.Path)),
		"2. Insert the SD card and power on the device.",
		"3. The Cardputer will now be logged in and ready to use!",
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, bannerStyle.Render(strings.Join(lines, "\n")))
	fmt.Fprintln(out)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and write the device config (same as running without a command)",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().String("captcha", "", "Where to save the captcha image (default captcha.png)")
	rootCmd.AddCommand(loginCmd)
}
