package login

import "context"

// Question is a single line of input asked from the user.
type Question struct {
	Title       string
	Description string
	Secret      bool // Hide the typed characters
	Required    bool
}

// Prompter asks questions interactively. Implementations return
// ErrCancelled when the user aborts.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// Reporter shows progress to the user between prompts.
type Reporter interface {
	Title(msg string)
	Info(msg string)
	Success(msg string)
}

var (
	questionSSID = Question{
		Title:    "Enter your WiFi SSID",
		Required: true,
	}
	questionWiFiPassword = Question{
		Title:  "Enter your WiFi Password",
		Secret: true,
	}
	questionServer = Question{
		Title:       "Enter the FULL instance URL of your server",
		Description: "e.g. http://mp.nnchan.ru/ (http:// is added when missing)",
		Required:    true,
	}
	questionPhone = Question{
		Title:       "Enter your phone number",
		Description: "With country code, e.g. +15551234567",
		Required:    true,
	}
	questionCaptcha = Question{
		Title:       "Enter captcha text",
		Description: "Open the saved captcha image and type what it shows",
		Required:    true,
	}
	questionCode = Question{
		Title:    "Enter the verification code from Telegram",
		Required: true,
	}
	questionTwoFactor = Question{
		Title:    "2FA Password required. Please enter it",
		Secret:   true,
		Required: true,
	}
)
