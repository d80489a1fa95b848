package login

import (
	"errors"
	"fmt"

	"github.com/sushigram/configtool/internal/mpgram"
)

// ErrCancelled is returned when the user aborts a prompt or the process is
// interrupted. Nothing has been written when it is returned.
var ErrCancelled = errors.New("operation cancelled")

// Step names a stage of the login flow.
type Step string

const (
	StepSettings   Step = "settings"
	StepPhoneLogin Step = "phone_login"
	StepCaptcha    Step = "captcha"
	StepToken      Step = "token"
	StepCode       Step = "code"
	StepTwoFactor  Step = "two_factor"
	StepResult     Step = "result"
	StepPersist    Step = "persist"
)

// FailureError ends a run that cannot continue. Response is set when the
// server answered with something the flow could not accept, Err when a
// request or a local write failed.
type FailureError struct {
	Step     Step
	Reason   string
	Response *mpgram.Response
	Err      error
}

func (e *FailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Reason)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// HasResponse reports whether the raw server answer should be shown.
func (e *FailureError) HasResponse() bool {
	return e.Response != nil
}
