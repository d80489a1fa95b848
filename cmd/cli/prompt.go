package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sushigram/configtool/internal/login"
)

// huhPrompter asks each question as a single-field huh form.
type huhPrompter struct {
	accessible bool
}

func newPrompter() *huhPrompter {
	return &huhPrompter{
		accessible: len(os.Getenv("ACCESSIBLE")) > 0,
	}
}

func (p *huhPrompter) Ask(ctx context.Context, q login.Question) (string, error) {
	var value string

	input := huh.NewInput().
		Title(q.Title).
		Value(&value)

	if len(q.Description) > 0 {
		input.Description(q.Description)
	}

	if q.Secret {
		input.EchoMode(huh.EchoModePassword)
	}

	if q.Required {
		input.Validate(requiredValidator(q.Title))
	}

	form := huh.NewForm(huh.NewGroup(input)).
		WithAccessible(p.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return "", login.ErrCancelled
		}
		return "", err
	}

	// Secrets are kept verbatim, a WiFi password may start or end with a space
	if q.Secret {
		return value, nil
	}
	return strings.TrimSpace(value), nil
}

func requiredValidator(title string) func(string) error {
	name := strings.TrimPrefix(title, "Enter ")
	return func(s string) error {
		if len(strings.TrimSpace(s)) == 0 {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// styledReporter prints workflow progress with the shared CLI styles.
type styledReporter struct {
	out io.Writer
}

func (r *styledReporter) Title(msg string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, headerStyle.Render(fmt.Sprintf("--- %s ---", msg)))
}

func (r *styledReporter) Info(msg string) {
	fmt.Fprintln(r.out, infoStyle.Render(msg))
}

func (r *styledReporter) Success(msg string) {
	fmt.Fprintln(r.out, successStyle.Render("✅ "+msg))
}

func (r *styledReporter) Failure(msg string) {
	fmt.Fprintln(r.out, errorStyle.Render("❌ "+msg))
}
