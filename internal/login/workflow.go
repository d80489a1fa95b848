package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sushigram/configtool/internal/common"
	"github.com/sushigram/configtool/internal/device"
	"github.com/sushigram/configtool/internal/mpgram"
)

// API is the part of *mpgram.Client the login flow drives.
type API interface {
	PhoneLogin(ctx context.Context, phone string) (*mpgram.Response, error)
	PhoneLoginWithCaptcha(ctx context.Context, phone, captchaID, captchaKey string) (*mpgram.Response, error)
	CaptchaImage(ctx context.Context, captchaID string) (*mpgram.Image, error)
	CompletePhoneLogin(ctx context.Context, code string) (*mpgram.Response, error)
	Complete2FALogin(ctx context.Context, password string) (*mpgram.Response, error)
	SetUserToken(token string)
	UserToken() string
}

// ClientFactory builds the API client once the instance URL is known.
type ClientFactory func(instanceURL string) API

// Settings are the answers collected before talking to the server.
type Settings struct {
	SSID       string
	Password   string
	ServerURL  string // With scheme, as used for requests
	ServerHost string // Host and optional port, as stored for the device
}

// Result describes a completed run.
type Result struct {
	Config device.Config
	Path   string
}

type Workflow struct {
	prompter    Prompter
	reporter    Reporter
	newClient   ClientFactory
	configFile  string
	captchaFile string
	log         *logrus.Entry
}

type Option func(*Workflow)

func WithConfigFile(path string) Option {
	return func(w *Workflow) {
		w.configFile = path
	}
}

func WithCaptchaFile(path string) Option {
	return func(w *Workflow) {
		w.captchaFile = path
	}
}

func New(prompter Prompter, reporter Reporter, newClient ClientFactory, opts ...Option) *Workflow {
	w := &Workflow{
		prompter:    prompter,
		reporter:    reporter,
		newClient:   newClient,
		configFile:  "sushigram.json",
		captchaFile: "captcha.png",
		log:         logrus.WithField("run", uuid.NewString()),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run drives the whole login. Every failure is final: the returned error is
// ErrCancelled, a *FailureError, or a prompt error, and no device config is
// written unless the server confirmed the login.
func (w *Workflow) Run(ctx context.Context) (*Result, error) {

	settings, err := w.collectSettings(ctx)
	if err != nil {
		return nil, err
	}

	client := w.newClient(settings.ServerURL)

	w.reporter.Title("Telegram Login")

	phone, err := w.ask(ctx, StepPhoneLogin, questionPhone)
	if err != nil {
		return nil, err
	}

	w.log.WithField("step", StepPhoneLogin).Debugln("Starting phone login")

	resp, err := client.PhoneLogin(ctx, phone)
	if err != nil {
		return nil, w.requestFailed(ctx, StepPhoneLogin, "phone login request failed", err)
	}

	if resp.Kind == mpgram.KindNeedCaptcha {
		resp, err = w.solveCaptcha(ctx, client, phone, resp.CaptchaID)
		if err != nil {
			return nil, err
		}
	}

	if !resp.HasUser() {
		return nil, &FailureError{
			Step:     StepToken,
			Reason:   "login failed, could not get a user token from the server",
			Response: resp,
		}
	}

	client.SetUserToken(resp.User)
	w.reporter.Success("Phone number accepted. A code has been sent to your Telegram account.")

	code, err := w.ask(ctx, StepCode, questionCode)
	if err != nil {
		return nil, err
	}

	w.log.WithField("step", StepCode).Debugln("Submitting verification code")

	final, err := client.CompletePhoneLogin(ctx, code)
	if err != nil {
		return nil, w.requestFailed(ctx, StepCode, "verification code request failed", err)
	}

	if final.Kind == mpgram.KindPasswordRequired {
		password, err := w.ask(ctx, StepTwoFactor, questionTwoFactor)
		if err != nil {
			return nil, err
		}

		w.log.WithField("step", StepTwoFactor).Debugln("Submitting 2FA password")

		final, err = client.Complete2FALogin(ctx, password)
		if err != nil {
			return nil, w.requestFailed(ctx, StepTwoFactor, "2FA password request failed", err)
		}
	}

	if final.Kind != mpgram.KindSuccess {
		w.log.WithFields(logrus.Fields{
			"step": StepResult,
			"kind": final.Kind,
		}).Warnln("Login was not confirmed by the server")
		return nil, &FailureError{
			Step:     StepResult,
			Reason:   "login failed at the final step",
			Response: final,
		}
	}

	w.reporter.Success("Login successful! Final user token has been captured.")

	cfg := device.Config{
		SSID:      settings.SSID,
		Password:  settings.Password,
		ServerIP:  settings.ServerHost,
		Phone:     phone,
		UserToken: client.UserToken(),
	}

	if err := device.Write(w.configFile, cfg); err != nil {
		return nil, &FailureError{
			Step:   StepPersist,
			Reason: "could not save the device config",
			Err:    err,
		}
	}

	w.log.WithFields(logrus.Fields{
		"step": StepPersist,
		"path": w.configFile,
	}).Infoln("Login completed")

	return &Result{
		Config: cfg,
		Path:   w.configFile,
	}, nil
}

func (w *Workflow) collectSettings(ctx context.Context) (*Settings, error) {
	ssid, err := w.ask(ctx, StepSettings, questionSSID)
	if err != nil {
		return nil, err
	}

	password, err := w.ask(ctx, StepSettings, questionWiFiPassword)
	if err != nil {
		return nil, err
	}

	server, err := w.ask(ctx, StepSettings, questionServer)
	if err != nil {
		return nil, err
	}

	serverURL := common.EnsureScheme(server)

	settings := &Settings{
		SSID:       ssid,
		Password:   password,
		ServerURL:  serverURL,
		ServerHost: common.HostFromURL(serverURL),
	}

	w.log.WithFields(logrus.Fields{
		"step":   StepSettings,
		"server": settings.ServerURL,
		"host":   settings.ServerHost,
	}).Debugln("Settings collected")

	return settings, nil
}

func (w *Workflow) solveCaptcha(ctx context.Context, client API, phone, captchaID string) (*mpgram.Response, error) {
	w.reporter.Info(fmt.Sprintf("Captcha is required. Captcha ID: %s", captchaID))

	img, err := client.CaptchaImage(ctx, captchaID)
	if err != nil {
		return nil, w.requestFailed(ctx, StepCaptcha, "could not fetch the captcha image, please restart", err)
	}

	if err := device.WriteCaptcha(w.captchaFile, img.Data); err != nil {
		return nil, &FailureError{
			Step:   StepCaptcha,
			Reason: "could not save the captcha image",
			Err:    err,
		}
	}

	w.reporter.Info(fmt.Sprintf("Captcha image saved as '%s'. Please open it and enter the text below.", w.captchaFile))

	captchaKey, err := w.ask(ctx, StepCaptcha, questionCaptcha)
	if err != nil {
		return nil, err
	}

	resp, err := client.PhoneLoginWithCaptcha(ctx, phone, captchaID, captchaKey)
	if err != nil {
		return nil, w.requestFailed(ctx, StepCaptcha, "wrong captcha or error, please restart", err)
	}

	if resp.Kind == mpgram.KindWrongCaptcha {
		return nil, &FailureError{
			Step:     StepCaptcha,
			Reason:   "wrong captcha, please restart",
			Response: resp,
		}
	}

	return resp, nil
}

// ask checks for cancellation at every prompt boundary.
func (w *Workflow) ask(ctx context.Context, step Step, q Question) (string, error) {
	if ctx.Err() != nil {
		return "", ErrCancelled
	}

	value, err := w.prompter.Ask(ctx, q)
	if err != nil {
		if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("%s: prompt %q: %w", step, q.Title, err)
	}

	return value, nil
}

// requestFailed turns a client error into the run's final error. A request
// that died because the run was interrupted is a cancellation.
func (w *Workflow) requestFailed(ctx context.Context, step Step, reason string, err error) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}

	return &FailureError{
		Step:   step,
		Reason: reason,
		Err:    err,
	}
}
