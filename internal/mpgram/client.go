package mpgram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/sushigram/configtool/internal/common"
)

const (
	DefaultVersion = 10
	DefaultTimeout = 30 * time.Second

	// HeaderUserToken carries the session token next to the "user" query
	// parameter once the phone number has been accepted.
	HeaderUserToken = "X-MPGRAM-USER"
)

// API method names understood by api.php
const (
	MethodPhoneLogin         = "phoneLogin"
	MethodGetCaptchaImg      = "getCaptchaImg"
	MethodCompletePhoneLogin = "completePhoneLogin"
	MethodComplete2faLogin   = "complete2faLogin"
)

// Client talks to a single api.php endpoint. It is not safe for concurrent
// use; the login flow only calls it from one goroutine.
type Client struct {
	baseURL   string
	version   int
	userToken string
	client    *resty.Client
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.SetTimeout(timeout)
	}
}

func WithVersion(version int) Option {
	return func(c *Client) {
		c.version = version
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if len(userAgent) > 0 {
			c.client.SetHeader("User-Agent", userAgent)
		}
	}
}

// NewClient builds a client for the instance URL, e.g.
// "http://mp.example.com/" becomes "http://mp.example.com/api.php".
func NewClient(instanceURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: common.APIEndpoint(instanceURL),
		version: DefaultVersion,
		client: resty.New().
			SetTimeout(DefaultTimeout).
			SetHeader("User-Agent", common.GetUserAgent()).
			SetLogger(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(c)
	}

	logrus.WithFields(logrus.Fields{
		"url":     c.baseURL,
		"version": c.version,
	}).Debugln("API client initialized")

	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SetUserToken(token string) {
	c.userToken = token
}

func (c *Client) UserToken() string {
	return c.userToken
}

// Result holds exactly one of Response or Image.
type Result struct {
	Response *Response
	Image    *Image
}

// Call performs a generic api.php request. Transport, HTTP and decode
// failures are logged here and returned as *RequestError.
func (c *Client) Call(ctx context.Context, method string, params map[string]string) (*Result, error) {

	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("method", method).
		SetQueryParam("v", strconv.Itoa(c.version))

	if len(c.userToken) > 0 {
		req.SetQueryParam("user", c.userToken).
			SetHeader(HeaderUserToken, c.userToken)
	}

	logFields := logrus.Fields{
		"url":    c.baseURL,
		"method": method,
	}

	resp, err := req.Post(c.baseURL)

	if err != nil {
		reqErr := &RequestError{
			Kind:   ErrorKindTransport,
			Method: method,
			Err:    err,
		}
		logrus.WithFields(logFields).WithError(err).WithField(
			"timeout", reqErr.Timeout(),
		).Errorln("Request error")
		return nil, reqErr
	}

	if !resp.IsSuccess() {
		reqErr := &RequestError{
			Kind:       ErrorKindHTTP,
			Method:     method,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Err:        fmt.Errorf("unexpected status: %s", resp.Status()),
		}
		logrus.WithFields(logFields).WithFields(logrus.Fields{
			"status": resp.StatusCode(),
			"body":   resp.String(),
		}).Errorln("HTTP error")
		return nil, reqErr
	}

	contentType := resp.Header().Get("Content-Type")

	if isImage(contentType) {
		return &Result{
			Image: &Image{
				ContentType: contentType,
				Data:        resp.Body(),
			},
		}, nil
	}

	decoded, err := DecodeResponse(resp.Body())
	if err != nil {
		logrus.WithFields(logFields).WithError(err).WithField(
			"body", resp.String(),
		).Errorln("Failed to decode response")
		return nil, &RequestError{
			Kind:       ErrorKindDecode,
			Method:     method,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Err:        err,
		}
	}

	logrus.WithFields(logFields).WithField("kind", decoded.Kind).Debugln("Response received")

	return &Result{Response: decoded}, nil
}

func (c *Client) callJSON(ctx context.Context, method string, params map[string]string) (*Response, error) {
	result, err := c.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if result.Response == nil {
		logrus.WithFields(logrus.Fields{
			"method":      method,
			"contentType": result.Image.ContentType,
		}).Errorln("Expected a JSON response but got an image")
		return nil, &RequestError{
			Kind:   ErrorKindDecode,
			Method: method,
			Err:    fmt.Errorf("unexpected image response (%s)", result.Image.ContentType),
		}
	}
	return result.Response, nil
}

func (c *Client) PhoneLogin(ctx context.Context, phone string) (*Response, error) {
	return c.callJSON(ctx, MethodPhoneLogin, map[string]string{
		"phone": phone,
	})
}

func (c *Client) PhoneLoginWithCaptcha(ctx context.Context, phone, captchaID, captchaKey string) (*Response, error) {
	return c.callJSON(ctx, MethodPhoneLogin, map[string]string{
		"phone":       phone,
		"captcha_id":  captchaID,
		"captcha_key": captchaKey,
	})
}

// CaptchaImage downloads the captcha picture. A JSON answer here is a
// decode failure since there is nothing to show the user.
func (c *Client) CaptchaImage(ctx context.Context, captchaID string) (*Image, error) {
	result, err := c.Call(ctx, MethodGetCaptchaImg, map[string]string{
		"captcha_id": captchaID,
	})
	if err != nil {
		return nil, err
	}
	if result.Image == nil {
		logrus.WithFields(logrus.Fields{
			"method": MethodGetCaptchaImg,
			"body":   string(result.Response.Raw),
		}).Errorln("Expected a captcha image but got JSON")
		return nil, &RequestError{
			Kind:   ErrorKindDecode,
			Method: MethodGetCaptchaImg,
			Body:   string(result.Response.Raw),
			Err:    fmt.Errorf("unexpected JSON response"),
		}
	}
	return result.Image, nil
}

func (c *Client) CompletePhoneLogin(ctx context.Context, code string) (*Response, error) {
	return c.callJSON(ctx, MethodCompletePhoneLogin, map[string]string{
		"code": code,
	})
}

func (c *Client) Complete2FALogin(ctx context.Context, password string) (*Response, error) {
	return c.callJSON(ctx, MethodComplete2faLogin, map[string]string{
		"password": password,
	})
}
