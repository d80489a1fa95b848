package mpgram

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// SuccessCode is the numeric "res" value the server uses for a completed
// login step.
const SuccessCode = 1

// Known string values of the "res" field.
const (
	ResNeedCaptcha  = "need_captcha"
	ResWrongCaptcha = "wrong_captcha"
	ResPassword     = "password"
)

// Kind identifies which known shape a response has.
type Kind int

const (
	// Anything not recognised below, including a missing "res"
	KindGeneric Kind = iota
	KindSuccess
	KindNeedCaptcha
	KindWrongCaptcha
	KindPasswordRequired
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNeedCaptcha:
		return "need_captcha"
	case KindWrongCaptcha:
		return "wrong_captcha"
	case KindPasswordRequired:
		return "password_required"
	default:
		return "generic"
	}
}

var errInvalidJSON = errors.New("response is not valid JSON")

// Response is a decoded JSON answer from api.php. Raw always holds the body
// as received so unrecognised shapes can still be shown to the user.
type Response struct {
	Kind      Kind
	CaptchaID string
	User      string
	Raw       []byte
}

// Image is a binary answer, currently only the captcha picture.
type Image struct {
	ContentType string
	Data        []byte
}

// DecodeResponse classifies a JSON body by its "res" field.
func DecodeResponse(body []byte) (*Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}

	root := gjson.ParseBytes(body)

	resp := &Response{
		Kind: KindGeneric,
		Raw:  body,
	}

	if !root.IsObject() {
		return resp, nil
	}

	if user := root.Get("user"); user.Exists() && user.Type != gjson.Null {
		resp.User = user.String()
	}

	res := root.Get("res")

	switch res.Type {
	case gjson.Number:
		if res.Num == SuccessCode {
			resp.Kind = KindSuccess
		}
	case gjson.String:
		switch res.Str {
		case ResNeedCaptcha:
			resp.Kind = KindNeedCaptcha
			resp.CaptchaID = root.Get("captcha_id").String()
		case ResWrongCaptcha:
			resp.Kind = KindWrongCaptcha
		case ResPassword:
			resp.Kind = KindPasswordRequired
		}
	}

	return resp, nil
}

// HasUser reports whether the server issued a user token.
func (r *Response) HasUser() bool {
	return r != nil && len(r.User) > 0
}

// Pretty renders the raw body with two-space indentation for diagnostics.
func (r *Response) Pretty() string {
	if r == nil {
		return "null"
	}
	return strings.TrimRight(string(pretty.Pretty(r.Raw)), "\n")
}

func isImage(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "image/")
}
