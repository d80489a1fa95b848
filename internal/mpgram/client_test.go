package mpgram

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method string
	query  url.Values
	header http.Header
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

func (r *recorder) add(req capturedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()

	captured := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.add(capturedRequest{
			method: r.Method,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
		})
		if r.URL.Path != "/api.php" {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		instance string
		expected string
	}{
		{"http://mp.example.com", "http://mp.example.com/api.php"},
		{"http://mp.example.com/", "http://mp.example.com/api.php"},
		{"https://host:8080/mp/", "https://host:8080/mp/api.php"},
	}

	for _, tt := range tests {
		client := NewClient(tt.instance)
		assert.Equal(t, tt.expected, client.BaseURL())
	}
}

func TestCall_SendsMethodAndVersion(t *testing.T) {
	server, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"res":"need_captcha","captcha_id":"abc"}`)
	})

	client := NewClient(server.URL)

	resp, err := client.PhoneLogin(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, KindNeedCaptcha, resp.Kind)
	assert.Equal(t, "abc", resp.CaptchaID)

	requests := captured.all()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "phoneLogin", req.query.Get("method"))
	assert.Equal(t, "10", req.query.Get("v"))
	assert.Equal(t, "+15551234567", req.query.Get("phone"))
	assert.False(t, req.query.Has("user"))
	assert.Empty(t, req.header.Get(HeaderUserToken))
}

func TestNewClient_UserAgent(t *testing.T) {
	server, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"res":1}`)
	})

	_, err := NewClient(server.URL).CompletePhoneLogin(context.Background(), "1")
	require.NoError(t, err)

	_, err = NewClient(server.URL, WithUserAgent("device-setup/1.0")).CompletePhoneLogin(context.Background(), "1")
	require.NoError(t, err)

	_, err = NewClient(server.URL, WithUserAgent("")).CompletePhoneLogin(context.Background(), "1")
	require.NoError(t, err)

	requests := captured.all()
	require.Len(t, requests, 3)
	assert.Contains(t, requests[0].header.Get("User-Agent"), "sushigram-configtool/")
	assert.Equal(t, "device-setup/1.0", requests[1].header.Get("User-Agent"))
	assert.Contains(t, requests[2].header.Get("User-Agent"), "sushigram-configtool/")
}

func TestCall_AttachesUserToken(t *testing.T) {
	server, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"res":1}`)
	})

	client := NewClient(server.URL, WithVersion(11))
	client.SetUserToken("tok-123")

	resp, err := client.CompletePhoneLogin(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, resp.Kind)

	requests := captured.all()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "completePhoneLogin", req.query.Get("method"))
	assert.Equal(t, "11", req.query.Get("v"))
	assert.Equal(t, "12345", req.query.Get("code"))
	assert.Equal(t, "tok-123", req.query.Get("user"))
	assert.Equal(t, "tok-123", req.header.Get(HeaderUserToken))
}

func TestNamedOperations_Parameters(t *testing.T) {
	server, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"res":1}`)
	})

	client := NewClient(server.URL)
	ctx := context.Background()

	_, err := client.PhoneLoginWithCaptcha(ctx, "+1555", "cid", "key")
	require.NoError(t, err)
	_, err = client.Complete2FALogin(ctx, "hunter2")
	require.NoError(t, err)

	requests := captured.all()
	require.Len(t, requests, 2)

	first := requests[0].query
	assert.Equal(t, "phoneLogin", first.Get("method"))
	assert.Equal(t, "+1555", first.Get("phone"))
	assert.Equal(t, "cid", first.Get("captcha_id"))
	assert.Equal(t, "key", first.Get("captcha_key"))

	second := requests[1].query
	assert.Equal(t, "complete2faLogin", second.Get("method"))
	assert.Equal(t, "hunter2", second.Get("password"))
}

func TestCall_ImageReturnsRawBytes(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0xff, '{'}

	server, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	client := NewClient(server.URL)

	img, err := client.CaptchaImage(context.Background(), "cid")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(png, img.Data))
	assert.Equal(t, "image/png", img.ContentType)

	requests := captured.all()
	require.Len(t, requests, 1)
	assert.Equal(t, "getCaptchaImg", requests[0].query.Get("method"))
	assert.Equal(t, "cid", requests[0].query.Get("captcha_id"))
}

func TestCall_GenericResultShapes(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		expectImage bool
	}{
		{name: "json object", contentType: "application/json", body: `{"res":1}`},
		{name: "json with text content type", contentType: "text/html; charset=utf-8", body: `{"res":"password"}`},
		{name: "jpeg", contentType: "image/jpeg", body: "not-json-at-all", expectImage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			})

			result, err := NewClient(server.URL).Call(context.Background(), "anything", nil)
			require.NoError(t, err)

			if tt.expectImage {
				require.NotNil(t, result.Image)
				assert.Nil(t, result.Response)
				assert.Equal(t, tt.body, string(result.Image.Data))
			} else {
				require.NotNil(t, result.Response)
				assert.Nil(t, result.Image)
				assert.JSONEq(t, tt.body, string(result.Response.Raw))
			}
		})
	}
}

func TestCall_InvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `<html>oops</html>`)
	})

	resp, err := NewClient(server.URL).PhoneLogin(context.Background(), "+1555")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorKindDecode))

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "<html>oops</html>", reqErr.Body)
}

func TestCall_HTTPError(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	resp, err := NewClient(server.URL).PhoneLogin(context.Background(), "+1555")
	assert.Nil(t, resp)
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, ErrorKindHTTP, reqErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, "boom", reqErr.Body)
	assert.Contains(t, reqErr.Error(), "500")
}

func TestCall_NotFoundIsHTTPError(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	// Pointing at a path without api.php yields 404 from the test server
	client := NewClient(server.URL + "/missing/")

	_, err := client.PhoneLogin(context.Background(), "+1555")
	assert.True(t, IsKind(err, ErrorKindHTTP))
}

func TestCall_Timeout(t *testing.T) {
	release := make(chan struct{})
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		writeJSON(w, `{"res":1}`)
	})
	defer close(release)

	client := NewClient(server.URL, WithTimeout(50*time.Millisecond))

	resp, err := client.PhoneLogin(context.Background(), "+1555")
	assert.Nil(t, resp)
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, ErrorKindTransport, reqErr.Kind)
	assert.True(t, reqErr.Timeout())
}

func TestCall_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	instance := server.URL
	server.Close()

	_, err := NewClient(instance).PhoneLogin(context.Background(), "+1555")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorKindTransport))
}

func TestCall_CancelledContext(t *testing.T) {
	server, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"res":1}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).PhoneLogin(ctx, "+1555")
	assert.True(t, IsKind(err, ErrorKindTransport))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, captured.all())
}

func TestCaptchaImage_JSONIsDecodeError(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"error":"no such captcha"}`)
	})

	img, err := NewClient(server.URL).CaptchaImage(context.Background(), "cid")
	assert.Nil(t, img)
	assert.True(t, IsKind(err, ErrorKindDecode))
}

func TestPhoneLogin_ImageIsDecodeError(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89})
	})

	resp, err := NewClient(server.URL).PhoneLogin(context.Background(), "+1555")
	assert.Nil(t, resp)
	assert.True(t, IsKind(err, ErrorKindDecode))
}
