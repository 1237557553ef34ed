package portal

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"pacsbot/internal/config"
	"pacsbot/internal/pkg/httpclient"
	"pacsbot/internal/repository"
)

// expiryMarker is the inline redirect script the portal embeds in any
// authenticated response once the server-side session is gone.
const expiryMarker = "<script> top.location='/' ;</script>"

// Client issues portal requests with the active session attached,
// re-authenticating transparently when the expiry marker shows up in a
// response body. Exactly one retry, triggered only by the marker;
// transport failures propagate to the caller.
type Client struct {
	http    *httpclient.Client
	session *SessionManager
	logger  *zap.Logger
}

// NewClient builds a portal client from the portal config section.
func NewClient(cfg config.PortalConfig, timeout time.Duration, sessions *repository.SessionRepository, logger *zap.Logger) *Client {
	hc := httpclient.New().WithTimeout(timeout)
	// Cookie handling is explicit via the Cookie header; a jar would
	// shadow the persisted session.
	hc.Raw().SetCookieJar(nil)

	return &Client{
		http:    hc,
		session: NewSessionManager(cfg.BaseURL, cfg.Username, cfg.Password, cfg.MeasurementID, hc, sessions, logger),
		logger:  logger,
	}
}

// Session exposes the session manager, mainly for tests and bootstrap.
func (c *Client) Session() *SessionManager {
	return c.session
}

// Request performs one portal call with session handling. The form map
// is form-encoded when non-nil.
func (c *Client) Request(ctx context.Context, method, url string, form map[string]string, headers map[string]string) (*resty.Response, error) {
	cookies := c.session.ActiveSession()
	if cookies == "" {
		var err error
		cookies, err = c.session.Authenticate(ctx)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.do(ctx, method, url, form, headers, cookies)
	if err != nil {
		return nil, err
	}

	if strings.Contains(string(resp.Body()), expiryMarker) {
		c.logger.Info("Session expired, reauthenticating", zap.String("url", url))
		cookies, err = c.session.Authenticate(ctx)
		if err != nil {
			return nil, err
		}
		// Reissue once; the second response is returned as-is.
		return c.do(ctx, method, url, form, headers, cookies)
	}

	return resp, nil
}

// Get performs a session-handled GET.
func (c *Client) Get(ctx context.Context, url string) (*resty.Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, nil)
}

// PostForm performs a session-handled form POST.
func (c *Client) PostForm(ctx context.Context, url string, form map[string]string, headers map[string]string) (*resty.Response, error) {
	return c.Request(ctx, http.MethodPost, url, form, headers)
}

func (c *Client) do(ctx context.Context, method, url string, form map[string]string, headers map[string]string, cookies string) (*resty.Response, error) {
	req := c.http.Request().
		SetContext(ctx).
		SetHeader("Cookie", cookies)
	for key, value := range headers {
		req.SetHeader(key, value)
	}
	if form != nil {
		req.SetFormData(form)
	}
	return req.Execute(method, url)
}
