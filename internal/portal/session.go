package portal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"pacsbot/internal/pkg/httpclient"
	"pacsbot/internal/repository"
)

// sessionCookieName is the portal's session cookie key.
const sessionCookieName = "PHPSESSID"

// ErrNoSessionCookie is returned when the portal root response carries
// no session cookie.
var ErrNoSessionCookie = errors.New("no PHPSESSID cookie found in response")

// SessionManager owns acquisition, synthesis, and persistence of the
// portal cookie set. The active session is always re-read from the
// store; nothing is cached in memory across runs.
type SessionManager struct {
	baseURL       string
	username      string
	password      string
	measurementID string
	http          *httpclient.Client
	sessions      *repository.SessionRepository
	logger        *zap.Logger
}

func NewSessionManager(baseURL, username, password, measurementID string, http *httpclient.Client, sessions *repository.SessionRepository, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username:      username,
		password:      password,
		measurementID: measurementID,
		http:          http,
		sessions:      sessions,
		logger:        logger,
	}
}

// AcquireInitialCookie requests the portal root unauthenticated and
// extracts the session cookie from the response.
func (m *SessionManager) AcquireInitialCookie(ctx context.Context) (string, error) {
	resp, err := m.http.Request().SetContext(ctx).Get(m.baseURL)
	if err != nil {
		return "", fmt.Errorf("portal root request failed: %w", err)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie.Name + "=" + cookie.Value, nil
		}
	}
	return "", ErrNoSessionCookie
}

// analyticsCookies synthesizes the GA cookie set the portal's frontend
// expects: _ga (client id), _gid (session id), _gat (throttle), and the
// GA4 session tracker. Values are random per authentication and carry
// no server-side meaning.
func analyticsCookies(measurementID string) string {
	clientID := rand.Int63n(1e10)
	firstVisit := time.Now().Unix()
	ga := fmt.Sprintf("GA1.2.%d.%d", clientID, firstVisit)

	sessionID := rand.Int63n(1e10)
	gid := fmt.Sprintf("GA1.2.%d.%d", sessionID, firstVisit)

	lastHit := time.Now().Unix()
	ga4 := strings.Join([]string{
		"GS2.2",
		fmt.Sprintf("s%d", firstVisit),
		"o1",
		"g1",
		fmt.Sprintf("t%d", lastHit),
		"j0",
		"l0",
		"h0",
	}, "$")

	return strings.Join([]string{
		"_ga=" + ga,
		"_gid=" + gid,
		"_gat=1",
		fmt.Sprintf("_ga_%s=%s", measurementID, ga4),
	}, "; ")
}

// Authenticate performs a fresh portal login: fetch an initial session
// cookie, attach synthesized analytics cookies, and submit the operator
// credentials. The login response body is not inspected; the next
// request's expiry check is the success oracle. The resulting cookie
// string is persisted as the new active session and returned.
func (m *SessionManager) Authenticate(ctx context.Context) (string, error) {
	m.logger.Info("Authenticating against portal")

	sessionCookie, err := m.AcquireInitialCookie(ctx)
	if err != nil {
		return "", err
	}
	cookies := sessionCookie + "; " + analyticsCookies(m.measurementID)

	_, err = m.http.Request().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8").
		SetHeader("Origin", m.baseURL).
		SetHeader("Referer", m.baseURL).
		SetHeader("Cookie", cookies).
		SetFormData(map[string]string{
			"operator_user":      m.username,
			"operator_pass":      m.password,
			"recaptcha_response": "",
		}).
		Post(m.baseURL)
	if err != nil {
		return "", fmt.Errorf("portal login failed: %w", err)
	}

	if _, err := m.sessions.Append(cookies); err != nil {
		// Store failure does not invalidate the login itself.
		m.logger.Error("Failed to persist session cookies", zap.Error(err))
	}
	return cookies, nil
}

// ActiveSession returns the latest persisted cookie string, or "" when
// none exists or the store is unreachable (forcing re-authentication).
func (m *SessionManager) ActiveSession() string {
	cookies, err := m.sessions.Latest()
	if err != nil {
		m.logger.Error("Failed to read active session", zap.Error(err))
		return ""
	}
	return cookies
}
