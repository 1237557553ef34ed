package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pacsbot/internal/models"
	"pacsbot/internal/pkg/httpclient"
	"pacsbot/internal/repository"
)

func testSessions(t *testing.T) *repository.SessionRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SessionRecord{}))
	return repository.NewSessionRepository(db)
}

func testManager(t *testing.T, baseURL string, sessions *repository.SessionRepository) *SessionManager {
	t.Helper()
	hc := httpclient.New()
	hc.Raw().SetCookieJar(nil)
	return NewSessionManager(baseURL, "operator", "secret", "6YSDZBZ6HX", hc, sessions, zap.NewNop())
}

func TestAcquireInitialCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123", Path: "/"})
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	m := testManager(t, srv.URL, testSessions(t))
	cookie, err := m.AcquireInitialCookie(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PHPSESSID=abc123", cookie)
}

func TestAcquireInitialCookieMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "other", Value: "x"})
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	m := testManager(t, srv.URL, testSessions(t))
	_, err := m.AcquireInitialCookie(context.Background())
	require.ErrorIs(t, err, ErrNoSessionCookie)
}

var (
	gaRe  = regexp.MustCompile(`^GA1\.2\.\d{1,10}\.\d+$`)
	ga4Re = regexp.MustCompile(`^GS2\.2\$s\d+\$o1\$g1\$t\d+\$j0\$l0\$h0$`)
)

func TestAnalyticsCookiesShape(t *testing.T) {
	fragment := analyticsCookies("6YSDZBZ6HX")
	parts := strings.Split(fragment, "; ")
	require.Len(t, parts, 4)

	require.True(t, strings.HasPrefix(parts[0], "_ga="))
	require.Regexp(t, gaRe, strings.TrimPrefix(parts[0], "_ga="))

	require.True(t, strings.HasPrefix(parts[1], "_gid="))
	require.Regexp(t, gaRe, strings.TrimPrefix(parts[1], "_gid="))

	require.Equal(t, "_gat=1", parts[2])

	require.True(t, strings.HasPrefix(parts[3], "_ga_6YSDZBZ6HX="))
	require.Regexp(t, ga4Re, strings.TrimPrefix(parts[3], "_ga_6YSDZBZ6HX="))
}

func TestAuthenticatePersistsSession(t *testing.T) {
	var loginForm map[string]string
	var loginCookie string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123", Path: "/"})
			w.Write([]byte("<html>login</html>"))
		case http.MethodPost:
			_ = r.ParseForm()
			loginForm = map[string]string{
				"operator_user":      r.PostFormValue("operator_user"),
				"operator_pass":      r.PostFormValue("operator_pass"),
				"recaptcha_response": r.PostFormValue("recaptcha_response"),
			}
			loginCookie = r.Header.Get("Cookie")
			w.Write([]byte("<html>welcome</html>"))
		}
	}))
	defer srv.Close()

	sessions := testSessions(t)
	m := testManager(t, srv.URL, sessions)

	cookies, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(cookies, "PHPSESSID=abc123; "))
	require.Contains(t, cookies, "_gid=")

	require.Equal(t, "operator", loginForm["operator_user"])
	require.Equal(t, "secret", loginForm["operator_pass"])
	require.Equal(t, "", loginForm["recaptcha_response"])
	// The login POST itself carries the freshly assembled cookie set.
	require.Equal(t, cookies, loginCookie)

	stored, err := sessions.Latest()
	require.NoError(t, err)
	require.Equal(t, cookies, stored)

	require.Equal(t, cookies, m.ActiveSession())
}
