package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"museum-registry-backend/config"
	"museum-registry-backend/internal/auth"
	"museum-registry-backend/internal/model"
	"museum-registry-backend/internal/store"
)

const testJWTSecret = "test-jwt-secret"

// testEnv bundles everything a handler test needs.
type testEnv struct {
	router *gin.Engine
	store  store.Store
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.User{},
		&model.AuthorityType{},
		&model.Authority{},
		&model.Museum{},
		&model.MuseumComment{},
		&model.Booking{},
		&model.Bookmark{},
		&model.PushSubscription{},
	))

	cfg := &config.Config{}
	cfg.Server.TemplatesGlob = "../../web/templates/*.html"
	cfg.Server.MediaDir = t.TempDir()
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.SessionSecret = "test-session-secret"
	cfg.Auth.CookieName = "mr_token"
	cfg.Auth.SignInURL = "/account/sign-in"
	cfg.App.PageSize = 3

	s := store.NewGormStore(testDB)
	return &testEnv{
		router: NewRouter(cfg, s, nil),
		store:  s,
		cfg:    cfg,
	}
}

func (e *testEnv) createUser(t *testing.T, username string, staff bool) model.User {
	t.Helper()
	user := model.User{Username: username, IsStaff: staff}
	require.NoError(t, e.store.DB().Create(&user).Error)
	return user
}

func (e *testEnv) createType(t *testing.T, name string) model.AuthorityType {
	t.Helper()
	typ := model.AuthorityType{Name: name}
	require.NoError(t, e.store.DB().Create(&typ).Error)
	return typ
}

func (e *testEnv) createAuthority(t *testing.T, name string, ownerID, typeID uint) model.Authority {
	t.Helper()
	authority := model.Authority{Name: name, OwnerID: ownerID, TypeID: typeID}
	require.NoError(t, e.store.DB().Create(&authority).Error)
	return authority
}

func (e *testEnv) createMuseum(t *testing.T, name string, authorityID uint) model.Museum {
	t.Helper()
	museum := model.Museum{Name: name, AuthorityID: authorityID}
	require.NoError(t, e.store.DB().Create(&museum).Error)
	return museum
}

// asUser attaches the auth cookie the external account app would have set.
func (e *testEnv) asUser(t *testing.T, req *http.Request, user model.User) {
	t.Helper()
	token, err := auth.IssueToken(user.ID, testJWTSecret)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: e.cfg.Auth.CookieName, Value: token})
}

// get performs a GET and returns the recorder.
func (e *testEnv) get(t *testing.T, path string, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	if user != nil {
		e.asUser(t, req, *user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// postForm performs a form POST and returns the recorder.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != nil {
		e.asUser(t, req, *user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
