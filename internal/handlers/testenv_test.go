package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/config"
	"github.com/mccullochjewellers/storefront/internal/httpx"
	"github.com/mccullochjewellers/storefront/internal/mailer"
	"github.com/mccullochjewellers/storefront/internal/service/token"
	"github.com/mccullochjewellers/storefront/internal/service/verification"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	Users     *UserHandler
	Products  *ProductHandler
	Watches   *WatchHandler
	Favorites *FavoriteHandler

	Tokens        *token.Service
	JWTSecret     []byte
	RefreshSecret []byte
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)

	e := echo.New()
	e.Validator = httpx.NewValidator()
	e.HTTPErrorHandler = httpx.ErrorHandler

	jwtSecret := []byte("test-jwt-secret")
	refreshSecret := []byte("test-refresh-secret")

	tokenService := &token.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	verificationService := &verification.Service{DB: db}

	env := &testEnv{
		T:             t,
		E:             e,
		DB:            db,
		Tokens:        tokenService,
		JWTSecret:     jwtSecret,
		RefreshSecret: refreshSecret,
	}

	env.Users = &UserHandler{
		DB:           db,
		Tokens:       tokenService,
		Verification: verificationService,
		Mailer:       &mailer.Mailer{FrontendURL: "http://localhost:8080"},
		AutoVerify:   true,
	}
	env.Products = &ProductHandler{DB: db}
	env.Watches = &WatchHandler{DB: db}
	env.Favorites = &FavoriteHandler{DB: db}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) requireHTTPError(err error, code int) {
	env.T.Helper()
	var he *echo.HTTPError
	require.ErrorAs(env.T, err, &he)
	require.Equal(env.T, code, he.Code)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (env *testEnv) signup(email, password string) (accessToken, refreshToken string, userID uint) {
	env.T.Helper()
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/users/signup", map[string]any{
		"email":    email,
		"password": password,
	})
	require.NoError(env.T, env.Users.Signup(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)

	resp := decodeEnvelope(env.T, rec)
	data := resp["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return data["accessToken"].(string), data["refreshToken"].(string), uint(user["id"].(float64))
}
