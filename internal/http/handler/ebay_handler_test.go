package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/repricelab/ebay-connect/internal/config"
	"github.com/repricelab/ebay-connect/internal/domain"
	"github.com/repricelab/ebay-connect/internal/domain/ebay"
	httptransport "github.com/repricelab/ebay-connect/internal/http"
	"github.com/repricelab/ebay-connect/internal/http/handler"
	"github.com/repricelab/ebay-connect/internal/http/middleware"
	"github.com/repricelab/ebay-connect/internal/jwt"
	"github.com/repricelab/ebay-connect/internal/service"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) GetByID(_ context.Context, userID int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return user, nil
}

// stubLinkService lets each test pin the behavior of one operation.
type stubLinkService struct {
	initiateErr error
	callbackErr error
	account     ebay.Account
	accounts    []ebay.Account
	opErr       error
	inventory   *ebay.Inventory

	gotUserID    int64
	gotAccountID int64
}

func (s *stubLinkService) InitiateOAuth(_ context.Context, userID int64, creds ebay.Credentials) (string, error) {
	s.gotUserID = userID
	if s.initiateErr != nil {
		return "", s.initiateErr
	}
	return "https://signin.ebay.com/oauth2/authorize?client_id=" + creds.AppID, nil
}

func (s *stubLinkService) CompleteCallback(_ context.Context, userID int64, _ string) (*ebay.Account, error) {
	s.gotUserID = userID
	if s.callbackErr != nil {
		return nil, s.callbackErr
	}
	return &s.account, nil
}

func (s *stubLinkService) Accounts(_ context.Context, userID int64) ([]ebay.Account, error) {
	s.gotUserID = userID
	return s.accounts, s.opErr
}

func (s *stubLinkService) Disconnect(_ context.Context, userID, accountID int64) error {
	s.gotUserID, s.gotAccountID = userID, accountID
	return s.opErr
}

func (s *stubLinkService) RefreshToken(_ context.Context, userID, accountID int64) error {
	s.gotUserID, s.gotAccountID = userID, accountID
	return s.opErr
}

func (s *stubLinkService) SyncInventory(_ context.Context, userID, accountID int64) (*ebay.Inventory, error) {
	s.gotUserID, s.gotAccountID = userID, accountID
	if s.opErr != nil {
		return nil, s.opErr
	}
	return s.inventory, nil
}

type testEnv struct {
	router *gin.Engine
	link   *stubLinkService
	token  string
	userID int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cfg := config.Config{ServiceName: "ebay-connect-test"}
	users := &memUserRepo{users: make(map[int64]domain.User)}
	authSvc := service.NewAuthService(users, node, jwt.NewGenerator("test-secret-test-secret-test-secret", time.Hour), cfg, zap.NewNop())
	link := &stubLinkService{}

	router := httptransport.NewRouter(
		cfg,
		handler.NewAuthHandler(authSvc),
		handler.NewEbayHandler(link),
		&middleware.Auth{AuthService: authSvc},
		nil,
	)

	session, err := authSvc.Register(context.Background(), "seller@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	return &testEnv{router: router, link: link, token: session.Token, userID: session.User.ID}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestEbayRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/ebay/initiate-oauth"},
		{http.MethodGet, "/ebay/callback"},
		{http.MethodGet, "/ebay/accounts"},
		{http.MethodDelete, "/ebay/accounts/1"},
		{http.MethodPut, "/ebay/accounts/1/refresh"},
		{http.MethodGet, "/ebay/accounts/1/sync"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestInitiateOAuthReturnsAuthURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/ebay/initiate-oauth", `{"appId":"a","certId":"c","devId":"d"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp["authURL"], "client_id=a")
	require.Equal(t, env.userID, env.link.gotUserID)
}

func TestInitiateOAuthInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.link.initiateErr = ebay.ErrInvalidCredentials

	w := env.do(t, http.MethodPost, "/ebay/initiate-oauth", `{"appId":"a"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackReturnsAccountIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.link.account = ebay.Account{ID: 1234, EbayUserID: "ebay-user-1"}

	w := env.do(t, http.MethodGet, "/ebay/callback?code=auth-code", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "1234", resp["ebayAccountId"])
	require.Equal(t, "ebay-user-1", resp["ebayUserId"])
}

func TestCallbackErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"missing code", ebay.ErrCodeMissing, http.StatusBadRequest},
		{"no pending credentials", ebay.ErrCredentialsMissing, http.StatusBadRequest},
		{"upstream rejection", &ebay.UpstreamError{Status: 400, Message: "invalid_grant"}, http.StatusBadGateway},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.link.callbackErr = tc.err

			w := env.do(t, http.MethodGet, "/ebay/callback?code=x", "")
			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestAccountsRedactsSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.link.accounts = []ebay.Account{{
		ID:           1234,
		EbayUserID:   "ebay-user-1",
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
		Credentials:  ebay.Credentials{AppID: "app-id", CertID: "secret-cert", DevID: "secret-dev"},
		IsActive:     true,
	}}

	w := env.do(t, http.MethodGet, "/ebay/accounts", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	require.Contains(t, body, `"appId":"app-id"`)
	require.Contains(t, body, `"ebayUserId":"ebay-user-1"`)
	require.NotContains(t, body, "secret-access")
	require.NotContains(t, body, "secret-refresh")
	require.NotContains(t, body, "secret-cert")
	require.NotContains(t, body, "secret-dev")
}

func TestAccountRoutesRejectMalformedID(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/ebay/accounts/abc",
		"/ebay/accounts/-5",
		"/ebay/accounts/0",
	} {
		w := env.do(t, http.MethodDelete, path, "")
		require.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	// No lookup happened for malformed ids.
	require.Zero(t, env.link.gotAccountID)
}

func TestDisconnectNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.link.opErr = ebay.ErrAccountNotFound

	w := env.do(t, http.MethodDelete, "/ebay/accounts/1234", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshSuccess(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/ebay/accounts/1234/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(1234), env.link.gotAccountID)
	require.Equal(t, env.userID, env.link.gotUserID)
}

func TestRefreshUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.link.opErr = &ebay.UpstreamError{Status: 401, Message: "expired refresh token"}

	w := env.do(t, http.MethodPut, "/ebay/accounts/1234/refresh", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSyncReturnsItems(t *testing.T) {
	env := newTestEnv(t)
	env.link.inventory = &ebay.Inventory{
		Items: []ebay.InventoryItem{{SKU: "SKU-1"}},
		Total: 1,
	}

	w := env.do(t, http.MethodGet, "/ebay/accounts/1234/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "SKU-1")
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"seller@example.com","password":"s3cret-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+resp.Token)
	meW := httptest.NewRecorder()
	env.router.ServeHTTP(meW, me)
	require.Equal(t, http.StatusOK, meW.Code)
	require.Contains(t, meW.Body.String(), "seller@example.com")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{}`,
		`{"email":"not-an-email","password":"s3cret-pass"}`,
		`{"email":"a@b.com","password":"short"}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}
