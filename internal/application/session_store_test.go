package application

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	requester *mockRequester
	storage   *memoryStorage
	alerts    *AlertQueue
	navigator *recordingNavigator
}

func newSessionFixture() *sessionFixture {
	return &sessionFixture{
		requester: &mockRequester{},
		storage:   newMemoryStorage(),
		alerts:    NewAlertQueue(newFakeClock(), time.Second, nil),
		navigator: &recordingNavigator{},
	}
}

func (f *sessionFixture) store(t *testing.T, policy domain.VerifyPolicy) *SessionStore {
	t.Helper()

	return NewSessionStore(context.Background(), SessionStoreOptions{
		Requester:    f.requester,
		Storage:      f.storage,
		Notifier:     f.alerts,
		Navigator:    f.navigator,
		VerifyPolicy: policy,
	})
}

func (f *sessionFixture) seedSession(t *testing.T, token, user string) {
	t.Helper()

	require.NoError(t, f.storage.SetItem(context.Background(), domain.StorageKeyToken, token))
	require.NoError(t, f.storage.SetItem(context.Background(), domain.StorageKeyUser, user))
}

func isLoginRequest(req ports.Request) bool {
	data, ok := req.Data.(map[string]string)
	return req.Method == http.MethodPost && req.Endpoint == loginEndpoint && ok && data["code"] == "C"
}

func TestSessionStoreLoginSuccess(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")
	f.requester.
		On("Request", mockAnyContext(), mock.MatchedBy(isLoginRequest)).
		Return(jsonResponse(http.StatusOK, `{"user":{"id":1},"token":"abc","role":0}`), nil).
		Once()

	require.NoError(t, store.Login(context.Background(), "C"))

	assert.True(t, store.IsLoggedIn())
	assert.Equal(t, "abc", store.Token())
	assert.Equal(t, domain.RoleUser, store.Role())
	require.NotNil(t, store.User())
	assert.Equal(t, "1", store.User().ID)

	token, err := f.storage.GetItem(context.Background(), domain.StorageKeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	user, err := f.storage.GetItem(context.Background(), domain.StorageKeyUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, user)

	pending := f.alerts.Pending()
	assert.Equal(t, []domain.Severity{domain.SeverityInfo, domain.SeveritySuccess}, severities(pending))
	assert.Equal(t, []string{msgLoggingIn, msgLoggedIn}, messages(pending))
	f.requester.AssertExpectations(t)
}

func TestSessionStoreLoginKeepsAdminRole(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")
	f.requester.
		On("Request", mockAnyContext(), mock.Anything).
		Return(jsonResponse(http.StatusOK, `{"user":{"id":"42","username":"ada"},"token":"t","role":1}`), nil)

	require.NoError(t, store.Login(context.Background(), "C"))
	assert.Equal(t, domain.RoleAdmin, store.Role())
	assert.Equal(t, "ada", store.User().DisplayName())
}

func TestSessionStoreRoleSurvivesRestart(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")
	f.requester.
		On("Request", mockAnyContext(), mock.Anything).
		Return(jsonResponse(http.StatusOK, `{"user":{"id":"42","username":"ada"},"token":"t","role":1}`), nil)

	require.NoError(t, store.Login(context.Background(), "C"))

	restarted := f.store(t, "")
	assert.True(t, restarted.IsLoggedIn())
	assert.Equal(t, domain.RoleAdmin, restarted.Role())
	assert.Equal(t, "ada", restarted.User().DisplayName())
}

func TestSessionStoreRestoreIgnoresCorruptRole(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1"}`)
	require.NoError(t, f.storage.SetItem(context.Background(), domain.StorageKeyRole, "admin"))

	store := f.store(t, "")
	assert.True(t, store.IsLoggedIn())
	assert.Equal(t, domain.RoleUser, store.Role())
}

func TestSessionStoreLoginFailureMapsErrorCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "demo user",
			err:  &domain.HTTPError{Status: http.StatusForbidden, Body: []byte(`{"code":"disabled-demo-user"}`)},
			want: domain.LoginFailureMessage(domain.LoginErrorDisabledDemoUser),
		},
		{
			name: "disabled account",
			err:  &domain.HTTPError{Status: http.StatusForbidden, Body: []byte(`{"error":"disabled-account"}`)},
			want: domain.LoginFailureMessage(domain.LoginErrorDisabledAccount),
		},
		{
			name: "unknown code",
			err:  &domain.HTTPError{Status: http.StatusInternalServerError, Body: []byte(`oops`)},
			want: domain.LoginFailureMessage(""),
		},
		{
			name: "network",
			err:  domain.ErrNetwork,
			want: domain.LoginFailureMessage(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newSessionFixture()
			store := f.store(t, "")
			f.requester.On("Request", mockAnyContext(), mock.Anything).Return(nil, tt.err)

			err := store.Login(context.Background(), "C")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err))

			assert.False(t, store.IsLoggedIn())
			assert.Nil(t, store.User())
			assert.False(t, f.storage.has(domain.StorageKeyToken))
			assert.False(t, f.storage.has(domain.StorageKeyUser))

			pending := f.alerts.Pending()
			assert.Equal(t, []domain.Severity{domain.SeverityInfo, domain.SeverityError}, severities(pending))
			assert.Equal(t, tt.want, pending[1].Message)
		})
	}
}

func TestSessionStoreLoginFailureKeepsExistingSession(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "old", `{"id":"7","username":"old"}`)
	store := f.store(t, "")
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(nil, &domain.HTTPError{Status: http.StatusBadRequest})

	require.Error(t, store.Login(context.Background(), "C"))
	assert.Equal(t, "old", store.Token())
	assert.Equal(t, "7", store.User().ID)
}

func TestSessionStoreLoginRejectsMissingToken(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(jsonResponse(http.StatusOK, `{"user":{"id":1}}`), nil)

	require.Error(t, store.Login(context.Background(), "C"))
	assert.False(t, store.IsLoggedIn())
	assert.False(t, f.storage.has(domain.StorageKeyToken))
}

func TestSessionStoreLoginRollsBackWhenUserWriteFails(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")
	f.storage.failSet[domain.StorageKeyUser] = errStorageDown
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(jsonResponse(http.StatusOK, `{"user":{"id":1},"token":"abc"}`), nil)

	err := store.Login(context.Background(), "C")
	require.ErrorIs(t, err, errStorageDown)
	assert.False(t, store.IsLoggedIn())
	assert.False(t, f.storage.has(domain.StorageKeyToken))
}

func TestSessionStoreLoginRollsBackWhenRoleWriteFails(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")
	f.storage.failSet[domain.StorageKeyRole] = errStorageDown
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(jsonResponse(http.StatusOK, `{"user":{"id":1},"token":"abc","role":1}`), nil)

	err := store.Login(context.Background(), "C")
	require.ErrorIs(t, err, errStorageDown)
	assert.False(t, store.IsLoggedIn())
	assert.False(t, f.storage.has(domain.StorageKeyToken))
	assert.False(t, f.storage.has(domain.StorageKeyUser))
}

func TestSessionStoreRestoresPersistedSession(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1","avatar":"hash","extra":true}`)

	store := f.store(t, "")
	assert.True(t, store.IsLoggedIn())
	assert.Equal(t, "https://cdn.discordapp.com/avatars/1/hash.png", store.AvatarURL())
	assert.Equal(t, domain.RoleUser, store.Role())
}

func TestSessionStoreRestoreIgnoresCorruptUser(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{broken`)

	store := f.store(t, "")
	assert.True(t, store.IsLoggedIn())
	assert.Nil(t, store.User())
	assert.Empty(t, store.AvatarURL())
}

func TestSessionStoreLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1"}`)
	require.NoError(t, f.storage.SetItem(context.Background(), domain.StorageKeyRole, "1"))
	store := f.store(t, "")
	require.Equal(t, domain.RoleAdmin, store.Role())

	require.NoError(t, store.Logout(context.Background(), false))

	assert.False(t, store.IsLoggedIn())
	assert.Nil(t, store.User())
	assert.False(t, f.storage.has(domain.StorageKeyToken))
	assert.False(t, f.storage.has(domain.StorageKeyUser))
	assert.False(t, f.storage.has(domain.StorageKeyRole))
	assert.Equal(t, domain.RoleUser, store.Role())
	assert.Equal(t, []string{domain.RootPath}, f.navigator.visited())
	assert.Empty(t, f.alerts.Pending())
}

func TestSessionStoreForcedLogoutWarnsOnce(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1"}`)
	store := f.store(t, "")

	require.NoError(t, store.Logout(context.Background(), true))
	require.NoError(t, store.Logout(context.Background(), true))

	pending := f.alerts.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, domain.SeverityWarning, pending[0].Severity)
	assert.Equal(t, msgForcedLogout, pending[0].Message)
	assert.Equal(t, []string{domain.RootPath, domain.RootPath}, f.navigator.visited())
}

func TestSessionStoreVerifySkipsWhenLoggedOut(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	store := f.store(t, "")

	require.NoError(t, store.VerifyTokenIsStillValid(context.Background()))
	f.requester.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)
}

func TestSessionStoreVerifyLogsOutOnRejectedToken(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()

			f := newSessionFixture()
			f.seedSession(t, "abc", `{"id":"1"}`)
			store := f.store(t, "")
			f.requester.
				On("Request", mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Endpoint == meEndpoint })).
				Return(nil, &domain.HTTPError{Status: status})

			err := store.VerifyTokenIsStillValid(context.Background())
			require.Error(t, err)
			code, ok := domain.StatusOf(err)
			require.True(t, ok)
			assert.Equal(t, status, code)

			assert.False(t, store.IsLoggedIn())
			assert.False(t, f.storage.has(domain.StorageKeyToken))
			assert.Equal(t, []string{msgForcedLogout}, messages(f.alerts.Pending()))
			assert.Equal(t, []string{domain.RootPath}, f.navigator.visited())
		})
	}
}

func TestSessionStoreVerifyAuthOnlyKeepsSessionOnServerError(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1"}`)
	store := f.store(t, domain.VerifyPolicyAuthOnly)
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(nil, &domain.HTTPError{Status: http.StatusInternalServerError})

	err := store.VerifyTokenIsStillValid(context.Background())
	require.ErrorIs(t, err, domain.ErrValidationSession)

	assert.True(t, store.IsLoggedIn())
	assert.Empty(t, f.alerts.Pending())
	assert.Empty(t, f.navigator.visited())
}

func TestSessionStoreVerifyStrictWarnsAndNavigatesOnNetworkError(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1"}`)
	store := f.store(t, domain.VerifyPolicyStrict)
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(nil, domain.ErrNetwork)

	err := store.VerifyTokenIsStillValid(context.Background())
	require.ErrorIs(t, err, domain.ErrValidationSession)
	require.ErrorIs(t, err, domain.ErrNetwork)

	assert.True(t, store.IsLoggedIn())
	assert.Equal(t, []domain.Severity{domain.SeverityWarning}, severities(f.alerts.Pending()))
	assert.Equal(t, []string{domain.RootPath}, f.navigator.visited())
}

func TestSessionStoreVerifyRefreshesRole(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.seedSession(t, "abc", `{"id":"1"}`)
	store := f.store(t, "")
	f.requester.On("Request", mockAnyContext(), mock.Anything).Return(jsonResponse(http.StatusOK, `{"id":"1","role":1}`), nil)

	require.NoError(t, store.VerifyTokenIsStillValid(context.Background()))
	assert.Equal(t, domain.RoleAdmin, store.Role())

	stored, err := f.storage.GetItem(context.Background(), domain.StorageKeyRole)
	require.NoError(t, err)
	assert.Equal(t, "1", stored)
}

func TestSessionStoreTokenExpiry(t *testing.T) {
	t.Parallel()

	expires := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	f := newSessionFixture()
	f.seedSession(t, token, `{"id":"1"}`)
	store := f.store(t, "")
	assert.True(t, expires.Equal(store.TokenExpiry()))

	opaque := newSessionFixture()
	opaque.seedSession(t, "not-a-jwt", `{"id":"1"}`)
	assert.True(t, opaque.store(t, "").TokenExpiry().IsZero())
}
