package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/hirestore/hs-order/internal/pkg/jwt"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySession map[string]session.Account

func (m memorySession) Set(ctx context.Context, key string, acc session.Account, ttl time.Duration) error {
	m[key] = acc
	return nil
}

func (m memorySession) Get(ctx context.Context, key string) (session.Account, error) {
	acc, ok := m[key]
	if !ok {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is expired or invalid")
	}
	return acc, nil
}

func (m memorySession) Delete(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

func newJWT(t *testing.T) *jwt.JSONWebToken {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return jwt.NewJSONWebToken(
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	)
}

func signedRequest(t *testing.T, j *jwt.JSONWebToken, sid string) *http.Request {
	t.Helper()

	token, err := j.Sign(context.Background(), jwt.AccountClaims{
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
		SessionID:        sid,
	})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestCustomerSession_Verify(t *testing.T) {
	j := newJWT(t)
	store := memorySession{"customer:s1": {ID: 9, Email: "c@example.com"}}
	cs := NewCustomerSessionMiddleware(j, store)

	var got session.Account
	h := cs.Verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.GetAccountFromCtx(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, j, "s1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), got.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, j, "unknown"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminSession_RequiresStore(t *testing.T) {
	j := newJWT(t)
	store := memorySession{
		"admin:owner":    {ID: 1, StoreID: 4},
		"admin:no-store": {ID: 2},
	}
	as := NewAdminSessionMiddleware(j, store)
	h := as.Verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, j, "owner"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, j, "no-store"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
