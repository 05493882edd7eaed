package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hirestore/hs-order/internal/pkg/jwt"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/response"
	"github.com/hirestore/hs-order/pkg/status"
)

const (
	customerSessionPrefix = "customer"
	adminSessionPrefix    = "admin"
)

type CustomerSession struct {
	jsonWebToken *jwt.JSONWebToken
	session      session.Session
}

func NewCustomerSessionMiddleware(jsonWebToken *jwt.JSONWebToken, session session.Session) *CustomerSession {
	return &CustomerSession{
		jsonWebToken: jsonWebToken,
		session:      session,
	}
}

func (cs *CustomerSession) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, err := authenticate(r, cs.jsonWebToken, cs.session, customerSessionPrefix)
		if err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.SetAccountToCtx(r.Context(), acc)))
	})
}

// AdminSession authenticates store owners. The session must carry the store
// the owner manages.
type AdminSession struct {
	jsonWebToken *jwt.JSONWebToken
	session      session.Session
}

func NewAdminSessionMiddleware(jsonWebToken *jwt.JSONWebToken, session session.Session) *AdminSession {
	return &AdminSession{
		jsonWebToken: jsonWebToken,
		session:      session,
	}
}

func (as *AdminSession) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, err := authenticate(r, as.jsonWebToken, as.session, adminSessionPrefix)
		if err != nil {
			writeError(w, err)
			return
		}

		if acc.StoreID == 0 {
			writeError(w, errors.New(http.StatusForbidden, status.FORBIDDEN, "account does not manage a store"))
			return
		}

		next.ServeHTTP(w, r.WithContext(session.SetAccountToCtx(r.Context(), acc)))
	})
}

func authenticate(r *http.Request, jsonWebToken *jwt.JSONWebToken, store session.Session, prefix string) (session.Account, error) {
	ctx := r.Context()

	authorization := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || token == "" {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "missing bearer token")
	}

	claims, err := jsonWebToken.Parse(ctx, token)
	if err != nil {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid bearer token")
	}

	return store.Get(ctx, fmt.Sprintf("%s:%s", prefix, claims.SessionID))
}

func writeError(w http.ResponseWriter, err error) {
	ae := errors.Destruct(err)
	response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
		Status:  ae.Status,
		Message: ae.Message,
	})
}
