package jwt

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AccountClaims is the token payload issued by the account service. The
// session id points at the redis session holding the account.
type AccountClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewJSONWebToken parses PEM encoded RSA keys. Either key may be empty: a
// verifier only needs the public key.
func NewJSONWebToken(privateKey, publicKey []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if len(privateKey) > 0 {
		if k, err := jwt.ParseRSAPrivateKeyFromPEM(privateKey); err == nil {
			j.privateKey = k
		}
	}

	if len(publicKey) > 0 {
		if k, err := jwt.ParseRSAPublicKeyFromPEM(publicKey); err == nil {
			j.publicKey = k
		}
	}

	return j
}

func (j *JSONWebToken) Sign(ctx context.Context, claims AccountClaims) (string, error) {
	if j.privateKey == nil {
		return "", fmt.Errorf("jwt: private key is not configured")
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(j.privateKey)
}

func (j *JSONWebToken) Parse(ctx context.Context, tokenString string) (AccountClaims, error) {
	if j.publicKey == nil {
		return AccountClaims{}, fmt.Errorf("jwt: public key is not configured")
	}

	claims := AccountClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return j.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return AccountClaims{}, err
	}

	return claims, nil
}
