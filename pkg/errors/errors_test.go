package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hirestore/hs-order/pkg/status"
	"github.com/stretchr/testify/assert"
)

func TestDestruct(t *testing.T) {
	err := New(http.StatusNotFound, status.PAYMENT_NOT_FOUND, "payment not found")

	ae := Destruct(err)
	assert.Equal(t, http.StatusNotFound, ae.HTTPStatusCode)
	assert.Equal(t, status.PAYMENT_NOT_FOUND, ae.Status)
	assert.Equal(t, "payment not found", ae.Message)

	wrapped := fmt.Errorf("verify: %w", err)
	assert.Equal(t, status.PAYMENT_NOT_FOUND, Destruct(wrapped).Status)
}

func TestDestruct_PlainError(t *testing.T) {
	ae := Destruct(stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, ae.HTTPStatusCode)
	assert.Equal(t, status.INTERNAL_SERVER_ERROR, ae.Status)
	assert.Equal(t, "boom", ae.Message)
}

func TestHasStatus(t *testing.T) {
	err := New(http.StatusBadGateway, status.GATEWAY_REJECTED, "rejected")
	assert.True(t, HasStatus(err, status.GATEWAY_REJECTED))
	assert.False(t, HasStatus(err, status.GATEWAY_TIMEOUT))
	assert.False(t, HasStatus(stderrors.New("x"), status.GATEWAY_REJECTED))
}
