package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type call struct {
	gatewayCode string
	reference   string
	method      string
	url         string
	header      http.Header
	payload     interface{}
}

// do sends a JSON request and decodes a 2xx response into out. It returns the
// raw response body so callers can keep it alongside the outcome.
func do(ctx context.Context, logger *logrus.Logger, hc *http.Client, c call, out interface{}) (string, error) {
	entry := logger.WithContext(ctx).WithFields(logrus.Fields{
		"gateway_code": c.gatewayCode,
		"reference":    c.reference,
	})

	var body io.Reader
	if c.payload != nil {
		buff, err := json.Marshal(c.payload)
		if err != nil {
			entry.WithError(err).Error()
			return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, fmt.Sprintf("an error occurred while building %s request", c.gatewayCode))
		}
		body = bytes.NewBuffer(buff)
	}

	hr, err := http.NewRequestWithContext(ctx, c.method, c.url, body)
	if err != nil {
		entry.WithError(err).Error()
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, fmt.Sprintf("an error occurred while building %s request", c.gatewayCode))
	}

	hr.Header.Add("Content-Type", "application/json")
	hr.Header.Add("Accept", "application/json")
	for k, vs := range c.header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}

	hresp, err := hc.Do(hr)
	if err != nil {
		entry.WithError(err).Error()
		if isTimeout(ctx, err) {
			return "", errors.New(http.StatusGatewayTimeout, status.GATEWAY_TIMEOUT, fmt.Sprintf("%s did not respond in time", c.gatewayCode))
		}
		return "", errors.New(http.StatusBadGateway, status.GATEWAY_UNREACHABLE, fmt.Sprintf("%s is unreachable", c.gatewayCode))
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		entry.WithError(err).Error()
		if isTimeout(ctx, err) {
			return "", errors.New(http.StatusGatewayTimeout, status.GATEWAY_TIMEOUT, fmt.Sprintf("%s did not respond in time", c.gatewayCode))
		}
		return "", errors.New(http.StatusBadGateway, status.GATEWAY_UNREACHABLE, fmt.Sprintf("an error occurred while reading %s response", c.gatewayCode))
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		entry.WithFields(logrus.Fields{
			"http_status": hresp.StatusCode,
			"response":    string(respBody),
		}).Error("gateway rejected the request")
		return string(respBody), errors.New(http.StatusBadGateway, status.GATEWAY_REJECTED, fmt.Sprintf("%s rejected the request", c.gatewayCode))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			entry.WithError(err).WithField("response", string(respBody)).Error()
			return string(respBody), errors.New(http.StatusBadGateway, status.GATEWAY_REJECTED, fmt.Sprintf("%s returned an unreadable response", c.gatewayCode))
		}
	}

	return string(respBody), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

// rejected logs a 2xx response whose payload reports a failure.
func rejected(ctx context.Context, logger *logrus.Logger, gatewayCode, reference, raw, message string) error {
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"gateway_code": gatewayCode,
		"reference":    reference,
		"response":     raw,
	}).Error(message)
	return errors.New(http.StatusBadGateway, status.GATEWAY_REJECTED, message)
}
