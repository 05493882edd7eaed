package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type HTTPRequestLogger struct {
	logger *logrus.Logger
	debug  bool
	// responses with a status code at or above this are logged as errors
	errorStatusCode int
}

func NewHTTPRequestLogger(logger *logrus.Logger, debug bool, errorStatusCode int) *HTTPRequestLogger {
	return &HTTPRequestLogger{
		logger:          logger,
		debug:           debug,
		errorStatusCode: errorStatusCode,
	}
}

type recorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *recorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (l *HTTPRequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var reqBody []byte
		if l.debug && r.Body != nil {
			reqBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		rec := &recorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := l.logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.statusCode,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": w.Header().Get(HeaderRequestID),
		})

		if l.debug {
			entry = entry.WithFields(logrus.Fields{
				"request_body":  string(reqBody),
				"response_body": rec.body.String(),
			})
		}

		if rec.statusCode >= l.errorStatusCode {
			entry.Error("http request")
			return
		}
		entry.Info("http request")
	})
}
