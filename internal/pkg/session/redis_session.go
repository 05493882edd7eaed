package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Session interface {
	Set(ctx context.Context, key string, acc Account, ttl time.Duration) error
	Get(ctx context.Context, key string) (Account, error)
	Delete(ctx context.Context, key string) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	rc     *redis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, rc *redis.Client) Session {
	return &redisSessionStore{
		logger: logger,
		rc:     rc,
	}
}

func sessionKey(key string) string {
	return fmt.Sprintf("session:%s", key)
}

// Set implements Session.
func (s *redisSessionStore) Set(ctx context.Context, key string, acc Account, ttl time.Duration) error {
	buff, _ := json.Marshal(acc)

	if err := s.rc.Set(ctx, sessionKey(key), buff, ttl).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving session")
	}

	return nil
}

// Get implements Session.
func (s *redisSessionStore) Get(ctx context.Context, key string) (Account, error) {
	buff, err := s.rc.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is expired or invalid")
		}
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting session")
	}

	var acc Account
	if err := json.Unmarshal(buff, &acc); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is expired or invalid")
	}

	return acc, nil
}

// Delete implements Session.
func (s *redisSessionStore) Delete(ctx context.Context, key string) error {
	if err := s.rc.Del(ctx, sessionKey(key)).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting session")
	}

	return nil
}
