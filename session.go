package main

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errInvalidSession = errors.New("invalid session ID")

// TimeoutSessionManager issues UUID session IDs and expires sessions left idle for longer
// than timeout. It implements the mcp-go SessionIdManager interface.
type TimeoutSessionManager struct {
	mu       sync.Mutex
	timeout  time.Duration
	lastSeen map[string]time.Time
	logger   *logrus.Logger
	now      func() time.Time
}

// NewTimeoutSessionManager creates a session manager with the given idle timeout
func NewTimeoutSessionManager(timeout time.Duration, logger *logrus.Logger) *TimeoutSessionManager {
	return &TimeoutSessionManager{
		timeout:  timeout,
		lastSeen: make(map[string]time.Time),
		logger:   logger,
		now:      time.Now,
	}
}

// Generate creates and tracks a new session ID
func (t *TimeoutSessionManager) Generate() string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpired()
	t.lastSeen[id] = t.now()

	t.logger.WithField("session_id", id).Debug("Session created")
	return id
}

// Validate reports whether the session has been terminated or has expired. Malformed IDs
// are an error; unknown IDs are treated as terminated so clients re-initialise.
func (t *TimeoutSessionManager) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID == "" {
		return false, errInvalidSession
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, errInvalidSession
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seen, ok := t.lastSeen[sessionID]
	if !ok {
		return true, nil
	}
	now := t.now()
	if now.Sub(seen) > t.timeout {
		delete(t.lastSeen, sessionID)
		t.logger.WithField("session_id", sessionID).Debug("Session expired")
		return true, nil
	}

	t.lastSeen[sessionID] = now
	return false, nil
}

// Terminate forgets the session
func (t *TimeoutSessionManager) Terminate(sessionID string) (isNotAllowed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.lastSeen, sessionID)
	t.logger.WithField("session_id", sessionID).Debug("Session terminated")
	return false, nil
}

// evictExpired drops idle sessions. The caller holds mu.
func (t *TimeoutSessionManager) evictExpired() {
	now := t.now()
	for id, seen := range t.lastSeen {
		if now.Sub(seen) > t.timeout {
			delete(t.lastSeen, id)
		}
	}
}

// requireBearerToken rejects requests whose Authorization header does not carry token
func requireBearerToken(token string, logger *logrus.Logger, next http.Handler) http.Handler {
	const bearerPrefix = "Bearer "

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			logger.WithField("remote_addr", r.RemoteAddr).Warn("Request missing bearer token")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}

		presented := strings.TrimPrefix(authHeader, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			logger.WithField("remote_addr", r.RemoteAddr).Warn("Invalid authentication token")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
