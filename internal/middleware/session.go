package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const SessionIDKey contextKey = "sessionID"

const (
	// CookieName holds the signed session token.
	CookieName = "chef_session"
	// Issuer is the iss claim of session tokens.
	Issuer = "chef-digital"
)

// Sessions issues and validates the signed session token that identifies a browser.
// Sessions are anonymous: a request without a valid token gets a new one.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions creates a session token issuer. An empty secret is replaced by a
// random one, so tokens do not survive a restart.
func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("failed to generate session secret: " + err.Error())
		}
		slog.Warn("SESSION_SECRET is not set, using a random per-process secret")
	}
	return &Sessions{secret: key, ttl: ttl, secure: secure, now: time.Now}
}

// IssueToken signs a token for sessionID.
func (s *Sessions) IssueToken(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates tokenString and returns its session ID.
func (s *Sessions) ParseToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Sessions) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing sub claim")
	}
	return claims, nil
}

// Middleware resolves the session from a Bearer token or the session cookie,
// issuing a fresh session and cookie when neither is valid. A session cookie past
// half its lifetime is re-issued, so active sessions do not expire.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, refresh, ok := s.fromRequest(r)
		if !ok {
			sessionID, refresh = uuid.NewString(), true
		}

		if refresh {
			if err := s.setCookie(w, sessionID); err != nil {
				slog.ErrorContext(r.Context(), "Failed to issue session token", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

func (s *Sessions) setCookie(w http.ResponseWriter, sessionID string) error {
	token, err := s.IssueToken(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// fromRequest returns the session ID of a valid token and whether its cookie is due
// for renewal. Bearer tokens are managed by the client and never renewed.
func (s *Sessions) fromRequest(r *http.Request) (sessionID string, refresh bool, ok bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := s.parse(parts[1]); err == nil {
				return claims.Subject, false, true
			}
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		if claims, err := s.parse(cookie.Value); err == nil {
			remaining := claims.ExpiresAt.Sub(s.now())
			return claims.Subject, remaining < s.ttl/2, true
		}
	}
	return "", false, false
}

// WithSessionID stores a session ID in ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID extracts the session ID from request context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(string)
	return sessionID, ok && sessionID != ""
}
