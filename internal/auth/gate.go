package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"tournament-results/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

const issuer = "tournament-results"

// Gate is a single shared-secret view gate. It only decides whether a
// caller may use the dashboard; there are no users.
type Gate struct {
	password   []byte
	signingKey []byte
	ttl        time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewGate(cfg *config.Config, logger zerolog.Logger) *Gate {
	if cfg.GatePassword == "" {
		logger.Warn().Msg("GATE_PASSWORD not set, view gate disabled")
	}
	return &Gate{
		password:   []byte(cfg.GatePassword),
		signingKey: []byte(cfg.GateSigningKey),
		ttl:        cfg.GateTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func (g *Gate) Enabled() bool { return len(g.password) > 0 }

func (g *Gate) Login(password string) (string, time.Time, error) {
	if !g.Enabled() {
		return "", time.Time{}, nil
	}
	if subtle.ConstantTimeCompare([]byte(password), g.password) != 1 {
		return "", time.Time{}, ErrInvalidPassword
	}

	now := g.now()
	expires := now.Add(g.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(g.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

func (g *Gate) Verify(raw string) error {
	_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return g.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}

// Middleware rejects requests without a valid bearer token. Paths in open
// pass through.
func (g *Gate) Middleware(open ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !g.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range open {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, `{"error":"login required"}`, http.StatusUnauthorized)
				return
			}
			if err := g.Verify(raw); err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected gate token")
				http.Error(w, `{"error":"login required"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
