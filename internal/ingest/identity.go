package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/abhisek/repertoire/internal/practice"
	"github.com/abhisek/repertoire/internal/store"
)

// DefaultTokenTTL is the lifetime of issued caller tokens.
const DefaultTokenTTL = 24 * time.Hour

// TokenResolver maps HS256-signed caller tokens to performer profiles. The
// token subject is the performer id.
type TokenResolver struct {
	secret     []byte
	ttl        time.Duration
	performers store.PerformerRepo
}

// NewTokenResolver creates a resolver that verifies tokens with secret and
// checks the subject against performers. A ttl of zero uses DefaultTokenTTL.
func NewTokenResolver(secret string, ttl time.Duration, performers store.PerformerRepo) *TokenResolver {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenResolver{secret: []byte(secret), ttl: ttl, performers: performers}
}

// IssueToken signs a token for performerID.
func (r *TokenResolver) IssueToken(performerID string) (string, error) {
	if len(r.secret) == 0 {
		return "", errors.New("token secret is not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   performerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// ResolvePerformer verifies token and returns its performer id. Any
// verification failure, or a subject with no profile, is reported as
// *practice.ErrIdentityNotFound.
func (r *TokenResolver) ResolvePerformer(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", &practice.ErrIdentityNotFound{Err: errors.New("missing caller token")}
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", &practice.ErrIdentityNotFound{Err: fmt.Errorf("invalid caller token: %w", err)}
	}
	if claims.Subject == "" {
		return "", &practice.ErrIdentityNotFound{Err: errors.New("caller token has no subject")}
	}

	if _, err := r.performers.Get(ctx, claims.Subject); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", &practice.ErrIdentityNotFound{Err: fmt.Errorf("no profile for %q", claims.Subject)}
		}
		return "", &practice.ErrStorage{Op: "resolve performer", Err: err}
	}
	return claims.Subject, nil
}
