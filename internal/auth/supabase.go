package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKeyIdentity struct{}

// Identity is the authenticated caller taken from a verified access token.
type Identity struct {
	UserID string
	Email  string
}

// SupabaseVerifier validates Supabase access tokens signed either with one of
// the project's asymmetric keys (RS256 or ES256, given as a static PEM/JWKS
// or a JWKS URL) or with the legacy HS256 shared secret.
type SupabaseVerifier struct {
	PublicKeyPEMOrJWKS string
	JWKSURL            string
	Secret             string
	Audience           string
	Issuer             string
	HTTP               *http.Client

	parseOnce sync.Once
	parsedKey any
	parseErr  error
	cache     jwksCache
}

func (v *SupabaseVerifier) staticKey() (any, error) {
	v.parseOnce.Do(func() {
		str := strings.TrimSpace(v.PublicKeyPEMOrJWKS)
		if str == "" {
			return
		}
		// JSON means a JWKS document; its first key is used
		if strings.HasPrefix(str, "{") {
			var set jwks
			if err := json.Unmarshal([]byte(str), &set); err != nil {
				v.parseErr = err
				return
			}
			if len(set.Keys) == 0 {
				v.parseErr = errors.New("jwks empty")
				return
			}
			v.parsedKey, v.parseErr = decodeJWK(set.Keys[0])
			return
		}
		if k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(str)); err == nil {
			v.parsedKey = k
			return
		}
		v.parsedKey, v.parseErr = jwt.ParseECPublicKeyFromPEM([]byte(str))
	})
	return v.parsedKey, v.parseErr
}

// publicKey resolves the verification key for an asymmetric token. A key of
// the wrong type for the token's alg is rejected by the signing method.
func (v *SupabaseVerifier) publicKey(ctx context.Context, token *jwt.Token) (any, error) {
	if k, err := v.staticKey(); err != nil {
		return nil, err
	} else if k != nil {
		return k, nil
	}
	if v.JWKSURL == "" {
		return nil, errors.New("no verification key")
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid")
	}
	if k, ok := v.cache.get(kid); ok {
		return k, nil
	}
	if !v.cache.stale(time.Minute) {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	client := v.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	set, err := fetchJWKS(ctx, client, v.JWKSURL)
	if err != nil {
		return nil, err
	}
	v.cache.replace(set)
	if k, ok := v.cache.get(kid); ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown kid %q", kid)
}

func (v *SupabaseVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return v.publicKey(ctx, token)
		case *jwt.SigningMethodHMAC:
			if v.Secret == "" {
				return nil, errors.New("hs256 tokens not accepted")
			}
			return []byte(v.Secret), nil
		default:
			return nil, fmt.Errorf("unexpected method: %v", token.Header["alg"])
		}
	}
}

// Verify parses tok and returns the identity it carries.
func (v *SupabaseVerifier) Verify(ctx context.Context, tok string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "ES256", "HS256"}), jwt.WithExpirationRequired()}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, v.keyFunc(ctx), opts...)
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, errors.New("token has no subject")
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: sub, Email: email}, nil
}

func bearer(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	// cookie fallback for browser requests
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware rejects requests without a valid token.
func (v *SupabaseVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		id, err := v.Verify(r.Context(), tok)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional attaches the identity when a valid token is present and lets
// anonymous or badly authenticated requests through unchanged.
func (v *SupabaseVerifier) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearer(r); tok != "" {
			if id, err := v.Verify(r.Context(), tok); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIdentity{}).(Identity); ok {
		return v.UserID
	}
	return ""
}

func Email(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIdentity{}).(Identity); ok {
		return v.Email
	}
	return ""
}
