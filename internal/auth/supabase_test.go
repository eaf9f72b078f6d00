package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rsaToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "u1",
		"email": "alice@example.com",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func rsaJWK(key *rsa.PrivateKey, kid string) jwk {
	return jwk{
		Kid: kid,
		Kty: "RSA",
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}
}

func ecJWK(key *ecdsa.PrivateKey, kid string) jwk {
	return jwk{
		Kid: kid,
		Kty: "EC",
		Alg: "ES256",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(key.PublicKey.X.FillBytes(make([]byte, 32))),
		Y:   base64.RawURLEncoding.EncodeToString(key.PublicKey.Y.FillBytes(make([]byte, 32))),
	}
}

func jwksServer(t *testing.T, hits *atomic.Int32, keys ...jwk) *httptest.Server {
	t.Helper()
	body, err := json.Marshal(jwks{Keys: keys})
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyWithJWKSURL(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	var hits atomic.Int32
	v := &SupabaseVerifier{JWKSURL: jwksServer(t, &hits, rsaJWK(key, "k1")).URL, Audience: "authenticated"}

	for i := 0; i < 2; i++ {
		id, err := v.Verify(context.Background(), rsaToken(t, key, "k1", validClaims()))
		require.NoError(t, err)
		assert.Equal(t, Identity{UserID: "u1", Email: "alice@example.com"}, id)
	}
	assert.EqualValues(t, 1, hits.Load(), "keys are cached by kid")

	_, err = v.Verify(context.Background(), rsaToken(t, key, "unknown", validClaims()))
	assert.Error(t, err)
	assert.EqualValues(t, 1, hits.Load(), "unknown kids do not refetch within the refresh window")
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	var hits atomic.Int32
	v := &SupabaseVerifier{JWKSURL: jwksServer(t, &hits, rsaJWK(key, "k1")).URL, Audience: "authenticated"}
	ctx := context.Background()

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	_, err = v.Verify(ctx, rsaToken(t, key, "k1", expired))
	assert.Error(t, err)

	wrongAud := validClaims()
	wrongAud["aud"] = "anon"
	_, err = v.Verify(ctx, rsaToken(t, key, "k1", wrongAud))
	assert.Error(t, err)

	_, err = v.Verify(ctx, rsaToken(t, other, "k1", validClaims()))
	assert.Error(t, err)

	noSub := validClaims()
	delete(noSub, "sub")
	_, err = v.Verify(ctx, rsaToken(t, key, "k1", noSub))
	assert.Error(t, err)
}

func TestVerifyES256(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	esToken := func(kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodES256, validClaims())
		tok.Header["kid"] = kid
		s, err := tok.SignedString(ecKey)
		require.NoError(t, err)
		return s
	}

	t.Run("jwks url with mixed key types", func(t *testing.T) {
		var hits atomic.Int32
		v := &SupabaseVerifier{JWKSURL: jwksServer(t, &hits, rsaJWK(rsaKey, "r1"), ecJWK(ecKey, "e1")).URL}

		id, err := v.Verify(context.Background(), esToken("e1"))
		require.NoError(t, err)
		assert.Equal(t, "u1", id.UserID)

		_, err = v.Verify(context.Background(), rsaToken(t, rsaKey, "r1", validClaims()))
		require.NoError(t, err)
		assert.EqualValues(t, 1, hits.Load())

		// an ES256 header pointing at the RSA key must not verify
		_, err = v.Verify(context.Background(), esToken("r1"))
		assert.Error(t, err)
	})

	t.Run("static pem", func(t *testing.T) {
		der, err := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
		require.NoError(t, err)
		v := &SupabaseVerifier{PublicKeyPEMOrJWKS: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))}

		_, err = v.Verify(context.Background(), esToken(""))
		require.NoError(t, err)
	})
}

func TestDecodeJWKRejectsUnsupported(t *testing.T) {
	_, err := decodeJWK(jwk{Kty: "oct"})
	assert.Error(t, err)
	_, err = decodeJWK(jwk{Kty: "EC", Crv: "P-384"})
	assert.Error(t, err)
	_, err = decodeJWK(jwk{Kty: "EC", Crv: "P-256", X: "AQ", Y: "AQ"})
	assert.Error(t, err, "point not on curve")
}

func TestVerifyHS256(t *testing.T) {
	v := &SupabaseVerifier{Secret: "super-secret"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("guess"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), bad)
	assert.Error(t, err)

	_, err = (&SupabaseVerifier{}).Verify(context.Background(), tok)
	assert.Error(t, err, "hs256 requires a configured secret")
}

func TestMiddleware(t *testing.T) {
	v := &SupabaseVerifier{Secret: "s"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("s"))
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		assert.Equal(t, seen != "", Email(r.Context()) != "")
	})

	cases := []struct {
		name     string
		mw       func(http.Handler) http.Handler
		header   string
		cookie   string
		wantCode int
		wantUser string
	}{
		{"required ok", v.Middleware, "Bearer " + tok, "", http.StatusOK, "u1"},
		{"required lowercase scheme", v.Middleware, "bearer " + tok, "", http.StatusOK, "u1"},
		{"required cookie", v.Middleware, "", tok, http.StatusOK, "u1"},
		{"required missing", v.Middleware, "", "", http.StatusUnauthorized, ""},
		{"required garbage", v.Middleware, "Bearer nope", "", http.StatusUnauthorized, ""},
		{"optional ok", v.Optional, "Bearer " + tok, "", http.StatusOK, "u1"},
		{"optional anonymous", v.Optional, "", "", http.StatusOK, ""},
		{"optional garbage", v.Optional, "Bearer nope", "", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			tc.mw(next).ServeHTTP(rec, req)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantUser, seen)
		})
	}
}
