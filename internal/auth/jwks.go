package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwksCache struct {
	mu      sync.RWMutex
	keys    map[string]any
	fetched time.Time
}

func (c *jwksCache) get(kid string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.keys[kid]
	return k, ok
}

// replace swaps in a freshly fetched key set so rotated-out keys stop verifying.
func (c *jwksCache) replace(set *jwks) {
	keys := make(map[string]any, len(set.Keys))
	for _, j := range set.Keys {
		if k, err := decodeJWK(j); err == nil && j.Kid != "" {
			keys[j.Kid] = k
		}
	}
	c.mu.Lock()
	c.keys = keys
	c.fetched = time.Now()
	c.mu.Unlock()
}

// stale reports whether a refetch is allowed. Unknown kids trigger at most
// one fetch per minRefresh so forged headers cannot hammer the endpoint.
func (c *jwksCache) stale(minRefresh time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.fetched) >= minRefresh
}

func fetchJWKS(ctx context.Context, client *http.Client, url string) (*jwks, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks fetch failed: status %d", res.StatusCode)
	}
	var set jwks
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// decodeJWK returns an *rsa.PublicKey or a P-256 *ecdsa.PublicKey.
func decodeJWK(j jwk) (any, error) {
	switch j.Kty {
	case "RSA":
		return decodeRSA(j)
	case "EC":
		return decodeEC(j)
	default:
		return nil, fmt.Errorf("unsupported kty %q", j.Kty)
	}
}

func decodeRSA(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func decodeEC(j jwk) (*ecdsa.PublicKey, error) {
	if j.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported crv %q", j.Crv)
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil {
		return nil, err
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(j.Y)
	if err != nil {
		return nil, err
	}
	k := &ecdsa.PublicKey{Curve: elliptic.P256(), X: new(big.Int).SetBytes(xBytes), Y: new(big.Int).SetBytes(yBytes)}
	if !k.Curve.IsOnCurve(k.X, k.Y) {
		return nil, errors.New("ec point not on curve")
	}
	return k, nil
}
