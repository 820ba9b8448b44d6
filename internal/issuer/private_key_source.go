package issuer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

type privateKeySource interface {
	current(now time.Time) (jwk.Key, error)
	publicKeys(now time.Time) []jwk.Key
}

// rotatingKeySource signs with the current key and keeps the previous one
// around for as long as tokens signed with it can still be valid.
type rotatingKeySource struct {
	cur  *keyPair
	prev *keyPair
	mu   sync.RWMutex
}

type keyPair struct {
	private  jwk.Key
	public   jwk.Key
	deadline time.Time
}

func (k *keyPair) canSign(now time.Time) bool {
	return k != nil && !k.deadline.Before(now)
}

func (k *keyPair) canVerify(now time.Time) bool {
	return k != nil && !k.deadline.Add(tokenDuration).Before(now)
}

func (r *rotatingKeySource) current(now time.Time) (jwk.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cur.canSign(now) {
		next, err := generateKeyPair(now)
		if err != nil {
			return nil, err
		}
		r.prev, r.cur = r.cur, next
	}

	return r.cur.private, nil
}

func (r *rotatingKeySource) publicKeys(now time.Time) []jwk.Key {
	r.mu.RLock()
	cur, prev := r.cur, r.prev
	r.mu.RUnlock()

	var keys []jwk.Key
	for _, k := range []*keyPair{cur, prev} {
		if k.canVerify(now) {
			keys = append(keys, k.public)
		}
	}
	return keys
}

func generateKeyPair(now time.Time) (*keyPair, error) {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ecdsa key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert ecdsa key to jwk: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from jwk: %w", err)
	}

	thumbprint, err := public.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to get thumbprint from public key: %w", err)
	}

	keyID := fmt.Sprintf("%x", thumbprint)
	if err := private.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}
	if err := public.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}

	deadline := now.Add(tokenDuration)
	logrus.WithField("key", logrus.Fields{
		jwk.KeyIDKey: keyID,
		"deadline":   deadline,
	}).Info("local signing key generated")

	return &keyPair{private: private, public: public, deadline: deadline}, nil
}
