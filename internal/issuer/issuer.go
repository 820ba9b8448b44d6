package issuer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/cms-git-backend/internal/constants"
)

const (
	// Local editing sessions last a working day.
	tokenDuration = 12 * time.Hour

	claimEmail = "email"
	claimName  = "name"
)

func Algorithm() jwa.SignatureAlgorithm { return jwa.ES256() }

// Claims are the identity facts carried by a locally issued token.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Expiry  time.Time
}

// Issuer mints and verifies the bearer tokens used in local mode, where no
// identity provider is involved. Tokens are only valid for this process:
// signing keys live in memory and rotate every tokenDuration.
type Issuer interface {
	Issue(c Claims, now time.Time) (string, time.Time, error)
	Verify(bearerToken string, now time.Time) (*Claims, bool)
}

type tokenIssuer struct{ privateKeySource }

func New() Issuer {
	return &tokenIssuer{&rotatingKeySource{}}
}

func (t *tokenIssuer) Issue(c Claims, now time.Time) (string, time.Time, error) {
	cur, err := t.current(now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get current private key: %w", err)
	}
	keyID, ok := cur.KeyID()
	if !ok {
		return "", time.Time{}, fmt.Errorf("private key has no key ID")
	}

	exp := now.Add(tokenDuration)

	b := jwt.NewBuilder().
		Issuer(constants.CMSGitBackend).
		Subject(c.Subject).
		Audience([]string{constants.CMSGitBackend}).
		Expiration(exp).
		NotBefore(now).
		IssuedAt(now).
		JwtID(uuid.NewString())
	if c.Email != "" {
		b = b.Claim(claimEmail, c.Email)
	}
	if c.Name != "" {
		b = b.Claim(claimName, c.Name)
	}
	tok, err := b.Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(Algorithm(), cur))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	logrus.WithField("token", logrus.Fields{
		jwk.KeyIDKey: keyID,
		"sub":        c.Subject,
		"exp":        exp,
	}).Info("local token issued")

	return string(signed), exp, nil
}

func (t *tokenIssuer) Verify(bearerToken string, now time.Time) (*Claims, bool) {
	clock := jwt.ClockFunc(func() time.Time { return now })
	for _, key := range t.publicKeys(now) {
		token, err := jwt.ParseString(bearerToken,
			jwt.WithKey(Algorithm(), key),
			jwt.WithIssuer(constants.CMSGitBackend),
			jwt.WithAudience(constants.CMSGitBackend),
			jwt.WithClock(clock))
		if err != nil {
			continue
		}

		exp, ok := token.Expiration()
		if !ok || now.After(exp) {
			continue
		}
		sub, ok := token.Subject()
		if !ok || sub == "" {
			continue
		}

		c := &Claims{Subject: sub, Expiry: exp}
		_ = token.Get(claimEmail, &c.Email)
		_ = token.Get(claimName, &c.Name)
		return c, true
	}
	return nil, false
}
