// Package receipt issues signed verification receipts. A receipt is a
// short-lived HS256 JWT carrying the verdict summary and the digest it was
// rendered over, so an export pipeline can hand a verification result to a
// third party without re-running the check.
package receipt

import (
	"errors"
	"time"

	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the receipt payload. Digest identifies what was verified
// (chain head hash, pack digest, document content hash); Result is the
// verdict it attests to.
type Claims struct {
	OrgID   string `json:"org_id"`
	Subject string `json:"subject"`
	Check   string `json:"check"`
	Result  string `json:"result"`
	Digest  string `json:"digest,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and validates verification receipts.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewIssuer(signingKey []byte, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{signingKey: signingKey, issuer: issuer, ttl: ttl}
}

// Summary is what a verification operation hands over to be attested.
type Summary struct {
	OrgID   id.OrgID
	Subject string // entity the check ran against
	Check   string // "chain", "seal", "document"
	Valid   bool
	Digest  string
}

// Issue signs a receipt for the given verdict summary at the given time.
func (i *Issuer) Issue(summary Summary, at time.Time) (string, error) {
	if summary.OrgID == "" || summary.Check == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "receipt requires orgId and check")
	}

	result := "invalid"
	if summary.Valid {
		result = "valid"
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OrgID:   string(summary.OrgID),
		Subject: summary.Subject,
		Check:   summary.Check,
		Result:  result,
		Digest:  summary.Digest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(at.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(at),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign receipt")
	}
	return signed, nil
}

// Validate parses and verifies a receipt, returning its claims.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "receipt has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid receipt")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid receipt")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid receipt claims")
	}
	return claims, nil
}
