package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (t *Tokens) Issue(accountID string, role models.Role) (string, error) {
	const op = "Tokens.Issue"

	if accountID == "" || !role.Valid() {
		return "", utils.E(utils.CodeInvalidArgument, op, "account id and role are required", nil)
	}
	now := t.now()
	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	return s, nil
}

// Verify parses raw and returns the identity it carries.
func (t *Tokens) Verify(raw string) (Identity, error) {
	const op = "Tokens.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	c := &claims{}
	tok, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || tok == nil || !tok.Valid {
		return Identity{}, utils.E(utils.CodeUnauthorized, op, "invalid token", err)
	}
	if c.Subject == "" {
		return Identity{}, utils.E(utils.CodeUnauthorized, op, "missing subject", nil)
	}
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return Identity{}, utils.E(utils.CodeUnauthorized, op, "invalid role claim", err)
	}
	return Identity{AccountID: c.Subject, Role: role}, nil
}
