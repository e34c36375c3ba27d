package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"complaint-service/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID       uuid.UUID
	Role         model.Role
	DepartmentID *uuid.UUID
}

type tokenClaims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Parser verifies HS256 access tokens issued by the identity provider.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(raw string) (*Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id: %v", ErrInvalidToken, err)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	out := &Claims{UserID: userID, Role: role}
	if claims.DepartmentID != "" {
		deptID, err := uuid.Parse(claims.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("%w: department_id: %v", ErrInvalidToken, err)
		}
		out.DepartmentID = &deptID
	}
	if role == model.RoleDepartmentHead && out.DepartmentID == nil {
		return nil, fmt.Errorf("%w: department head without department", ErrInvalidToken)
	}
	return out, nil
}

// Issue signs a token for the given claims. It backs local tooling and tests; production
// tokens come from the identity provider.
func (p *Parser) Issue(claims Claims, ttl time.Duration) (string, error) {
	tc := tokenClaims{
		UserID: claims.UserID.String(),
		Role:   string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	if claims.DepartmentID != nil {
		tc.DepartmentID = claims.DepartmentID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(p.secret)
}
