package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTConfig struct {
	Issuer         string
	AccessSecret   string
	RefreshSecret  string
	AccessTTLMin   int
	RefreshTTLDays int
}

// Claims carried by both token kinds. uid and role are what the
// middleware and the admin route group key off.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies the two token kinds. Access and
// refresh tokens are signed with separate secrets so one can never
// stand in for the other.
type JWTManager struct {
	cfg JWTConfig
}

func NewJWTManager(cfg JWTConfig) *JWTManager {
	return &JWTManager{cfg: cfg}
}

func (m *JWTManager) AccessTTL() time.Duration {
	return time.Duration(m.cfg.AccessTTLMin) * time.Minute
}

func (m *JWTManager) RefreshTTL() time.Duration {
	return time.Duration(m.cfg.RefreshTTLDays) * 24 * time.Hour
}

func (m *JWTManager) SignAccess(userID int64, role string) (string, time.Time, error) {
	return m.sign(userID, role, m.AccessTTL(), m.cfg.AccessSecret)
}

func (m *JWTManager) SignRefresh(userID int64, role string) (string, time.Time, error) {
	return m.sign(userID, role, m.RefreshTTL(), m.cfg.RefreshSecret)
}

func (m *JWTManager) sign(userID int64, role string, ttl time.Duration, secret string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	return s, exp, err
}

func (m *JWTManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, m.cfg.AccessSecret)
}

func (m *JWTManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, m.cfg.RefreshSecret)
}

func (m *JWTManager) parse(token, secret string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}

	tok, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
