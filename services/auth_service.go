package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"eduscan-api/config"
	"eduscan-api/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errUnknownRole = errors.New("token carries an unknown role")

// AuthService owns password hashing and the session tokens handed to
// teachers and parents.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	cost      int
	now       func() time.Time
}

func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{
		jwtSecret: []byte(cfg.Secret),
		ttl:       time.Duration(cfg.ExpiryHours) * time.Hour,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	return string(b), err
}

// VerifyPassword checks plain against a stored password. users.json files
// written before hashing hold plaintext; those, and hashes below the
// current cost, verify once and come back with a fresh hash in rehash for
// the caller to persist. An empty rehash means the stored value is current.
func (s *AuthService) VerifyPassword(stored, plain string) (rehash string, err error) {
	if !IsHashed(stored) {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) != 1 {
			return "", ErrInvalidCredentials
		}
		return s.rehash(plain)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)); err != nil {
		return "", ErrInvalidCredentials
	}
	if cost, _ := bcrypt.Cost([]byte(stored)); cost < s.cost {
		return s.rehash(plain)
	}
	return "", nil
}

func (s *AuthService) rehash(plain string) (string, error) {
	hash, err := s.HashPassword(plain)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// IsHashed reports whether a stored password is a bcrypt hash.
func IsHashed(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for u.
func (s *AuthService) IssueToken(u *models.User) (string, error) {
	return s.GenerateToken(u.ID, u.Username, u.UserType)
}

func (s *AuthService) GenerateToken(userID uint, username, role string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   username,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateToken parses an HS256 token and rejects any role other than
// teacher or parent.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != models.RoleTeacher && claims.Role != models.RoleParent {
		return nil, errUnknownRole
	}
	return claims, nil
}
