package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidRole        = errors.New("user_type must be teacher or parent")
)

type defaultUser struct {
	username, password, role, fullName, email string
}

var defaultUsers = []defaultUser{
	{"admin", "admin123", models.RoleTeacher, "Administrator", "admin@school.edu"},
	{"teacher1", "teacher123", models.RoleTeacher, "Demo Teacher", "teacher@school.edu"},
	{"parent1", "parent123", models.RoleParent, "Demo Parent", "parent@email.com"},
}

// UserService is the user directory behind login and registration.
type UserService struct {
	mu     sync.Mutex
	users  store.Log[models.User]
	auth   *AuthService
	logger *logging.StructuredLogger
	now    func() time.Time
}

func NewUserService(users store.Log[models.User], auth *AuthService, logger *logging.StructuredLogger) *UserService {
	return &UserService{
		users:  users,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// SeedDefaults writes the demo accounts when the directory is empty.
func (s *UserService) SeedDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.users.All(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for i, d := range defaultUsers {
		hash, err := s.auth.HashPassword(d.password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u := models.User{
			ID:          uint(i + 1),
			Username:    d.username,
			Password:    hash,
			UserType:    d.role,
			FullName:    d.fullName,
			Email:       d.email,
			CreatedDate: s.now().UTC().Format(models.TimestampLayout),
		}
		if err := s.users.Append(ctx, u); err != nil {
			return fmt.Errorf("seed %s: %w", d.username, err)
		}
	}
	s.logger.Info(ctx, "[USERS] seeded default accounts", logging.Fields{"count": len(defaultUsers)})
	return nil
}

// Authenticate checks a username and password and persists any upgraded
// hash VerifyPassword hands back.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	idx := indexOf(all, username)
	if idx < 0 {
		return nil, ErrInvalidCredentials
	}
	u := all[idx]

	rehash, err := s.auth.VerifyPassword(u.Password, password)
	if err != nil {
		return nil, err
	}
	if rehash == "" {
		return &u, nil
	}
	all[idx].Password = rehash
	if err := s.users.Replace(ctx, all); err != nil {
		s.logger.Warn(ctx, "[USERS] could not store upgraded password hash", logging.Fields{
			"username": username,
			"error":    err.Error(),
		})
	} else {
		s.logger.Info(ctx, "[USERS] upgraded password hash", logging.Fields{"username": username})
	}
	u.Password = rehash
	return &u, nil
}

type RegisterInput struct {
	Username string
	Password string
	UserType string
	FullName string
	Email    string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if in.UserType == "" {
		in.UserType = models.RoleTeacher
	}
	if in.UserType != models.RoleTeacher && in.UserType != models.RoleParent {
		return nil, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if indexOf(all, username) >= 0 {
		return nil, ErrUserExists
	}
	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		ID:          nextUserID(all),
		Username:    username,
		Password:    hash,
		UserType:    in.UserType,
		FullName:    in.FullName,
		Email:       in.Email,
		CreatedDate: s.now().UTC().Format(models.TimestampLayout),
	}
	if err := s.users.Append(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &u, nil
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	all, err := s.users.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func indexOf(users []models.User, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

// nextUserID assigns ids in the service so the file and table agree.
func nextUserID(users []models.User) uint {
	var max uint
	for _, u := range users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1
}
