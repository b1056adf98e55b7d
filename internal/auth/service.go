package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// Notifier receives the welcome event after sign-up.
type Notifier interface {
	UserRegistered(ctx context.Context, m notify.UserRegistered)
}

// Session is what register and login hand back.
type Session struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Service manages accounts.
type Service struct {
	users    repository.UserStore
	tokens   *Tokens
	notifier Notifier
	log      *zap.Logger
	cost     int
}

func NewService(users repository.UserStore, tokens *Tokens, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		log:      log.Named("auth"),
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an attendee or organizer account and signs it in.
func (s *Service) Register(ctx context.Context, req model.RegisterUserRequest) (*Session, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already exists: %w", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already exists: %w", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		CreatedAt:    time.Now(),
	}
	// The store's unique constraints settle a race between the checks above.
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))

	if s.notifier != nil {
		s.notifier.UserRegistered(ctx, notify.UserRegistered{
			UserID:   u.ID,
			Username: u.Username,
			User:     notify.Contact{Name: u.FullName, Email: u.Email},
		})
	}
	return &Session{User: u, Token: token}, nil
}

// Login checks the password and issues a fresh token. Unknown usernames and
// wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("invalid username or password: %w", model.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid username or password: %w", model.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// Me returns the signed-in user.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUser(ctx, userID)
}
