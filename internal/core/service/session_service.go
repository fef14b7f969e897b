package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

type SessionService struct {
	auth ports.AuthGateway
	log  zerolog.Logger
}

func NewSessionService(auth ports.AuthGateway, log zerolog.Logger) *SessionService {
	return &SessionService{auth: auth, log: log}
}

// Login authenticates against the remote API. The returned session is handed
// to Navigator.CompleteLogin by the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	session, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("login failed")
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	if !session.IsAuthenticated() {
		return domain.Session{}, fmt.Errorf("login: %w", domain.ErrNotAuthenticated)
	}
	s.log.Info().Str("user_id", session.User.ID).Str("role", string(session.Role)).Msg("logged in")
	return session, nil
}

func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (domain.Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Password == "" {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if _, err := domain.ParseRole(string(in.Role)); err != nil {
		return domain.Session{}, fmt.Errorf("register: %w", err)
	}

	session, err := s.auth.Register(ctx, in)
	if err != nil {
		s.log.Warn().Err(err).Str("email", in.Email).Msg("registration failed")
		return domain.Session{}, fmt.Errorf("register: %w", err)
	}
	if !session.IsAuthenticated() {
		return domain.Session{}, fmt.Errorf("register: %w", domain.ErrNotAuthenticated)
	}
	s.log.Info().Str("user_id", session.User.ID).Str("role", string(session.Role)).Msg("registered")
	return session, nil
}

// Discard removes the persisted credential without a remote call.
func (s *SessionService) Discard(ctx context.Context) error {
	if err := s.auth.ClearCredentials(ctx); err != nil {
		return fmt.Errorf("discard credential: %w", err)
	}
	s.log.Info().Msg("discarded credential of a refused session")
	return nil
}

// Restore decides the initial session at startup from the persisted
// credential. A credential the remote rejects yields an unauthenticated
// session; when the remote cannot be reached the stored profile is trusted.
func (s *SessionService) Restore(ctx context.Context) (domain.Session, error) {
	stored, err := s.auth.StoredSession(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("restore session: %w", err)
	}
	if !stored.IsAuthenticated() {
		return domain.Session{}, nil
	}

	user, err := s.auth.FetchCurrentUser(ctx)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		s.log.Info().Msg("stored credential rejected, starting signed out")
		return domain.Session{}, nil
	case err != nil || user == nil:
		s.log.Warn().Err(err).Msg("could not verify stored credential, using cached profile")
		return stored, nil
	}

	role := user.Role
	if role == domain.RoleNone {
		role = stored.Role
	}
	return domain.Session{Role: role, User: user, ExpiresAt: stored.ExpiresAt}, nil
}
