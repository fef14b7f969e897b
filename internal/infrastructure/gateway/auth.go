package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

var _ ports.AuthGateway = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authData struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Login calls POST /auth/login and persists the returned credential.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var out authData
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: email, Password: password},
		out:    &out,
		public: true,
	})
	if err != nil {
		return domain.Session{}, err
	}
	return c.persist(ctx, out)
}

// Register calls POST /auth/register and persists the returned credential.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (domain.Session, error) {
	var out authData
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   in,
		out:    &out,
		public: true,
	})
	if err != nil {
		return domain.Session{}, err
	}
	return c.persist(ctx, out)
}

// FetchCurrentUser calls GET /auth/me and refreshes the stored profile.
func (c *Client) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &raw); err != nil {
		return nil, err
	}

	// The profile arrives either wrapped as {"user": {...}} or bare.
	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode current user: %w", err)
	}
	user := wrapped.User
	if user == nil {
		user = &domain.User{}
		if err := json.Unmarshal(raw, user); err != nil {
			return nil, fmt.Errorf("decode current user: %w", err)
		}
	}
	if user.ID == "" {
		return nil, fmt.Errorf("current user: %w", domain.ErrRemoteRejected)
	}
	user.Role = normalizeRole(user.Role)

	if b, err := json.Marshal(user); err == nil {
		if err := c.store.Set(ctx, KeyUser, string(b)); err != nil {
			c.log.Warn().Err(err).Msg("could not store user profile")
		}
	}
	return user, nil
}

// StoredSession rebuilds the session from the persisted credential without
// network I/O. A missing, malformed or expired token yields an
// unauthenticated session.
func (c *Client) StoredSession(ctx context.Context) (domain.Session, error) {
	token, err := c.store.Get(ctx, KeyAccessToken)
	if errors.Is(err, domain.ErrKeyNotFound) || token == "" {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read credential: %w", err)
	}

	claims, err := parseClaims(token)
	if err != nil {
		c.log.Warn().Err(err).Msg("stored credential is not a readable token")
		return domain.Session{}, nil
	}
	if !claims.expiresAt.IsZero() && time.Now().After(claims.expiresAt) {
		c.log.Info().Time("expired_at", claims.expiresAt).Msg("stored credential expired")
		return domain.Session{}, nil
	}

	user := &domain.User{ID: claims.subject, Role: claims.role}
	stored, err := c.store.Get(ctx, KeyUser)
	switch {
	case err == nil:
		var u domain.User
		if jerr := json.Unmarshal([]byte(stored), &u); jerr == nil && u.ID != "" {
			user = &u
		}
	case !errors.Is(err, domain.ErrKeyNotFound):
		return domain.Session{}, fmt.Errorf("read user profile: %w", err)
	}

	role := normalizeRole(user.Role)
	if role == domain.RoleNone {
		role = claims.role
	}
	user.Role = role
	if role == domain.RoleNone || user.ID == "" {
		return domain.Session{}, nil
	}
	return domain.Session{Role: role, User: user, ExpiresAt: claims.expiresAt}, nil
}

func (c *Client) persist(ctx context.Context, data authData) (domain.Session, error) {
	if data.AccessToken == "" || data.User.ID == "" {
		return domain.Session{}, fmt.Errorf("auth response: %w", domain.ErrRemoteRejected)
	}
	data.User.Role = normalizeRole(data.User.Role)

	profile, err := json.Marshal(data.User)
	if err != nil {
		return domain.Session{}, fmt.Errorf("encode user profile: %w", err)
	}
	for key, value := range map[string]string{
		KeyAccessToken:  data.AccessToken,
		KeyRefreshToken: data.RefreshToken,
		KeyUser:         string(profile),
	} {
		if value == "" {
			continue
		}
		if err := c.store.Set(ctx, key, value); err != nil {
			return domain.Session{}, fmt.Errorf("store %s: %w", key, err)
		}
	}

	session := domain.Session{Role: data.User.Role, User: &data.User}
	if claims, err := parseClaims(data.AccessToken); err == nil {
		session.ExpiresAt = claims.expiresAt
		if session.Role == domain.RoleNone {
			session.Role = claims.role
			session.User.Role = claims.role
		}
	}
	return session, nil
}

type tokenClaims struct {
	subject   string
	role      domain.Role
	expiresAt time.Time
}

// parseClaims reads sub, role and exp from the access token. The signature is
// not verified; the remote does that on every request.
func parseClaims(token string) (tokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return tokenClaims{}, fmt.Errorf("parse token: %w", err)
	}

	var out tokenClaims
	out.subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expiresAt = exp.Time
	}
	if role, ok := claims["role"].(string); ok {
		out.role = normalizeRole(domain.Role(role))
	}
	return out, nil
}

func normalizeRole(r domain.Role) domain.Role {
	role, err := domain.ParseRole(string(r))
	if err != nil {
		return domain.RoleNone
	}
	return role
}
