package usecase

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trueka/internal/domain/entity"
	"trueka/internal/infrastructure/docstore"
	"trueka/pkg/errors"
	"trueka/pkg/logger"
)

type AuthUseCase struct {
	store      *docstore.Store
	sessionTTL time.Duration
}

func NewAuthUseCase(store *docstore.Store, sessionTTL time.Duration) *AuthUseCase {
	return &AuthUseCase{
		store:      store,
		sessionTTL: sessionTTL,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type AuthResult struct {
	User    *entity.User    `json:"user"`
	Session *entity.Session `json:"session"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || strings.TrimSpace(input.DisplayName) == "" {
		return nil, errors.BadRequest("email, password and display name are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, errors.BadRequest("password must be at least 8 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*AuthResult, error) {
		for _, u := range doc.Users {
			if u.Email == email {
				return nil, errors.Conflict("email is already registered")
			}
		}

		now := time.Now()
		user := &entity.User{
			ID:                 entity.NewID(entity.PrefixUser),
			Email:              email,
			PasswordHash:       string(hash),
			DisplayName:        strings.TrimSpace(input.DisplayName),
			Role:               entity.RoleUser,
			Status:             entity.UserStatusActive,
			VerificationStatus: entity.VerificationNone,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		doc.Users[user.ID] = user

		session := uc.newSession(user.ID, now)
		doc.Sessions[session.Token] = session

		logger.Info("auth: registered user %s", user.ID)
		return &AuthResult{User: user.Public(), Session: cloneSession(session)}, nil
	})
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	snapshot := uc.store.Snapshot()
	var found *entity.User
	for _, u := range snapshot.Users {
		if u.Email == email {
			found = u
			break
		}
	}
	if found == nil {
		return nil, errors.Unauthorized("invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("invalid email or password", nil)
	}

	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*AuthResult, error) {
		user, ok := doc.Users[found.ID]
		if !ok {
			return nil, errors.Unauthorized("invalid email or password", nil)
		}
		if user.Status == entity.UserStatusSuspended {
			return nil, errors.Forbidden("account is suspended", nil)
		}

		session := uc.newSession(user.ID, time.Now())
		doc.Sessions[session.Token] = session
		return &AuthResult{User: user.Public(), Session: cloneSession(session)}, nil
	})
}

func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	return uc.store.Update(func(doc *docstore.Document) error {
		delete(doc.Sessions, token)
		return nil
	})
}

// Resolve maps a session token to an identity, or nil when the token is
// unknown or expired. Expiry is a timestamp comparison at resolution time.
func (uc *AuthUseCase) Resolve(ctx context.Context, token string) *entity.Identity {
	if token == "" {
		return nil
	}

	snapshot := uc.store.Snapshot()
	session, ok := snapshot.Sessions[token]
	if !ok || session.Expired(time.Now()) {
		return nil
	}
	user, ok := snapshot.Users[session.UserID]
	if !ok || user.Status == entity.UserStatusSuspended {
		return nil
	}

	return &entity.Identity{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// SweepExpiredSessions reclaims expired session records. Not required for
// correctness, only for keeping the document small.
func (uc *AuthUseCase) SweepExpiredSessions(ctx context.Context) (int, error) {
	return docstore.Mutate(uc.store, func(doc *docstore.Document) (int, error) {
		now := time.Now()
		removed := 0
		for token, session := range doc.Sessions {
			if session.Expired(now) {
				delete(doc.Sessions, token)
				removed++
			}
		}
		return removed, nil
	})
}

func (uc *AuthUseCase) newSession(userID string, now time.Time) *entity.Session {
	return &entity.Session{
		Token:     entity.NewID(entity.PrefixSession),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.sessionTTL),
	}
}

// cloneSession copies the stored session so callers never hold a live graph
// reference.
func cloneSession(session *entity.Session) *entity.Session {
	clone := *session
	return &clone
}
