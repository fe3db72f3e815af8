package service

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"alcyxob/totalfit/internal/store"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrMissingCredentials   = errors.New("name, email and password cannot be empty")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// TokenIssuer is the JWT "iss" claim.
const TokenIssuer = "totalfit"

// LoginResult is a successful login: a signed token bound to a stored session.
type LoginResult struct {
	Token    string
	Session  *domain.Session
	Identity domain.Identity
}

// AuthService registers users and opens and closes their sessions.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo  repository.UserRepository
	sessions  store.PlanStore
	jwtSecret string
	now       func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, sessions store.PlanStore, jwtSecret string) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	return &authService{
		userRepo:  userRepo,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		MemberSince:  s.now().Format(domain.DisplayDateLayout),
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// A concurrent registration can still win the race to the unique index.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login checks the credentials, stores a session and signs a token for it.
// A remembered session outlives the short default lifetime.
func (s *authService) Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthenticationFailed
	}

	identity := user.Identity()
	session, err := s.sessions.CreateSession(ctx, identity, remember)
	if err != nil {
		return nil, err
	}

	token, err := s.generateJWT(identity.ID, session)
	if err != nil {
		// Do not leave an orphan session behind.
		_ = s.sessions.ClearSession(ctx, session.ID)
		return nil, ErrTokenGeneration
	}
	return &LoginResult{Token: token, Session: session, Identity: identity}, nil
}

// Logout removes the stored session; its token stops working immediately.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.ClearSession(ctx, sessionID)
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// generateJWT signs a token that expires together with session.
func (s *authService) generateJWT(userID string, session *domain.Session) (string, error) {
	claims := &jwtClaims{
		UserID:    userID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			Issuer:    TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
