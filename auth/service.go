package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrInvalidToken signals a token that failed parsing or claim validation.
	ErrInvalidToken = errors.New("auth: invalid token")
)

const (
	minPasswordLen = 8

	// tokenIssuer identifies tokens minted by this service; VerifyToken
	// rejects tokens issued elsewhere even when the secret matches.
	tokenIssuer = "intakeflow"

	// tokenTTL covers a full intake shift so staff are not logged out
	// mid-outreach-run.
	tokenTTL = 12 * time.Hour
)

// staffClaims is the token payload for intake staff sessions. The user ID
// rides in the registered subject claim; role gates endpoint access on the
// API side without a user lookup.
type staffClaims struct {
	Role  Role   `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	now       func() time.Time
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// WithClock overrides the time source used for token claims. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a staff account. Email is normalized to lower case so
// logins are case-insensitive; role defaults to coordinator, the account
// type the front desk creates for itself.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" {
		return nil, fmt.Errorf("auth: email and full_name are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleCoordinator
	}
	if !isValidRole(role) {
		return nil, fmt.Errorf("auth: invalid role %q", role)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(passwordHash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Login authenticates a staff member and returns a signed session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: issue token: %w", err)
	}

	return LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyToken validates a session token and returns the user ID and role
// embedded in its claims.
func (s *Service) VerifyToken(tokenString string) (string, Role, error) {
	claims := &staffClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if !isValidRole(claims.Role) {
		return "", "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return claims.Subject, claims.Role, nil
}

// issueToken signs a session token for the user.
func (s *Service) issueToken(user User) (string, error) {
	now := s.now()
	claims := staffClaims{
		Role:  user.Role,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func isValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleClinician, RoleCoordinator:
		return true
	default:
		return false
	}
}
