// Package auth authenticates admin users and guards the admin routes with a
// signed session token carried in a cookie or a bearer header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"arcade-inventory-backend/config"
	"arcade-inventory-backend/internal/model"
)

// ErrInvalidToken is returned for any token that must not be trusted.
var ErrInvalidToken = errors.New("invalid token")

const ctxUserKey = "adminUser"

// UserStore is the part of the store the auth service reads.
type UserStore interface {
	FindActiveUserByIdentifier(ctx context.Context, identifier string) (*model.AdminUser, error)
	FindActiveUserByID(ctx context.Context, id uint) (*model.AdminUser, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// Claims is the payload of a session token.
type Claims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and checks session tokens.
type Service struct {
	users UserStore
	cfg   config.AuthConfig
	log   *zap.Logger
	now   func() time.Time

	// compared against when the user does not exist so both paths cost a bcrypt run
	dummyHash string
}

// NewService creates an auth service. The config must already have its
// defaults applied.
func NewService(users UserStore, cfg config.AuthConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{users: users, cfg: cfg, log: log, now: time.Now}
	if h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost(cfg.BcryptCost)); err == nil {
		s.dummyHash = string(h)
	}
	return s
}

// SetClock replaces the service's time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// HashPassword hashes a password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost(cost))
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func bcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return 12
	}
	return cost
}

// Authenticate returns the active user matching identifier (username or
// email) and password, or nil. Callers cannot tell why a login failed.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) *model.AdminUser {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil
	}

	u, err := s.users.FindActiveUserByIdentifier(ctx, identifier)
	if err != nil {
		if s.dummyHash != "" {
			VerifyPassword(password, s.dummyHash)
		}
		return nil
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("failed to record last login", zap.Uint("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}
	u.PasswordHash = ""
	return u
}

// IssueToken signs a session token for user.
func (s *Service) IssueToken(user *model.AdminUser) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, algorithm and expiry and returns the claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserFromToken verifies a token and reloads its user, who must still be active.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) *model.AdminUser {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil
	}
	u, err := s.users.FindActiveUserByID(ctx, claims.UserID)
	if err != nil {
		return nil
	}
	u.PasswordHash = ""
	return u
}

// SetCookie stores the session token in the response.
func (s *Service) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(s.sameSite())
	c.SetCookie(s.cfg.CookieName, token, int(s.cfg.TokenTTL.Seconds()), "/", "", s.cfg.SecureCookies, true)
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie(c *gin.Context) {
	c.SetSameSite(s.sameSite())
	c.SetCookie(s.cfg.CookieName, "", -1, "/", "", s.cfg.SecureCookies, true)
}

func (s *Service) sameSite() http.SameSite {
	if s.cfg.SecureCookies {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// TokenFromRequest returns the session token from the cookie, falling back to
// an Authorization bearer header.
func (s *Service) TokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(s.cfg.CookieName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAdmin rejects requests without a valid session. Browsers asking for
// HTML are sent to the login page; everyone else gets a bare 401.
func (s *Service) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user *model.AdminUser
		if token := s.TokenFromRequest(c); token != "" {
			user = s.UserFromToken(c.Request.Context(), token)
		}
		if user == nil {
			if wantsHTML(c.Request) {
				c.Redirect(http.StatusFound, "/admin/login")
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user RequireAdmin stored on the context.
func CurrentUser(c *gin.Context) *model.AdminUser {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.AdminUser)
	return u
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
