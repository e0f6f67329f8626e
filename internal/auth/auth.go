package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
}

// NewService creates a new authentication service
func NewService() (*Service, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default-secret-key-change-in-production"
	}

	expStr := os.Getenv("JWT_EXPIRY")
	exp := 24 * time.Hour // default 24 hours
	if expStr != "" {
		if parsed, err := time.ParseDuration(expStr); err == nil {
			exp = parsed
		}
	}

	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  exp,
	}, nil
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken generates a JWT token carrying the user's identity and
// dealership scope.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	activeDealershipID := ""
	if user.ActiveDealershipID != nil {
		activeDealershipID = user.ActiveDealershipID.Hex()
	}
	roleID := ""
	if user.RoleID != nil {
		roleID = user.RoleID.Hex()
	}
	allowed := make([]string, 0, len(user.AllowedDealershipIDs))
	for _, id := range user.AllowedDealershipIDs {
		allowed = append(allowed, id.Hex())
	}

	claims := jwt.MapClaims{
		"user_id":                user.ID.Hex(),
		"account_id":             user.AccountID.Hex(),
		"display_name":           user.DisplayName,
		"email":                  user.Email,
		"active_dealership_id":   activeDealershipID,
		"allowed_dealership_ids": allowed,
		"is_account_admin":       user.IsAccountAdmin,
		"role_id":                roleID,
		"exp":                    time.Now().Add(s.tokenExp).Unix(),
		"iat":                    time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	accountID, ok := claims["account_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	displayName, _ := claims["display_name"].(string)
	email, _ := claims["email"].(string)
	activeDealershipID, _ := claims["active_dealership_id"].(string)
	isAccountAdmin, _ := claims["is_account_admin"].(bool)
	roleID, _ := claims["role_id"].(string)

	var allowed []string
	if raw, ok := claims["allowed_dealership_ids"].([]interface{}); ok {
		for _, entry := range raw {
			if id, ok := entry.(string); ok {
				allowed = append(allowed, id)
			}
		}
	}

	return &models.Claims{
		UserID:               userID,
		AccountID:            accountID,
		DisplayName:          displayName,
		Email:                email,
		ActiveDealershipID:   activeDealershipID,
		AllowedDealershipIDs: allowed,
		IsAccountAdmin:       isAccountAdmin,
		RoleID:               roleID,
		Exp:                  int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidateEmail validates email format
func (s *Service) ValidateEmail(email string) error {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errors.New("invalid email format")
	}
	return nil
}
