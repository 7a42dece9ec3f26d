package service

import (
	"errors"
	"fmt"
	"time"

	"casetrack/config"
	"casetrack/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userStore UserStore
	jwtConfig config.JWTConfig
}

func NewAuthService(userStore UserStore, jwtConfig config.JWTConfig) *AuthService {
	return &AuthService{
		userStore: userStore,
		jwtConfig: jwtConfig,
	}
}

func (s *AuthService) Register(req *model.RegisterRequest) (*model.User, error) {
	switch req.Role {
	case model.RoleCitizen, model.RoleUnit, model.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: invalid role %q", model.ErrValidation, req.Role)
	}
	if req.Role == model.RoleUnit && req.UnitID == nil {
		return nil, fmt.Errorf("%w: unit_id is required for unit operators", model.ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Role:         req.Role,
		UnitID:       req.UnitID,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := s.userStore.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userStore.FindByEmail(req.Email)
	if err != nil {
		return nil, model.ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrForbidden
	}

	if !user.IsActive {
		return nil, model.ErrUserSuspended
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

// ResolveIdentity validates the token and maps it to an active principal.
// Suspended users are rejected here, before any service logic runs.
func (s *AuthService) ResolveIdentity(tokenString string) (*model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, model.ErrForbidden
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrForbidden
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, model.ErrForbidden
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, model.ErrForbidden
	}

	user, err := s.userStore.FindByID(userID)
	if err != nil {
		return nil, model.ErrForbidden
	}
	if !user.IsActive {
		return nil, model.ErrUserSuspended
	}

	return &model.Identity{
		UserID: user.ID,
		Role:   user.Role,
		UnitID: user.UnitID,
	}, nil
}

func (s *AuthService) GetUserByID(id uuid.UUID) (*model.User, error) {
	return s.userStore.FindByID(id)
}

// Suspend deactivates a user account. Admin only; the user's cases and
// notifications are kept.
func (s *AuthService) Suspend(actor model.Identity, userID uuid.UUID) error {
	if actor.Role != model.RoleAdmin {
		return model.ErrForbidden
	}
	return s.userStore.Suspend(userID)
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     time.Now().Add(time.Hour * time.Duration(s.jwtConfig.ExpirationHours)).Unix(),
		"iat":     time.Now().Unix(),
	}
	if user.UnitID != nil {
		claims["unit_id"] = user.UnitID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}
