package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterRequest, meta RequestMeta) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginRequest, meta RequestMeta) (*dto.AuthResponse, error)
	ParseToken(tokenString string) (uuid.UUID, error)
}

// RequestMeta carries client details recorded alongside auth activity.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type authService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	secret       string
	tokenTTL     time.Duration
}

func NewAuthService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository, secret string, ttlMinutes int) AuthService {
	return &authService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		secret:       secret,
		tokenTTL:     time.Duration(ttlMinutes) * time.Minute,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterRequest, meta RequestMeta) (*dto.AuthResponse, error) {
	if err := s.ensureUserUnique(ctx, input.Email, input.Username); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Location:     input.Location,
		Bio:          input.Bio,
		IsActive:     true,
	}
	profile := &model.Profile{}

	if err := s.userRepo.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, user.ID, model.ActivityRegister, "account registered", meta)

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginRequest, meta RequestMeta) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(401, "invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperror.New(401, "account is deactivated", apperror.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.New(401, "invalid credentials", apperror.ErrUnauthorized)
	}

	s.recordActivity(ctx, user.ID, model.ActivityLogin, "logged in", meta)

	return s.buildAuthResponse(user)
}

func (s *authService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	return userID, nil
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		User:        user,
	}, nil
}

func (s *authService) generateToken(user *model.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.tokenTTL.Seconds()), nil
}

func (s *authService) ensureUserUnique(ctx context.Context, email, username string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return apperror.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return apperror.Conflict("username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *authService) recordActivity(ctx context.Context, userID uuid.UUID, kind model.ActivityType, description string, meta RequestMeta) {
	if err := s.activityRepo.Create(ctx, &model.UserActivity{
		UserID:      userID,
		Type:        kind,
		Description: description,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}); err != nil {
		logger.Component("auth").Warn().Err(err).Msg("failed to record activity")
	}
}
