package services

import (
	"gorm.io/gorm"

	"supportchat/internal/auth"
	"supportchat/internal/config"
	"supportchat/internal/dto"
	"supportchat/internal/logger"
	"supportchat/internal/models"
	"supportchat/internal/repositories"
	"supportchat/pkg/apperrors"
)

// AuthService is the identity collaborator: it registers users and issues the
// tokens the chat layer resolves identities from.
type AuthService struct {
	cfg   *config.Config
	users *repositories.UserRepository
}

func NewAuthService(cfg *config.Config, users *repositories.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, users: users}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*models.User, error) {
	exists, err := s.users.EmailExists(req.Email)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		IsStaff:      req.IsStaff,
	}
	if err := s.users.Create(user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("user registered", "user_id", user.ID, "is_staff", user.IsStaff)
	return user, nil
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(req.Email)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.cfg, user.ID, user.Name, user.IsStaff)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{
		AccessToken: token,
		UserID:      user.ID,
		Name:        user.Name,
		IsStaff:     user.IsStaff,
	}, nil
}
