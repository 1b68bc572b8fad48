package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/errs"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users    UserStore
	producer EventPublisher
	logger   *logger.Logger
}

func NewUserService(users UserStore, producer EventPublisher, logger *logger.Logger) *UserService {
	return &UserService{
		users:    users,
		producer: producer,
		logger:   logger,
	}
}

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6,max=50"`
	DisplayName string `json:"display_name" binding:"max=50"`
	IsPrivate   bool   `json:"is_private"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=50"`
	Avatar      *string `json:"avatar"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
	IsPrivate   *bool   `json:"is_private"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, errs.Errorf(errs.EVALIDATION, "username, email and password are required")
	}

	// 检查用户名是否已存在
	existingUser, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existingUser != nil {
		return nil, errs.Errorf(errs.EALREADYEXISTS, "username already exists")
	}

	// 检查邮箱是否已存在
	existingUser, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existingUser != nil {
		return nil, errs.Errorf(errs.EALREADYEXISTS, "email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: req.DisplayName,
		IsPrivate:   req.IsPrivate,
		IsActive:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, user.ID.String(), queue.EventUserCreated, queue.UserEventData{
		UserID:   user.ID.String(),
		Username: user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "invalid username or password")
	}

	if !user.IsActive {
		return nil, errs.Errorf(errs.EFORBIDDEN, "user account is inactive")
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "user not found")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, userID string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.IsPrivate != nil {
		user.IsPrivate = *req.IsPrivate
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, user.ID.String(), queue.EventUserUpdated, queue.UserEventData{
		UserID:   user.ID.String(),
		Username: user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User updated successfully")
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string, offset, limit int) ([]*models.User, error) {
	users, err := s.users.Search(ctx, strings.TrimSpace(query), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
