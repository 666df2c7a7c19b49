package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
	"github.com/openlms/course-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, jwtSecret string, jwtTTL time.Duration) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		jwtSecret: []byte(jwtSecret),
		jwtTTL:    jwtTTL,
	}
}

// ===== REGISTRATION / AUTHENTICATION =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleStudent,
	}
	if req.Role != nil {
		user.Role = models.UserRole(*req.Role)
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	// Lookup and password check both map to the same error so the
	// response does not reveal whether the email is registered.
	user, err := s.repo.User().GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtTTL.Seconds()),
		User:        user,
	}, nil
}

func (s *userService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"role":  string(user.Role),
		"email": user.Email,
		"iss":   "course-service",
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(s.jwtTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ===== USER CRUD =====

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filters ListFilters) (*UserListResponse, error) {
	repoFilters := repositories.UserFilters{
		Query:     filters.Search,
		Limit:     normalizePageSize(filters.Size),
		Offset:    pageOffset(filters.Page, filters.Size),
		SortBy:    filters.SortBy,
		SortOrder: filters.SortOrder,
	}

	users, total, err := s.repo.User().List(ctx, nil, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  normalizePage(filters.Page),
		Size:  repoFilters.Limit,
	}, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UserUpdateRequest, requesterID uint) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if err := s.canManageUser(ctx, id, requesterID, "update"); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			taken, err := s.repo.User().ExistsByEmail(ctx, nil, email, &id)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return nil, ErrDuplicateEmail
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = models.UserRole(*req.Role)
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uint, requesterID uint) error {
	if err := s.canManageUser(ctx, id, requesterID, "delete"); err != nil {
		return err
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.UserProfile().Delete(ctx, nil, id); err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		if err := txRepo.User().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted", "user_id", id, "requester_id", requesterID)
	return nil
}

// ===== PROFILE =====

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	exists, err := s.repo.User().ExistsByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	profile, err := s.repo.UserProfile().GetByUserID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile creates the profile row on first write.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *ProfileUpdateRequest, requesterID uint) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if err := s.canManageUser(ctx, userID, requesterID, "update_profile"); err != nil {
		return nil, err
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	profile, err := s.repo.UserProfile().GetByUserID(ctx, nil, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		profile = &models.UserProfile{UserID: userID}
	}

	if req.ProfilePictureURL != nil {
		profile.ProfilePictureURL = req.ProfilePictureURL
	}
	if req.Timezone != nil {
		profile.Timezone = *req.Timezone
	}
	if req.Country != nil {
		profile.Country = strings.ToUpper(*req.Country)
	}
	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.CustomData != nil {
		profile.CustomData = datatypes.JSON(req.CustomData)
	}

	if err := s.repo.UserProfile().Upsert(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return profile, nil
}

// canManageUser allows self-service plus admin override
func (s *userService) canManageUser(ctx context.Context, targetID, requesterID uint, action string) error {
	if targetID == requesterID {
		return nil
	}

	requester, err := s.repo.User().GetByID(ctx, nil, requesterID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewPermissionError(requesterID, targetID, "user", action, "requester not found")
		}
		return fmt.Errorf("failed to get requester: %w", err)
	}
	if requester.Role != models.RoleAdmin {
		return NewPermissionError(requesterID, targetID, "user", action, "not account owner or admin")
	}
	return nil
}

// ===== PAGINATION HELPERS =====

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePageSize(size int) int {
	if size < 1 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}

func pageOffset(page, size int) int {
	return (normalizePage(page) - 1) * normalizePageSize(size)
}
