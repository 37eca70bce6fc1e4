package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/email"
	"github.com/Kostikrut/bubbly-back/internal/models"
	"github.com/Kostikrut/bubbly-back/internal/repositories"
	"github.com/Kostikrut/bubbly-back/internal/utils"
	"github.com/Kostikrut/bubbly-back/middleware/jwt"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// 重置链接有效期
const resetTokenTTL = 10 * time.Minute

// AuthService 认证服务：注册、登录、会话检查与密码重置
type AuthService struct {
	userRepo  *repositories.UserRepository
	tokens    *jwt.TokenManager
	mailer    email.Mailer
	clientURL string
	logger    *logger.Logger
}

// NewAuthService 创建认证服务实例
func NewAuthService(userRepo *repositories.UserRepository, tokens *jwt.TokenManager, mailer email.Mailer, clientURL string, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		mailer:    mailer,
		clientURL: clientURL,
		logger:    log,
	}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Name            string `json:"name" binding:"required"`
	Nickname        string `json:"nickname" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}

// UserDTO 用户数据传输对象，不含凭据与软删除标记
type UserDTO struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Nickname         string    `json:"nickname"`
	Email            string    `json:"email"`
	ProfilePic       string    `json:"profile_pic"`
	ShowOnlineStatus bool      `json:"show_online_status"`
	CreatedAt        time.Time `json:"created_at"`
}

func toUserDTO(u *models.User) *UserDTO {
	return &UserDTO{
		ID:               u.ID,
		Name:             u.Name,
		Nickname:         u.Nickname,
		Email:            u.Email,
		ProfilePic:       u.ProfilePic,
		ShowOnlineStatus: u.ShowOnlineStatus,
		CreatedAt:        u.CreatedAt,
	}
}

func toUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, *toUserDTO(&users[i]))
	}
	return dtos
}

// Signup 注册用户
func (s *AuthService) Signup(req *SignupRequest) (*AuthResponse, error) {
	// 规范化输入
	nickname := utils.NormalizeNickname(req.Nickname)
	emailAddr := utils.NormalizeEmail(req.Email)

	// 验证输入
	if !utils.ValidateName(req.Name) {
		return nil, fmt.Errorf("%w: name must contain only letters and spaces", ErrValidation)
	}
	if !utils.ValidateNickname(nickname) {
		return nil, fmt.Errorf("%w: invalid nickname format", ErrValidation)
	}
	if !utils.ValidateEmail(emailAddr) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if req.Password != req.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	// 检查邮箱和昵称是否已被占用
	if taken, err := s.userRepo.ExistsByEmail(emailAddr); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUserExists
	}
	if taken, err := s.userRepo.ExistsByNickname(nickname); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUserExists
	}

	// 密码哈希
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:             utils.CapitalizeName(req.Name),
		Nickname:         nickname,
		Email:            emailAddr,
		PasswordHash:     hash,
		ShowOnlineStatus: true,
		IsActive:         true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login 登录用户
func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(utils.NormalizeEmail(req.Email))
	if err != nil {
		return nil, ErrInvalidCredential
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredential
	}

	return s.issue(user)
}

// CheckAuth 会话检查，返回当前用户信息
func (s *AuthService) CheckAuth(userID uint) (*UserDTO, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return toUserDTO(user), nil
}

// ForgotPassword 生成重置 token 并发送重置邮件。
// 邮件发送失败时清除已写入的 token，避免留下不可达的重置入口。
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(utils.NormalizeEmail(emailAddr))
	if err != nil {
		return ErrUserNotFound
	}

	raw, hash, err := utils.GenerateResetToken()
	if err != nil {
		return err
	}

	if err := s.userRepo.SetResetToken(user.ID, hash, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/resetPassword/%s", s.clientURL, raw)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		s.logger.WithContext(ctx).Error("failed to deliver reset mail",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		if clearErr := s.userRepo.ClearResetToken(user.ID); clearErr != nil {
			s.logger.WithContext(ctx).Error("failed to clear reset token",
				zap.Uint("user_id", user.ID),
				zap.Error(clearErr),
			)
		}
		return ErrMailDelivery
	}

	return nil
}

// ResetPassword 根据重置 token 设置新密码并重新签发会话
func (s *AuthService) ResetPassword(rawToken, password, passwordConfirm string) (*AuthResponse, error) {
	if !utils.ValidatePassword(password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if password != passwordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	user, err := s.userRepo.GetByResetToken(utils.HashToken(rawToken))
	if err != nil {
		return nil, ErrResetTokenInvalid
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 更新密码时间戳使既有会话全部失效
	now := time.Now()
	err = s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"password_hash":          hash,
		"password_changed_at":    now,
		"password_reset_token":   "",
		"password_reset_expires": nil,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Nickname, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: toUserDTO(user)}, nil
}
