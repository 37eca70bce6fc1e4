package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/media"
	"github.com/Kostikrut/bubbly-back/internal/repositories"
	"github.com/Kostikrut/bubbly-back/internal/utils"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// UserService 用户资料、联系人与黑名单管理
type UserService struct {
	userRepo *repositories.UserRepository
	uploader media.Uploader
	logger   *logger.Logger
}

// NewUserService 创建用户服务实例
func NewUserService(userRepo *repositories.UserRepository, uploader media.Uploader, log *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		uploader: uploader,
		logger:   log,
	}
}

// UpdateProfileRequest 资料更新请求，至少提供一个字段
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// UpdateProfile 更新姓名 / 昵称 / 邮箱
func (s *UserService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*UserDTO, error) {
	if req.Name == "" && req.Nickname == "" && req.Email == "" {
		return nil, fmt.Errorf("%w: please provide at least one field to update", ErrValidation)
	}

	fields := make(map[string]interface{})

	if req.Name != "" {
		if !utils.ValidateName(req.Name) {
			return nil, fmt.Errorf("%w: name must contain only letters and spaces", ErrValidation)
		}
		fields["name"] = utils.CapitalizeName(req.Name)
	}

	if req.Nickname != "" {
		nickname := utils.NormalizeNickname(req.Nickname)
		if !utils.ValidateNickname(nickname) {
			return nil, fmt.Errorf("%w: invalid nickname format", ErrValidation)
		}
		current, err := s.userRepo.GetByID(userID)
		if err != nil {
			return nil, ErrUserNotFound
		}
		if nickname != current.Nickname {
			if taken, err := s.userRepo.ExistsByNickname(nickname); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrUserExists
			}
		}
		fields["nickname"] = nickname
	}

	if req.Email != "" {
		emailAddr := utils.NormalizeEmail(req.Email)
		if !utils.ValidateEmail(emailAddr) {
			return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
		}
		current, err := s.userRepo.GetByID(userID)
		if err != nil {
			return nil, ErrUserNotFound
		}
		if emailAddr != current.Email {
			if taken, err := s.userRepo.ExistsByEmail(emailAddr); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrUserExists
			}
		}
		fields["email"] = emailAddr
	}

	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return nil, err
	}
	return s.fresh(userID)
}

// UpdateOnlineStatus 切换在线状态可见性
func (s *UserService) UpdateOnlineStatus(userID uint, show bool) (*UserDTO, error) {
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"show_online_status": show}); err != nil {
		return nil, err
	}
	return s.fresh(userID)
}

// UpdateProfilePic 上传头像并更新资料
func (s *UserService) UpdateProfilePic(ctx context.Context, userID uint, dataURI string) (*UserDTO, error) {
	if dataURI == "" {
		return nil, fmt.Errorf("%w: please provide a profile picture", ErrValidation)
	}

	url, err := s.uploader.Upload(ctx, dataURI)
	if err != nil {
		s.logger.WithContext(ctx).Error("failed to upload profile picture",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, ErrUploadFailed
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"profile_pic": url}); err != nil {
		return nil, err
	}
	return s.fresh(userID)
}

// SetChatWallpaper 上传聊天壁纸，仅返回持久化 URL，不落库（壁纸归客户端状态管理）
func (s *UserService) SetChatWallpaper(ctx context.Context, dataURI string) (string, error) {
	if dataURI == "" {
		return "", fmt.Errorf("%w: please provide a wallpaper", ErrValidation)
	}

	url, err := s.uploader.Upload(ctx, dataURI)
	if err != nil {
		s.logger.WithContext(ctx).Error("failed to upload wallpaper", zap.Error(err))
		return "", ErrUploadFailed
	}
	return url, nil
}

// AllUsers 获取除本人外的全部活跃用户
func (s *UserService) AllUsers(userID uint) ([]UserDTO, error) {
	users, err := s.userRepo.ListAllExcept(userID)
	if err != nil {
		return nil, err
	}
	return toUserDTOs(users), nil
}

// Search 按 name/nickname/email 模糊搜索，page 从 1 开始
func (s *UserService) Search(term string, page, limit int) ([]UserDTO, int64, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, 0, fmt.Errorf("%w: please provide a search term", ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	users, total, err := s.userRepo.Search(term, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return toUserDTOs(users), total, nil
}

// Contacts 获取联系人列表
func (s *UserService) Contacts(userID uint) ([]UserDTO, error) {
	users, err := s.userRepo.GetContacts(userID)
	if err != nil {
		return nil, err
	}
	return toUserDTOs(users), nil
}

// AddContact 添加联系人（重复添加为 no-op），返回更新后的联系人列表
func (s *UserService) AddContact(userID, contactID uint) ([]UserDTO, error) {
	if _, err := s.userRepo.GetByID(contactID); err != nil {
		return nil, ErrUserNotFound
	}
	if err := s.userRepo.AddContact(userID, contactID); err != nil {
		return nil, err
	}
	return s.Contacts(userID)
}

// RemoveContact 移除联系人（不存在时同样为 no-op）
func (s *UserService) RemoveContact(userID, contactID uint) ([]UserDTO, error) {
	if err := s.userRepo.RemoveContact(userID, contactID); err != nil {
		return nil, err
	}
	return s.Contacts(userID)
}

// Blocked 获取黑名单列表
func (s *UserService) Blocked(userID uint) ([]UserDTO, error) {
	users, err := s.userRepo.GetBlocked(userID)
	if err != nil {
		return nil, err
	}
	return toUserDTOs(users), nil
}

// Block 拉黑用户，返回更新后的黑名单
func (s *UserService) Block(userID, blockedID uint) ([]UserDTO, error) {
	if _, err := s.userRepo.GetByID(blockedID); err != nil {
		return nil, ErrUserNotFound
	}
	if err := s.userRepo.AddBlock(userID, blockedID); err != nil {
		return nil, err
	}
	return s.Blocked(userID)
}

// Unblock 解除拉黑
func (s *UserService) Unblock(userID, blockedID uint) ([]UserDTO, error) {
	if err := s.userRepo.RemoveBlock(userID, blockedID); err != nil {
		return nil, err
	}
	return s.Blocked(userID)
}

func (s *UserService) fresh(userID uint) (*UserDTO, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return toUserDTO(user), nil
}
