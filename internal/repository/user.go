package repository

import (
	"errors"
	"time"

	"github.com/user/bookify/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrDuplicateEmail 邮箱已被注册
var ErrDuplicateEmail = errors.New("该邮箱已被注册")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建口令账号
func (r *UserRepository) Create(name, email, password string) (*model.User, error) {
	// 口令哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "user",
		CreatedAt:    time.Now(),
	}

	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

// CreateWithGoogle 首次 Google 登录时创建账号（无口令）
func (r *UserRepository) CreateWithGoogle(name, email, googleID, avatar string) (*model.User, error) {
	user := &model.User{
		Name:      name,
		Email:     email,
		GoogleID:  googleID,
		Avatar:    avatar,
		Role:      "user",
		CreatedAt: time.Now(),
	}

	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

// FindByEmail 根据邮箱查找用户
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByGoogleID 根据 Google 外部身份查找用户
func (r *UserRepository) FindByGoogleID(googleID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("google_id = ?", googleID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(id int) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CheckPassword 验证口令
func (r *UserRepository) CheckPassword(user *model.User, password string) bool {
	if user.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

// LinkGoogleID 把 Google 外部身份链接到已有账号（幂等，已链接则不动）
func (r *UserRepository) LinkGoogleID(userID int, googleID string) error {
	return r.db.Model(&model.User{}).
		Where("id = ? AND (google_id = '' OR google_id IS NULL)", userID).
		Update("google_id", googleID).Error
}

// UpdateAvatar 更新头像
func (r *UserRepository) UpdateAvatar(userID int, avatar string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("avatar", avatar).Error
}
