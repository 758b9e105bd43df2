package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email" gorm:"unique"`
	PasswordHash string    `json:"-" db:"password_hash"`
	GoogleID     string    `json:"-" db:"google_id" gorm:"index"`
	Avatar       string    `json:"avatar" db:"avatar"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// HasPassword 是否设置过口令（纯 Google 账号没有）
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Favorite 收藏条目，按 (user_id, book_id) 唯一
type Favorite struct {
	ID          int       `json:"-" db:"id"`
	UserID      int       `json:"-" db:"user_id" gorm:"uniqueIndex:idx_user_book"`
	BookID      string    `json:"bookId" db:"book_id" gorm:"uniqueIndex:idx_user_book"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Image       string    `json:"image" db:"image"`
	PreviewLink string    `json:"previewLink" db:"preview_link"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
}
