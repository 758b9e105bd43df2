package repository

import (
	"time"

	"github.com/user/bookify/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add 添加收藏。依赖 (user_id, book_id) 唯一索引 + ON CONFLICT DO NOTHING，
// 并发重复添加也只会落一条；返回值表示这次调用是否真的插入了新行。
func (r *FavoriteRepository) Add(userID int, entry *model.Favorite) (bool, error) {
	favorite := &model.Favorite{
		UserID:      userID,
		BookID:      entry.BookID,
		Title:       entry.Title,
		Author:      entry.Author,
		Image:       entry.Image,
		PreviewLink: entry.PreviewLink,
		CreatedAt:   time.Now(),
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(favorite)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Remove 取消收藏（幂等，不存在也算成功）
func (r *FavoriteRepository) Remove(userID int, bookID string) error {
	return r.db.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&model.Favorite{}).Error
}

// ListByUser 获取用户收藏列表（按插入顺序）
func (r *FavoriteRepository) ListByUser(userID int) ([]model.Favorite, error) {
	var favorites []model.Favorite
	err := r.db.Where("user_id = ?", userID).
		Order("id ASC").
		Find(&favorites).Error
	return favorites, err
}

// CountByUser 统计用户收藏数量
func (r *FavoriteRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// Replace 事务内整体替换用户的收藏序列（同步合并落盘用）。
// 调用方负责去重；唯一索引兜底。
func (r *FavoriteRepository) Replace(userID int, entries []model.Favorite) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.Favorite{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		now := time.Now()
		rows := make([]model.Favorite, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, model.Favorite{
				UserID:      userID,
				BookID:      e.BookID,
				Title:       e.Title,
				Author:      e.Author,
				Image:       e.Image,
				PreviewLink: e.PreviewLink,
				CreatedAt:   now,
			})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}
