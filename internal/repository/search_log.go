package repository

import (
	"fmt"
	"time"

	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/utils"
	"gorm.io/gorm"
)

type SearchLogRepository struct {
	db *gorm.DB
}

func NewSearchLogRepository(db *gorm.DB) *SearchLogRepository {
	return &SearchLogRepository{db: db}
}

// Log 记录图书搜索日志
func (r *SearchLogRepository) Log(keyword string, userID *int, ipHash string) error {
	log := &model.SearchLog{
		Keyword:   keyword,
		UserID:    userID,
		IPHash:    ipHash,
		CreatedAt: time.Now(),
	}
	return r.db.Create(log).Error
}

// GetTrending 获取最近 hours 小时内的热搜关键词
func (r *SearchLogRepository) GetTrending(hours, limit int) ([]*model.TrendingKeyword, error) {
	// 先查缓存
	cacheKey := fmt.Sprintf("trending:%d:%d", hours, limit)
	if cached, found := utils.CacheGet(cacheKey); found {
		if keywords, ok := cached.([]*model.TrendingKeyword); ok {
			return keywords, nil
		}
	}

	var keywords []*model.TrendingKeyword
	err := r.db.Raw(`
		SELECT keyword, COUNT(*) as count
		FROM search_logs
		WHERE created_at > NOW() - INTERVAL '1 hour' * ?
		GROUP BY keyword
		ORDER BY count DESC
		LIMIT ?
	`, hours, limit).Scan(&keywords).Error
	if err != nil {
		return nil, err
	}

	utils.CacheSet(cacheKey, keywords, 30*time.Minute)

	return keywords, nil
}

// DeleteOldLogs 清理超过指定天数的原始搜索日志
func (r *SearchLogRepository) DeleteOldLogs(days int) (int64, error) {
	result := r.db.Exec(`
		DELETE FROM search_logs
		WHERE created_at < NOW() - INTERVAL '1 day' * ?
	`, days)
	return result.RowsAffected, result.Error
}
