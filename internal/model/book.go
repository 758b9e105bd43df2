package model

import (
	"strconv"
	"time"
)

// FeaturedBook 管理员精选图书（首页轮播）
type FeaturedBook struct {
	ID          int     `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Author      string  `json:"author" db:"author"`
	Cover       string  `json:"cover" db:"cover"`
	Description string  `json:"description" db:"description"`
	Rating      float64 `json:"rating" db:"rating"`
	Order       int     `json:"order" db:"display_order" gorm:"column:display_order;index"`
}

// Book 统一的图书展示模型。
// 目录搜索、畅销榜、精选轮播三种来源的数据在进入收藏缓存/视图绑定之前
// 都先规约到这一个类型，id 字段统一为 BookID。
type Book struct {
	BookID      string  `json:"bookId"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Image       string  `json:"image"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	PreviewLink string  `json:"previewLink,omitempty"`
	Source      string  `json:"source,omitempty"`
	Favorited   bool    `json:"favorited"`
}

// FavoriteEntry 把展示模型转为待落库的收藏条目
func (b *Book) FavoriteEntry() Favorite {
	return Favorite{
		BookID:      b.BookID,
		Title:       b.Title,
		Author:      b.Author,
		Image:       b.Image,
		PreviewLink: b.PreviewLink,
	}
}

// BookFromFavorite 收藏条目还原为展示模型（收藏页）
func BookFromFavorite(f Favorite) Book {
	return Book{
		BookID:      f.BookID,
		Title:       f.Title,
		Author:      f.Author,
		Image:       f.Image,
		PreviewLink: f.PreviewLink,
		Source:      "favorite",
		Favorited:   true,
	}
}

// BookFromFeatured 精选记录规约为展示模型。
// 精选表没有外部目录 id，用 "featured-<id>" 作为稳定的 BookID。
func BookFromFeatured(fb FeaturedBook) Book {
	return Book{
		BookID:      FeaturedBookID(fb.ID),
		Title:       fb.Title,
		Author:      fb.Author,
		Image:       fb.Cover,
		Description: fb.Description,
		Rating:      fb.Rating,
		Source:      "featured",
	}
}

// FeaturedBookID 精选记录的规范化外部 id
func FeaturedBookID(id int) string {
	return "featured-" + strconv.Itoa(id)
}

// SearchLog 图书搜索日志（匿名 IP 哈希，用于热词统计）
type SearchLog struct {
	ID        int       `json:"id" db:"id"`
	Keyword   string    `json:"keyword" db:"keyword"`
	UserID    *int      `json:"user_id" db:"user_id"`
	IPHash    string    `json:"ip_hash" db:"ip_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

// TrendingKeyword 热搜关键词
type TrendingKeyword struct {
	Keyword string `json:"keyword" db:"keyword"`
	Count   int    `json:"count" db:"count"`
}
