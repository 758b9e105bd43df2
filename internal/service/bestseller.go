package service

import (
	"fmt"
	"time"

	"github.com/user/bookify/internal/config"
	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/utils"
	"golang.org/x/sync/singleflight"
)

// 畅销榜更新频率很低，缓存可以放心放长
const bestsellerCacheKey = "bestsellers:hardcover-fiction"
const bestsellerCacheTTL = 6 * time.Hour

// BestsellerService NYT 畅销榜
type BestsellerService struct {
	cfg    *config.Config
	client *utils.HTTPClient
	group  singleflight.Group
}

func NewBestsellerService(cfg *config.Config) *BestsellerService {
	return &BestsellerService{
		cfg:    cfg,
		client: utils.NewHTTPClient(15 * time.Second),
	}
}

// nytListResponse NYT books API 响应
type nytListResponse struct {
	Results struct {
		Books []struct {
			Rank          int    `json:"rank"`
			PrimaryISBN13 string `json:"primary_isbn13"`
			Title         string `json:"title"`
			Author        string `json:"author"`
			Description   string `json:"description"`
			BookImage     string `json:"book_image"`
			AmazonURL     string `json:"amazon_product_url"`
		} `json:"books"`
	} `json:"results"`
}

// Current 当前精装小说畅销榜，规约为统一的 Book
func (s *BestsellerService) Current() ([]model.Book, error) {
	if cached, found := utils.CacheGet(bestsellerCacheKey); found {
		if books, ok := cached.([]model.Book); ok {
			return books, nil
		}
	}

	val, err, _ := s.group.Do(bestsellerCacheKey, func() (interface{}, error) {
		books, err := s.fetch()
		if err != nil {
			return nil, err
		}
		utils.CacheSet(bestsellerCacheKey, books, bestsellerCacheTTL)
		return books, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]model.Book), nil
}

func (s *BestsellerService) fetch() ([]model.Book, error) {
	reqURL := fmt.Sprintf("%s/lists/current/hardcover-fiction.json?api-key=%s",
		s.cfg.NYTBooksURL, s.cfg.NYTAPIKey)

	var resp nytListResponse
	if err := s.client.GetJSON(reqURL, &resp); err != nil {
		return nil, fmt.Errorf("获取畅销榜失败: %w", err)
	}

	books := make([]model.Book, 0, len(resp.Results.Books))
	for _, b := range resp.Results.Books {
		books = append(books, model.Book{
			BookID:      b.PrimaryISBN13,
			Title:       b.Title,
			Author:      b.Author,
			Image:       b.BookImage,
			Description: b.Description,
			PreviewLink: b.AmazonURL,
			Source:      "bestseller",
		})
	}
	return books, nil
}
