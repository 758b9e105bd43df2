package service

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/user/bookify/internal/config"
	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/utils"
	"golang.org/x/sync/singleflight"
)

// CatalogService 图书目录搜索（Google Books）
type CatalogService struct {
	cfg    *config.Config
	client *utils.HTTPClient
	cache  *utils.SearchCache[[]model.Book]
	group  singleflight.Group
}

func NewCatalogService(cfg *config.Config) *CatalogService {
	return &CatalogService{
		cfg:    cfg,
		client: utils.NewHTTPClient(15 * time.Second),
		cache:  utils.NewSearchCache[[]model.Book](1000, 1*time.Hour),
	}
}

// googleVolumesResponse Google Books volumes 接口响应
type googleVolumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Description   string   `json:"description"`
			AverageRating float64  `json:"averageRating"`
			PreviewLink   string   `json:"previewLink"`
			ImageLinks    struct {
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Search 按关键词搜索目录，结果已规约为统一的 Book。
// 缓存优先；未命中时用 singleflight 合并并发的相同关键词抓取。
func (s *CatalogService) Search(keyword string) ([]model.Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []model.Book{}, nil
	}

	cacheKey := "catalog:" + strings.ToLower(keyword)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached, nil
	}

	val, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		books, err := s.fetch(keyword)
		if err != nil {
			return nil, err
		}
		s.cache.Set(cacheKey, books)
		return books, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]model.Book), nil
}

func (s *CatalogService) fetch(keyword string) ([]model.Book, error) {
	reqURL := fmt.Sprintf("%s/volumes?q=%s&maxResults=20",
		s.cfg.GoogleBooksURL, url.QueryEscape(keyword))

	var resp googleVolumesResponse
	if err := s.client.GetJSON(reqURL, &resp); err != nil {
		return nil, fmt.Errorf("目录搜索失败: %w", err)
	}

	books := make([]model.Book, 0, len(resp.Items))
	for _, item := range resp.Items {
		info := item.VolumeInfo
		image := info.ImageLinks.Thumbnail
		if image == "" {
			image = info.ImageLinks.SmallThumbnail
		}
		books = append(books, model.Book{
			BookID:      item.ID,
			Title:       info.Title,
			Author:      strings.Join(info.Authors, ", "),
			Image:       httpsURL(image),
			Description: info.Description,
			Rating:      info.AverageRating,
			PreviewLink: info.PreviewLink,
			Source:      "catalog",
		})
	}
	return books, nil
}

// httpsURL Google Books 缩略图默认是 http，统一升级为 https
func httpsURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
