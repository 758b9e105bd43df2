package service

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/bookify/internal/config"
	"github.com/user/bookify/internal/utils"
)

// NewsItem 书讯条目
type NewsItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
}

// NewsService Guardian 图书版块书讯
type NewsService struct {
	cfg    *config.Config
	client *utils.HTTPClient
}

func NewNewsService(cfg *config.Config) *NewsService {
	return &NewsService{
		cfg:    cfg,
		client: utils.NewHTTPClient(15 * time.Second),
	}
}

// guardianResponse Guardian content API 响应
type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Results []struct {
			ID                 string `json:"id"`
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Thumbnail string `json:"thumbnail"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// Search 搜索图书版块的新闻
func (s *NewsService) Search(keyword string) ([]NewsItem, error) {
	cacheKey := "news:" + strings.ToLower(strings.TrimSpace(keyword))
	if cached, found := utils.CacheGet(cacheKey); found {
		if items, ok := cached.([]NewsItem); ok {
			return items, nil
		}
	}

	reqURL := fmt.Sprintf("%s/search?section=books&q=%s&show-fields=trailText,thumbnail&page-size=12&api-key=%s",
		s.cfg.GuardianURL, url.QueryEscape(keyword), s.cfg.GuardianAPIKey)

	var resp guardianResponse
	if err := s.client.GetJSON(reqURL, &resp); err != nil {
		return nil, fmt.Errorf("获取书讯失败: %w", err)
	}

	items := make([]NewsItem, 0, len(resp.Response.Results))
	for _, r := range resp.Response.Results {
		items = append(items, NewsItem{
			ID:        r.ID,
			Title:     r.WebTitle,
			URL:       r.WebURL,
			Thumbnail: r.Fields.Thumbnail,
			Summary:   stripHTML(r.Fields.TrailText),
			Published: r.WebPublicationDate,
		})
	}

	utils.CacheSet(cacheKey, items, 30*time.Minute)

	return items, nil
}

// stripHTML Guardian 的 trailText 混有 HTML 标签，剥成纯文本
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
