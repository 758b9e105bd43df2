package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/bookify/internal/middleware"
	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/utils"
)

// SearchBooks 目录搜索
// GET /api/books/search?q=xxx
func (h *Handler) SearchBooks(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("q"))
	if keyword == "" {
		utils.BadRequest(c, "搜索关键词不能为空")
		return
	}

	books, err := h.Catalog.Search(keyword)
	if err != nil {
		// 上游不可用按空结果处理，不给前端弹错误
		log.Printf("[SearchBooks] 目录搜索失败: %v", err)
		utils.Success(c, gin.H{"books": []model.Book{}})
		return
	}

	// 有结果才记搜索日志，IP 只存哈希
	if len(books) > 0 {
		userID := middleware.GetUserIDPtr(c)
		ipHash := utils.HashIP(c.ClientIP())
		go func(kw string, uid *int, ip string) {
			if err := h.Repos.SearchLog.Log(kw, uid, ip); err != nil {
				log.Printf("[SearchBooks] 记录搜索日志失败: %v", err)
			}
		}(keyword, userID, ipHash)
	}

	utils.Success(c, gin.H{"books": books})
}

// BestsellerBooks 畅销榜
// GET /api/books/bestsellers
func (h *Handler) BestsellerBooks(c *gin.Context) {
	books, err := h.Bestsellers.Current()
	if err != nil {
		log.Printf("[BestsellerBooks] 获取畅销榜失败: %v", err)
		utils.Success(c, gin.H{"books": []model.Book{}})
		return
	}

	utils.Success(c, gin.H{"books": books})
}

// BookNews 书讯
// GET /api/news?q=xxx
func (h *Handler) BookNews(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("q"))

	items, err := h.News.Search(keyword)
	if err != nil {
		log.Printf("[BookNews] 获取书讯失败: %v", err)
		utils.Success(c, gin.H{"articles": []interface{}{}})
		return
	}

	utils.Success(c, gin.H{"articles": items})
}

// TrendingSearches 最近 24 小时热搜关键词
// GET /api/books/trending
func (h *Handler) TrendingSearches(c *gin.Context) {
	keywords, err := h.Repos.SearchLog.GetTrending(24, 10)
	if err != nil {
		log.Printf("[TrendingSearches] 获取热搜失败: %v", err)
		utils.Success(c, gin.H{"keywords": []model.TrendingKeyword{}})
		return
	}

	utils.Success(c, gin.H{"keywords": keywords})
}

// ProxyImage 封面图片代理（绕开第三方图床的防盗链）
// GET /api/proxy/image?url=xxx
func (h *Handler) ProxyImage(c *gin.Context) {
	targetURL := c.Query("url")
	if targetURL == "" {
		utils.BadRequest(c, "URL 不能为空")
		return
	}
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		utils.BadRequest(c, "仅支持 http/https 图片地址")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), "GET", targetURL, nil)
	if err != nil {
		utils.InternalServerError(c, "创建请求失败")
		return
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		utils.InternalServerError(c, "请求图片失败")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.Status(resp.StatusCode)
		return
	}

	c.DataFromReader(http.StatusOK, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, nil)
}
