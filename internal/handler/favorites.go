package handler

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/user/bookify/internal/middleware"
	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/utils"
)

// ListFavorites 获取当前用户的收藏列表（插入顺序）
func (h *Handler) ListFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)

	favorites, err := h.Repos.Favorite.ListByUser(userID)
	if err != nil {
		log.Printf("[ListFavorites] 查询失败: %v", err)
		utils.InternalServerError(c, "获取收藏失败")
		return
	}

	utils.Success(c, gin.H{"favorites": favorites})
}

type favoriteReq struct {
	BookID      string `json:"bookId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Image       string `json:"image"`
	PreviewLink string `json:"previewLink"`
}

// AddFavorite 添加收藏。重复添加返回 400，但不会产生第二条记录。
func (h *Handler) AddFavorite(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req favoriteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}
	if req.BookID == "" {
		utils.BadRequest(c, "图书 ID 不能为空")
		return
	}

	entry := model.Favorite{
		BookID:      req.BookID,
		Title:       req.Title,
		Author:      req.Author,
		Image:       req.Image,
		PreviewLink: req.PreviewLink,
	}

	added, err := h.Repos.Favorite.Add(userID, &entry)
	if err != nil {
		log.Printf("[AddFavorite] 写入失败: %v", err)
		utils.InternalServerError(c, "收藏失败")
		return
	}
	if !added {
		utils.BadRequest(c, "已在收藏夹中")
		return
	}

	favorites, err := h.Repos.Favorite.ListByUser(userID)
	if err != nil {
		log.Printf("[AddFavorite] 回读失败: %v", err)
		utils.InternalServerError(c, "收藏失败")
		return
	}

	utils.Success(c, gin.H{"favorites": favorites})
}

// RemoveFavorite 取消收藏。幂等：不存在也返回 200 和当前列表。
func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	bookID := c.Param("bookId")

	if err := h.Repos.Favorite.Remove(userID, bookID); err != nil {
		log.Printf("[RemoveFavorite] 删除失败: %v", err)
		utils.InternalServerError(c, "取消收藏失败")
		return
	}

	favorites, err := h.Repos.Favorite.ListByUser(userID)
	if err != nil {
		log.Printf("[RemoveFavorite] 回读失败: %v", err)
		utils.InternalServerError(c, "取消收藏失败")
		return
	}

	utils.Success(c, gin.H{"favorites": favorites})
}

type syncFavoritesReq struct {
	Favorites []favoriteReq `json:"favorites"`
}

// SyncFavorites 客户端上送本地收藏快照，服务端合并后返回权威列表。
// 合并规则：服务端现有顺序优先，本地多出的按上送顺序追加。
func (h *Handler) SyncFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req syncFavoritesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}

	current, err := h.Repos.Favorite.ListByUser(userID)
	if err != nil {
		log.Printf("[SyncFavorites] 查询失败: %v", err)
		utils.InternalServerError(c, "同步失败")
		return
	}

	seen := make(map[string]bool, len(current))
	merged := make([]model.Favorite, 0, len(current)+len(req.Favorites))
	for _, f := range current {
		seen[f.BookID] = true
		merged = append(merged, f)
	}
	for _, r := range req.Favorites {
		if r.BookID == "" || seen[r.BookID] {
			continue
		}
		seen[r.BookID] = true
		merged = append(merged, model.Favorite{
			BookID:      r.BookID,
			Title:       r.Title,
			Author:      r.Author,
			Image:       r.Image,
			PreviewLink: r.PreviewLink,
		})
	}

	if err := h.Repos.Favorite.Replace(userID, merged); err != nil {
		log.Printf("[SyncFavorites] 落盘失败: %v", err)
		utils.InternalServerError(c, "同步失败")
		return
	}

	favorites, err := h.Repos.Favorite.ListByUser(userID)
	if err != nil {
		log.Printf("[SyncFavorites] 回读失败: %v", err)
		utils.InternalServerError(c, "同步失败")
		return
	}

	utils.Success(c, gin.H{"favorites": favorites})
}
