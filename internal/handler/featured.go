package handler

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/utils"
)

const featuredCacheKey = "featured:list"

// ListFeatured 获取精选图书（公开，按展示顺序）
func (h *Handler) ListFeatured(c *gin.Context) {
	if cached, found := utils.CacheGet(featuredCacheKey); found {
		if books, ok := cached.([]model.FeaturedBook); ok {
			utils.Success(c, books)
			return
		}
	}

	books, err := h.Repos.Featured.ListAll()
	if err != nil {
		log.Printf("[ListFeatured] 查询失败: %v", err)
		utils.InternalServerError(c, "获取精选图书失败")
		return
	}

	utils.CacheSet(featuredCacheKey, books, 10*time.Minute)
	utils.Success(c, books)
}

type featuredBookReq struct {
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Cover       string  `json:"cover" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Rating      float64 `json:"rating" binding:"omitempty,bookrating"`
	Order       *int    `json:"order"`
}

// CreateFeatured 新增精选图书（管理员）
func (h *Handler) CreateFeatured(c *gin.Context) {
	var req featuredBookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "标题、作者、封面和简介均不能为空")
		return
	}

	book := &model.FeaturedBook{
		Title:       req.Title,
		Author:      req.Author,
		Cover:       req.Cover,
		Description: req.Description,
		Rating:      req.Rating,
	}
	if err := h.Repos.Featured.Create(book); err != nil {
		log.Printf("[CreateFeatured] 写入失败: %v", err)
		utils.InternalServerError(c, "新增精选图书失败")
		return
	}

	utils.CacheDelete(featuredCacheKey)
	utils.Created(c, book)
}

// UpdateFeatured 更新精选图书（管理员）
func (h *Handler) UpdateFeatured(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的图书 ID")
		return
	}

	book, err := h.Repos.Featured.FindByID(id)
	if err != nil {
		log.Printf("[UpdateFeatured] 查询失败: %v", err)
		utils.InternalServerError(c, "更新精选图书失败")
		return
	}
	if book == nil {
		utils.NotFound(c, "精选图书不存在")
		return
	}

	var req featuredBookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "标题、作者、封面和简介均不能为空")
		return
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Cover = req.Cover
	book.Description = req.Description
	book.Rating = req.Rating
	if req.Order != nil {
		book.Order = *req.Order
	}

	if err := h.Repos.Featured.Update(book); err != nil {
		log.Printf("[UpdateFeatured] 更新失败: %v", err)
		utils.InternalServerError(c, "更新精选图书失败")
		return
	}

	utils.CacheDelete(featuredCacheKey)
	utils.Success(c, book)
}

// DeleteFeatured 删除精选图书（管理员）
func (h *Handler) DeleteFeatured(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的图书 ID")
		return
	}

	if err := h.Repos.Featured.Delete(id); err != nil {
		log.Printf("[DeleteFeatured] 删除失败: %v", err)
		utils.InternalServerError(c, "删除精选图书失败")
		return
	}

	utils.CacheDelete(featuredCacheKey)
	utils.Success(c, nil)
}
