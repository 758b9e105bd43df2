package repository

import (
	"errors"

	"github.com/user/bookify/internal/model"
	"gorm.io/gorm"
)

type FeaturedBookRepository struct {
	db *gorm.DB
}

func NewFeaturedBookRepository(db *gorm.DB) *FeaturedBookRepository {
	return &FeaturedBookRepository{db: db}
}

// ListAll 获取全部精选图书，按展示顺序
func (r *FeaturedBookRepository) ListAll() ([]model.FeaturedBook, error) {
	var books []model.FeaturedBook
	err := r.db.Order("display_order ASC, id ASC").Find(&books).Error
	return books, err
}

// Create 新增精选图书，展示顺序排在末尾
func (r *FeaturedBookRepository) Create(book *model.FeaturedBook) error {
	var count int64
	if err := r.db.Model(&model.FeaturedBook{}).Count(&count).Error; err != nil {
		return err
	}
	book.Order = int(count)
	return r.db.Create(book).Error
}

// FindByID 根据 ID 查找精选图书
func (r *FeaturedBookRepository) FindByID(id int) (*model.FeaturedBook, error) {
	var book model.FeaturedBook
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update 更新精选图书
func (r *FeaturedBookRepository) Update(book *model.FeaturedBook) error {
	return r.db.Model(&model.FeaturedBook{}).Where("id = ?", book.ID).Updates(map[string]interface{}{
		"title":         book.Title,
		"author":        book.Author,
		"cover":         book.Cover,
		"description":   book.Description,
		"rating":        book.Rating,
		"display_order": book.Order,
	}).Error
}

// Delete 删除精选图书
func (r *FeaturedBookRepository) Delete(id int) error {
	return r.db.Delete(&model.FeaturedBook{}, id).Error
}
