package repository

import (
	"fmt"

	"github.com/user/bookify/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	// 建表/补索引
	if err := db.AutoMigrate(
		&model.User{},
		&model.Favorite{},
		&model.FeaturedBook{},
		&model.SearchLog{},
	); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// Repositories 仓库集合
type Repositories struct {
	DB        *gorm.DB
	User      *UserRepository
	Favorite  *FavoriteRepository
	Featured  *FeaturedBookRepository
	SearchLog *SearchLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:        db,
		User:      NewUserRepository(db),
		Favorite:  NewFavoriteRepository(db),
		Featured:  NewFeaturedBookRepository(db),
		SearchLog: NewSearchLogRepository(db),
	}
}
