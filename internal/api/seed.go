package api

import (
	"context"
	"errors"

	"minishop/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDefaults 初始化默认管理员账号与基础分类。
// 已存在的数据不会被覆盖, 可以安全地在每次启动时调用。
func (s *Server) SeedDefaults(ctx context.Context) error {
	const adminEmail = "admin@example.com"

	var admin model.User
	err := s.db.WithContext(ctx).Where("email = ?", adminEmail).First(&admin).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
		if hashErr != nil {
			return hashErr
		}
		admin = model.User{
			Name:     "Admin",
			Email:    adminEmail,
			Password: string(hash),
			Role:     "admin",
		}
		if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
			return err
		}
		s.logger.Info("seeded default admin account", "email", adminEmail)
	}

	defaults := []model.Category{
		{Name: "Điện thoại", Description: "Điện thoại di động các hãng"},
		{Name: "Laptop", Description: "Máy tính xách tay"},
		{Name: "Tablet", Description: "Máy tính bảng"},
		{Name: "Tai nghe", Description: "Tai nghe có dây và không dây"},
		{Name: "Đồng hồ", Description: "Đồng hồ thông minh"},
	}
	for _, category := range defaults {
		var existing model.Category
		err := s.db.WithContext(ctx).Where("name = ?", category.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
			return err
		}
	}

	return nil
}
