package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有CRM表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&User{},
		&Company{},
		&Contact{},
		&Stage{},

		// 管线
		&Deal{},
		&Task{},
		&Interaction{},

		// 文档
		&Document{},
		&NDA{},
	)
}
