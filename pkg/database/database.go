package database

import (
	"basebuilder_backend/internal/config"
	"basebuilder_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// 把方言的唯一键冲突翻译成 gorm.ErrDuplicatedKey，
		// 调度器靠它识别惰性创建的并发冲突
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedCatalog(db)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Collection{},
		&model.CollectionItem{},
		&model.KnowledgeItem{},
		&model.ItemChoice{},
		&model.ItemProficiency{},
		&model.CategoryProficiency{},
		&model.CollectionProficiency{},
		&model.AttemptRecord{},
	)
}

// seedCatalog 目录为空时插入演示用分类与条目，方便本地联调
func seedCatalog(db *gorm.DB) {
	var count int64
	db.Model(&model.Category{}).Count(&count)
	if count > 0 {
		return
	}

	categories := []model.Category{
		{ID: model.GenerateUUID(), Name: "光合作用", Description: "植物的能量转化"},
		{ID: model.GenerateUUID(), Name: "水循环", Description: "蒸发、凝结与降水"},
	}
	for i := range categories {
		db.Create(&categories[i])
	}

	items := []model.KnowledgeItem{
		{
			ID:         model.GenerateUUID(),
			Title:      "叶绿体",
			Prompt:     "植物细胞中进行光合作用的细胞器是什么？",
			AnswerType: model.AnswerFreeText,
			Answer:     "叶绿体",
			CategoryID: categories[0].ID,
			Difficulty: 1,
			Active:     true,
		},
		{
			ID:              model.GenerateUUID(),
			Title:           "蒸发",
			Prompt:          "水由液态变为气态的过程叫什么？",
			AnswerType:      model.AnswerFreeText,
			Answer:          "蒸发",
			AcceptedAnswers: "汽化, evaporation",
			CategoryID:      categories[1].ID,
			Difficulty:      1,
			Active:          true,
		},
		{
			ID:         model.GenerateUUID(),
			Title:      "光合作用需要光",
			Prompt:     "光合作用只能在有光的条件下进行。",
			AnswerType: model.AnswerTrueFalse,
			Answer:     "true",
			CategoryID: categories[0].ID,
			Difficulty: 2,
			Active:     true,
		},
	}
	for i := range items {
		db.Create(&items[i])
	}
}
