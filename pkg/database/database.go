package database

import (
	"fmt"
	"learning_cloud_backend/internal/config"
	"learning_cloud_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "sqlite" {
		// 写事务使用 BEGIN IMMEDIATE，保证并发开始测验时串行化
		return sqlite.Open(SQLiteDSN(cfg.DBName))
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
	return mysql.Open(dsn)
}

func SQLiteDSN(path string) string {
	return "file:" + path + "?_txlock=immediate&_busy_timeout=10000&_foreign_keys=on"
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector(&cfg.Database), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.QuizAttempt{},
		&model.Answer{},
		&model.QuizSession{},
		&model.QuizResult{},
		&model.QuizFeedback{},
		&model.QuizAnalytics{},
		&model.Notification{},
		&model.AnalyticsEvent{},
	)
}
