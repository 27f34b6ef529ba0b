// 手动刷新测验统计快照
//
// 主应用中已有定时任务（quiz.analytics_refresh_cron）周期性刷新。
// 此脚本用于首次部署、批量导入作答数据后立即重算。
//
// 用法: go run scripts/refresh_quiz_analytics.go [-quiz <id>]

package main

import (
	"context"
	"flag"
	"learning_cloud_backend/internal/config"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/service"
	"learning_cloud_backend/pkg/database"
	"learning_cloud_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type scriptConfig struct {
	Server   config.ServerConfig   `yaml:"server"`
	Database config.DatabaseConfig `yaml:"database"`
	Redis    config.RedisConfig    `yaml:"redis"`
	Quiz     struct {
		ImprovementThreshold    float64 `yaml:"improvement_threshold"`
		AnalyticsCacheTTLSecond int     `yaml:"analytics_cache_ttl_seconds"`
	} `yaml:"quiz"`
}

func main() {
	quizID := flag.Uint("quiz", 0, "只刷新指定测验")
	flag.Parse()

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var sc scriptConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	cfg := &config.Config{
		Server:   sc.Server,
		Database: sc.Database,
		Redis:    sc.Redis,
		Quiz: config.QuizConfig{
			ImprovementThreshold:    sc.Quiz.ImprovementThreshold,
			AnalyticsCacheTTLSecond: sc.Quiz.AnalyticsCacheTTLSecond,
		},
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Printf("Redis 不可用，仅更新数据库快照: %v", err)
		rdb = nil
	}

	analytics := service.NewQuizAnalyticsService(
		repository.NewQuizRepository(db),
		repository.NewAnalyticsRepository(db),
		rdb,
		service.NewQuizPolicy(cfg.Quiz),
		db,
	)

	ctx := context.Background()
	if *quizID > 0 {
		analytics.Invalidate(ctx, uint(*quizID))
		snapshot, err := analytics.QuizAnalytics(ctx, uint(*quizID))
		if err != nil {
			log.Fatalf("刷新测验 %d 失败: %v", *quizID, err)
		}
		log.Printf("测验 %d: 作答 %d 次，完成 %d 次，通过率 %.2f%%", *quizID, snapshot.TotalAttempts, snapshot.TotalCompletions, snapshot.PassRate)
		return
	}

	log.Println("手动刷新全部测验统计...")
	n, err := analytics.RefreshAll(ctx)
	if err != nil {
		log.Printf("部分测验刷新失败: %v", err)
	}
	log.Printf("完成！共刷新 %d 个测验", n)
}
