// @title CodeLeap 后端 API
// @version 1.0
// @description CodeLeap 交互式编程学习应用的后端服务器。

// @contact.name API支持

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

package main

import (
	"codeleap_backend/internal/app"
	"codeleap_backend/internal/config"
	"codeleap_backend/pkg/configwatcher"
	"codeleap_backend/pkg/database"
	"codeleap_backend/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	watch := flag.Bool("watch-config", false, "监听配置文件变更并热重载")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.MigrateOnly = *migrateOnly

	if *migrateOnly {
		logger.InitLogger(cfg)
		if _, err := database.InitDB(&cfg.Database, cfg.Server.Mode); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("数据库迁移完成，退出程序")
		return
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *watch {
		go func() {
			err := configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
				logger.Log.Info("Config reloaded")
				*application.Config = *newCfg
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	application.Run()
}
