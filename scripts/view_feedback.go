// 查看反馈记录脚本
//
// 按时间倒序把 feedback_ratings 表的全部记录打印到控制台，
// 用于人工查看学习计划收到的点赞/点踩。
//
// 用法: go run scripts/view_feedback.go

package main

import (
	"codeleap_backend/internal/config"
	"codeleap_backend/internal/repository"
	"codeleap_backend/internal/util"
	"codeleap_backend/pkg/database"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/codeleap.db"
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	repo := repository.NewFeedbackRepository(db)
	rows, err := repo.FindAll()
	if err != nil {
		log.Fatalf("查询反馈记录失败: %v", err)
	}

	fmt.Printf("共 %d 条反馈记录\n", len(rows))
	fmt.Println("-----------------------------")

	if len(rows) == 0 {
		fmt.Println("暂无反馈记录")
		return
	}

	for i, row := range rows {
		fmt.Printf("第 %d 条:\n", i+1)
		fmt.Printf("ID: %d\n", row.ID)
		fmt.Printf("时间: %s\n", row.Timestamp.Format(util.TimeFormat))
		fmt.Printf("计划: %s\n", row.PlanID)
		if row.StepID != nil {
			fmt.Printf("步骤: %d\n", *row.StepID)
		} else {
			fmt.Println("步骤: N/A")
		}
		fmt.Printf("评分: %s\n", row.Rating)
		if row.Comment != "" {
			fmt.Printf("评论: %s\n", row.Comment)
		}
		fmt.Printf("用户: %s\n", row.UserID)
		fmt.Println("-----------------------------")
	}
}
