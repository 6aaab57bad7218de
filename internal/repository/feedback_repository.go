package repository

import (
	"codeleap_backend/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create 追加一条反馈记录，表只追加，不更新不删除
func (r *FeedbackRepository) Create(rating *model.FeedbackRating) error {
	return r.db.Create(rating).Error
}

// FindByPlanID 按计划标识查询，最新在前
func (r *FeedbackRepository) FindByPlanID(planID string) ([]model.FeedbackRating, error) {
	var ratings []model.FeedbackRating
	err := r.db.Where("plan_id = ?", planID).
		Order("timestamp DESC").
		Find(&ratings).Error
	return ratings, err
}

// FindAll 全量导出，最新在前，供运维脚本使用
func (r *FeedbackRepository) FindAll() ([]model.FeedbackRating, error) {
	var ratings []model.FeedbackRating
	err := r.db.Order("timestamp DESC").Find(&ratings).Error
	return ratings, err
}
