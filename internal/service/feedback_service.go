package service

import (
	"codeleap_backend/internal/model"
	"codeleap_backend/internal/repository"
	"codeleap_backend/internal/util"
	"time"
)

// FeedbackService 学习计划点赞/点踩的存取
type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
}

func NewFeedbackService(feedbackRepo *repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo}
}

type StoreFeedbackInput struct {
	PlanID  string `json:"planId" binding:"required"`
	StepID  *int   `json:"stepId"`
	Rating  string `json:"rating" binding:"required"`
	Comment string `json:"comment"`
	UserID  string `json:"userId"`
}

// StoreFeedback 追加一条评分记录
func (s *FeedbackService) StoreFeedback(input StoreFeedbackInput) (*model.FeedbackRating, error) {
	if !model.ValidRating(input.Rating) {
		return nil, util.ErrInvalidRating
	}

	userID := input.UserID
	if userID == "" {
		userID = util.DefaultUserID
	}

	rating := &model.FeedbackRating{
		Timestamp: time.Now(),
		PlanID:    input.PlanID,
		StepID:    input.StepID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		UserID:    userID,
	}

	if err := s.feedbackRepo.Create(rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// GetFeedback 按计划标识取全部评分，最新在前
func (s *FeedbackService) GetFeedback(planID string) ([]model.FeedbackRating, error) {
	return s.feedbackRepo.FindByPlanID(planID)
}
