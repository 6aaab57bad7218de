package model

import "time"

const (
	RatingThumbsUp   = "thumbs_up"
	RatingThumbsDown = "thumbs_down"
)

// FeedbackRating 学习计划的点赞/点踩记录，只追加，不更新不删除
type FeedbackRating struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	PlanID    string    `gorm:"size:255;index;not null" json:"planId"` // 计划标题作为标识
	StepID    *int      `gorm:"column:step_id" json:"stepId,omitempty"`
	Rating    string    `gorm:"size:20;not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	UserID    string    `gorm:"size:100;default:anonymous" json:"userId"`
}

func (FeedbackRating) TableName() string {
	return "feedback_ratings"
}

func ValidRating(r string) bool {
	return r == RatingThumbsUp || r == RatingThumbsDown
}
