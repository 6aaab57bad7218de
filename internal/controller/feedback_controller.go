package controller

import (
	"codeleap_backend/internal/service"
	"codeleap_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type FeedbackController struct {
	feedbackService *service.FeedbackService
}

func NewFeedbackController(feedbackService *service.FeedbackService) *FeedbackController {
	return &FeedbackController{feedbackService: feedbackService}
}

// Store 提交学习计划反馈
// @Summary 提交反馈
// @Description 对学习计划（或某个步骤）点赞/点踩，可附评论
// @Tags 反馈
// @Accept json
// @Produce json
// @Param request body service.StoreFeedbackInput true "反馈内容"
// @Success 201 {object} util.Response{data=model.FeedbackRating}
// @Failure 400 {object} util.Response
// @Router /feedback [post]
func (c *FeedbackController) Store(ctx *gin.Context) {
	var input service.StoreFeedbackInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rating, err := c.feedbackService.StoreFeedback(input)
	if err != nil {
		if errors.Is(err, util.ErrInvalidRating) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, rating)
}

// List 查询计划的全部反馈
// @Summary 查询反馈
// @Description 按计划标识返回全部反馈，最新在前
// @Tags 反馈
// @Produce json
// @Param planId path string true "计划标识（计划标题）"
// @Success 200 {object} util.Response{data=[]model.FeedbackRating}
// @Router /feedback/{planId} [get]
func (c *FeedbackController) List(ctx *gin.Context) {
	ratings, err := c.feedbackService.GetFeedback(ctx.Param("planId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, ratings)
}
