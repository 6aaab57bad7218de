package controller

import (
	"codeleap_backend/internal/model"
	"codeleap_backend/internal/service"
	"codeleap_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	sessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// respond 统一的迁移结果映射：
// 边界提示（首步/末步）按规范是无操作+提示，不算请求错误；
// 校验错误 400；会话不存在 404；网关失败 502。
func respond(ctx *gin.Context, snap *model.SessionSnapshot, err error) {
	switch {
	case err == nil:
		util.Success(ctx, snap)
	case errors.Is(err, util.ErrEndOfPlan), errors.Is(err, util.ErrStartOfPlan):
		util.Success(ctx, snap)
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case util.IsValidationError(err):
		util.BadRequest(ctx, err.Error())
	default:
		util.BadGateway(ctx, err.Error())
	}
}

// Create 新建学习会话
// @Summary 创建学习会话
// @Description 新建会话并自动加载默认练习
// @Tags 会话
// @Produce json
// @Success 201 {object} util.Response{data=model.SessionSnapshot}
// @Router /sessions [post]
func (c *SessionController) Create(ctx *gin.Context) {
	snap, err := c.sessionService.CreateSession(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, snap)
}

// Get 查询会话状态快照
// @Summary 会话状态
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 404 {object} util.Response
// @Router /sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	snap, err := c.sessionService.Snapshot(ctx.Param("id"))
	respond(ctx, snap, err)
}

type generatePlanRequest struct {
	Content          string `json:"content"`
	DocumentationURL string `json:"documentationUrl"`
	CodeURL          string `json:"codeUrl"`
}

// GeneratePlan 生成学习计划
// @Summary 生成学习计划
// @Description 根据粘贴内容和/或文档、代码 URL 生成学习计划，成功后自动选中第一步
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body generatePlanRequest true "学习材料"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /sessions/{id}/plan [post]
func (c *SessionController) GeneratePlan(ctx *gin.Context) {
	var req generatePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.sessionService.GeneratePlan(ctx.Request.Context(), ctx.Param("id"), service.GenerateLearningPlanInput{
		Content:          req.Content,
		DocumentationURL: req.DocumentationURL,
		CodeURL:          req.CodeURL,
	})
	respond(ctx, snap, err)
}

// SelectStep 选择学习步骤
// @Summary 选择学习步骤
// @Description 为指定下标的步骤生成练习，下标在获取成功后才提交
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Param index path int true "步骤下标（从 0 开始）"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Router /sessions/{id}/steps/{index} [post]
func (c *SessionController) SelectStep(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "invalid step index")
		return
	}

	snap, err := c.sessionService.SelectStep(ctx.Request.Context(), ctx.Param("id"), index)
	respond(ctx, snap, err)
}

// DeselectStep 收起当前步骤
// @Summary 收起当前步骤
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Router /sessions/{id}/step [delete]
func (c *SessionController) DeselectStep(ctx *gin.Context) {
	snap, err := c.sessionService.DeselectStep(ctx.Param("id"))
	respond(ctx, snap, err)
}

// NextStep 下一步
// @Summary 下一步
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Router /sessions/{id}/next [post]
func (c *SessionController) NextStep(ctx *gin.Context) {
	snap, err := c.sessionService.NextStep(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, snap, err)
}

// PrevStep 上一步
// @Summary 上一步
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Router /sessions/{id}/prev [post]
func (c *SessionController) PrevStep(ctx *gin.Context) {
	snap, err := c.sessionService.PrevStep(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, snap, err)
}

type changeModeRequest struct {
	Mode model.LearningMode `json:"mode" binding:"required"`
}

// ChangeMode 切换学习模式
// @Summary 切换学习模式
// @Description hand-holding 或 challenge，切换后当前练习按新模式重新生成
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body changeModeRequest true "目标模式"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Router /sessions/{id}/mode [put]
func (c *SessionController) ChangeMode(ctx *gin.Context) {
	var req changeModeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.sessionService.ChangeMode(ctx.Request.Context(), ctx.Param("id"), req.Mode)
	respond(ctx, snap, err)
}

type codeRequest struct {
	Code string `json:"code"`
}

// UpdateCode 同步代码编辑内容
// @Summary 同步代码缓冲
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body codeRequest true "当前代码"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Router /sessions/{id}/code [put]
func (c *SessionController) UpdateCode(ctx *gin.Context) {
	var req codeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.sessionService.UpdateCode(ctx.Param("id"), req.Code)
	respond(ctx, snap, err)
}

// RunCode 模拟运行代码
// @Summary 模拟运行
// @Description 玩具级运行模拟，只回显 print 字面量，不做真实执行
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body codeRequest true "要运行的代码"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/run [post]
func (c *SessionController) RunCode(ctx *gin.Context) {
	var req codeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	output, err := c.sessionService.RunCode(ctx.Param("id"), req.Code)
	if err != nil {
		respond(ctx, nil, err)
		return
	}
	util.Success(ctx, gin.H{"output": output})
}

// ImproveCode 获取改进建议
// @Summary 改进建议
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body codeRequest true "待改进代码"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /sessions/{id}/improve [post]
func (c *SessionController) ImproveCode(ctx *gin.Context) {
	var req codeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.sessionService.ImproveCode(ctx.Request.Context(), ctx.Param("id"), req.Code)
	respond(ctx, snap, err)
}

// SubmitCode 提交代码
// @Summary 提交代码
// @Description 获取改进建议并做去空白的语法级对照判定
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body codeRequest true "提交的代码"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /sessions/{id}/submit [post]
func (c *SessionController) SubmitCode(ctx *gin.Context) {
	var req codeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.sessionService.SubmitCode(ctx.Request.Context(), ctx.Param("id"), req.Code)
	respond(ctx, snap, err)
}

// ExplainConcept 讲解当前概念
// @Summary 概念讲解
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /sessions/{id}/explain [post]
func (c *SessionController) ExplainConcept(ctx *gin.Context) {
	snap, err := c.sessionService.ExplainConcept(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, snap, err)
}

type togglePanelRequest struct {
	Panel model.ExpandedPanel `json:"panel" binding:"required"`
}

// TogglePanel 面板展开/收起
// @Summary 面板展开切换
// @Description exercise 或 code 独占展开，再次选择同一面板恢复分栏
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body togglePanelRequest true "目标面板"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Router /sessions/{id}/panel [put]
func (c *SessionController) TogglePanel(ctx *gin.Context) {
	var req togglePanelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.sessionService.ToggleExpand(ctx.Param("id"), req.Panel)
	respond(ctx, snap, err)
}
