package util

import "errors"

var (
	ErrSessionNotFound  = errors.New("会话不存在或已过期")
	ErrEmptyContent     = errors.New("请粘贴学习内容或提供文档/代码 URL")
	ErrNoPlan           = errors.New("当前没有学习计划")
	ErrStepOutOfRange   = errors.New("无效的计划步骤")
	ErrNoExercise       = errors.New("请先加载一个练习")
	ErrInvalidMode      = errors.New("invalid learning mode")
	ErrInvalidPanel     = errors.New("invalid panel")
	ErrInvalidRating    = errors.New("invalid rating value")
	ErrEndOfPlan        = errors.New("已经是学习计划的最后一步")
	ErrStartOfPlan      = errors.New("已经是学习计划的第一步")
	ErrEmptyPlan        = errors.New("AI 未能从内容中生成学习步骤")
	ErrGatewayBadShape  = errors.New("AI 返回的结构不合法")
)

// IsValidationError 校验类错误在发起任何远程调用之前被拒绝，只产生提示，不改变状态
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrNoPlan),
		errors.Is(err, ErrStepOutOfRange),
		errors.Is(err, ErrNoExercise),
		errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrInvalidPanel),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrEndOfPlan),
		errors.Is(err, ErrStartOfPlan):
		return true
	}
	return false
}
