package model

// LearningMode 学习模式，全局作用于当前会话，切换时会重新生成当前练习
type LearningMode string

const (
	ModeHandHolding LearningMode = "hand-holding" // 带填空提示的新手模式
	ModeChallenge   LearningMode = "challenge"    // 从零开始写代码的挑战模式
)

func (m LearningMode) Valid() bool {
	return m == ModeHandHolding || m == ModeChallenge
}

// ExpandedPanel 前端面板展开状态，纯 UI 状态
type ExpandedPanel string

const (
	PanelNone     ExpandedPanel = ""
	PanelExercise ExpandedPanel = "exercise"
	PanelCode     ExpandedPanel = "code"
)

func (p ExpandedPanel) Valid() bool {
	return p == PanelExercise || p == PanelCode
}

// LoadingFlags 每个异步操作独立的加载标志
type LoadingFlags struct {
	Plan        bool `json:"plan"`
	Exercise    bool `json:"exercise"`
	Improve     bool `json:"improve"`
	Submit      bool `json:"submit"`
	Explanation bool `json:"explanation"`
}

// SessionSnapshot 会话状态的一次性只读快照，控制器直接序列化返回
type SessionSnapshot struct {
	ID           string        `json:"id"`
	Plan         *LearningPlan `json:"plan,omitempty"`
	StepIndex    *int          `json:"stepIndex,omitempty"` // nil 表示未选中任何步骤
	Exercise     *Exercise     `json:"exercise,omitempty"`
	CodeBuffer   string        `json:"codeBuffer"`
	Feedback     *Feedback     `json:"feedback,omitempty"`
	Explanation  *Explanation  `json:"explanation,omitempty"`
	Mode         LearningMode  `json:"mode"`
	Expanded     ExpandedPanel `json:"expandedPanel,omitempty"`
	Loading      LoadingFlags  `json:"loading"`
	LastNotice   string        `json:"lastNotice,omitempty"`
}
