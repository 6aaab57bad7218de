package model

// Exercise 当前步骤生成的练习题，换步骤、换模式、换计划时整体替换，从不原地修改
type Exercise struct {
	Question    string `json:"question"`
	CodeSnippet string `json:"codeSnippet,omitempty"` // challenge 模式下为空
	Solution    string `json:"solution"`

	// 生成练习时从步骤（或默认值）带过来的上下文
	Topic         string `json:"topic"`
	Documentation string `json:"documentation"`
	ExampleCode   string `json:"exampleCode"`
}

// Feedback 改进建议/提交结果反馈，加载新练习时清空
type Feedback struct {
	Message     string `json:"message,omitempty"`
	Suggestions string `json:"suggestions,omitempty"`
	IsCorrect   *bool  `json:"isCorrect,omitempty"` // 仅提交后有值
}

// Explanation 概念讲解，加载新练习时清空
type Explanation struct {
	Explanation string `json:"explanation"`
	Breakdown   string `json:"breakdown"`
	Application string `json:"application"`
}
