package model

// LearningStep 学习计划中的单个学习步骤，按下标寻址
type LearningStep struct {
	Topic                  string `json:"topic"`
	Description            string `json:"description"`
	ExtractedDocumentation string `json:"extractedDocumentation,omitempty"`
	ExtractedExampleCode   string `json:"extractedExampleCode,omitempty"`
}

// LearningPlan 由一次成功的计划生成调用产生，生成后不可变，只能整体替换
type LearningPlan struct {
	Title         string         `json:"title"`
	LearningSteps []LearningStep `json:"learningSteps"`
}

// StepAt 返回下标对应的步骤，越界返回 false
func (p *LearningPlan) StepAt(index int) (LearningStep, bool) {
	if p == nil || index < 0 || index >= len(p.LearningSteps) {
		return LearningStep{}, false
	}
	return p.LearningSteps[index], true
}
