package service

import (
	"codeleap_backend/internal/config"
	"codeleap_backend/internal/model"
	"codeleap_backend/internal/util"
	"codeleap_backend/pkg/logger"
	"codeleap_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GatewayService AI 生成网关：四个独立的请求/响应操作。
// 模型回复统一走 JSON 提取和结构校验，校验不过按网关失败处理，绝不静默纠偏。
type GatewayService struct {
	ai      *AIService
	fetcher *ContentFetcherService
	config  config.FetchConfig
}

func NewGatewayService(ai *AIService, fetcher *ContentFetcherService, cfg config.FetchConfig) *GatewayService {
	return &GatewayService{ai: ai, fetcher: fetcher, config: cfg}
}

type GenerateLearningPlanInput struct {
	Content          string `json:"content"`
	DocumentationURL string `json:"documentationUrl"`
	CodeURL          string `json:"codeUrl"`
}

type GenerateExerciseInput struct {
	Topic         string             `json:"topic"`
	Documentation string             `json:"documentation"`
	ExampleCode   string             `json:"exampleCode"`
	LearningMode  model.LearningMode `json:"learningMode"`
}

type ImproveCodeInput struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Question string `json:"question,omitempty"`
}

type ExplainConceptInput struct {
	Concept       string `json:"concept"`
	Documentation string `json:"documentation"`
	ExampleCode   string `json:"exampleCode"`
}

const planSystemPrompt = "你是一名 AI 课程设计师。你需要分析给定的学习材料，产出一个结构化学习计划。" +
	"只返回一个 JSON 对象，不要有任何多余文字，格式：" +
	`{"title": "计划标题", "learningSteps": [{"topic": "主题", "description": "学什么、为什么", ` +
	`"extractedDocumentation": "从材料中摘出的简短文档片段（可选）", "extractedExampleCode": "从材料中摘出的示例代码（可选）"}]}` +
	"。learningSteps 控制在 3-7 步，按由浅入深排序。"

// GenerateLearningPlan 把学习材料分解为有序学习计划。
// URL 内容先抓取为纯文本（HTML 会被转换、超长截断）再拼进材料。
func (s *GatewayService) GenerateLearningPlan(ctx context.Context, input GenerateLearningPlanInput) (*model.LearningPlan, error) {
	start := time.Now()
	plan, err := s.generateLearningPlan(ctx, input)
	monitoring.ObserveGatewayCall("generate_plan", start, err)
	return plan, err
}

func (s *GatewayService) generateLearningPlan(ctx context.Context, input GenerateLearningPlanInput) (*model.LearningPlan, error) {
	assembled := input.Content
	if input.DocumentationURL != "" {
		assembled += s.fetcher.FetchLabeled(ctx, input.DocumentationURL, "Documentation")
	}
	if input.CodeURL != "" {
		assembled += s.fetcher.FetchLabeled(ctx, input.CodeURL, "Code")
	}

	if strings.TrimSpace(assembled) == "" {
		return nil, util.ErrEmptyContent
	}

	userPrompt := "学习材料（包含粘贴的文本及从 URL 抓取的内容）：\n\n" + assembled

	reply, err := s.ai.Chat(ctx, planSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	raw := util.ExtractJSONObject(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", util.ErrGatewayBadShape)
	}

	var plan model.LearningPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		// learningSteps 不是数组等结构性错误都会落到这里
		logger.Log.Warn("学习计划结构解析失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", util.ErrGatewayBadShape, err)
	}
	if plan.Title == "" {
		return nil, fmt.Errorf("%w: missing plan title", util.ErrGatewayBadShape)
	}
	for i, step := range plan.LearningSteps {
		if step.Topic == "" {
			return nil, fmt.Errorf("%w: step %d missing topic", util.ErrGatewayBadShape, i)
		}
	}

	return &plan, nil
}

const exerciseSystemPrompt = "你是一名 Python 练习题生成器。根据主题、文档、示例代码和学习模式出一道练习题。" +
	"只返回一个 JSON 对象，不要有任何多余文字，格式：" +
	`{"question": "题目描述", "codeSnippet": "带 ____ 或 # TODO 填空的起始代码", "solution": "完整 Python 解答"}` +
	"。学习模式为 challenge 时题目要求更高、必须从零开始写，codeSnippet 必须是空字符串；" +
	"学习模式为 hand-holding 时 codeSnippet 必须给出便于填空的起始代码。"

// GenerateExercise 为指定主题生成练习。challenge 模式强制清空起始代码，
// hand-holding 模式下模型漏给片段时用默认占位补上。
func (s *GatewayService) GenerateExercise(ctx context.Context, input GenerateExerciseInput) (*model.Exercise, error) {
	start := time.Now()
	ex, err := s.generateExercise(ctx, input)
	monitoring.ObserveGatewayCall("generate_exercise", start, err)
	return ex, err
}

func (s *GatewayService) generateExercise(ctx context.Context, input GenerateExerciseInput) (*model.Exercise, error) {
	userPrompt := fmt.Sprintf("主题: %s\n文档: %s\n示例代码:\n%s\n学习模式: %s",
		input.Topic, input.Documentation, input.ExampleCode, input.LearningMode)

	reply, err := s.ai.Chat(ctx, exerciseSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	raw := util.ExtractJSONObject(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", util.ErrGatewayBadShape)
	}

	var out struct {
		Question    string `json:"question"`
		CodeSnippet string `json:"codeSnippet"`
		Solution    string `json:"solution"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGatewayBadShape, err)
	}
	if out.Question == "" || out.Solution == "" {
		return nil, fmt.Errorf("%w: missing question or solution", util.ErrGatewayBadShape)
	}

	// 模式约束在边界强制执行，不信任模型自觉
	switch input.LearningMode {
	case model.ModeChallenge:
		out.CodeSnippet = ""
	case model.ModeHandHolding:
		if out.CodeSnippet == "" {
			out.CodeSnippet = util.DefaultHandHoldingSnippet
		}
	}

	return &model.Exercise{
		Question:      out.Question,
		CodeSnippet:   out.CodeSnippet,
		Solution:      out.Solution,
		Topic:         input.Topic,
		Documentation: input.Documentation,
		ExampleCode:   input.ExampleCode,
	}, nil
}

const improveSystemPrompt = "你是一名资深软件工程师，为学生代码提供改进建议，关注最佳实践、效率和可读性。" +
	"只返回一个 JSON 对象，不要有任何多余文字，格式：" +
	`{"improvements": "改进建议文本"}`

// ImproveCode 获取代码改进建议
func (s *GatewayService) ImproveCode(ctx context.Context, input ImproveCodeInput) (string, error) {
	start := time.Now()
	improvements, err := s.improveCode(ctx, input)
	monitoring.ObserveGatewayCall("improve_code", start, err)
	return improvements, err
}

func (s *GatewayService) improveCode(ctx context.Context, input ImproveCodeInput) (string, error) {
	userPrompt := fmt.Sprintf("语言: %s\n代码:\n```%s\n%s\n```", input.Language, input.Language, input.Code)
	if input.Question != "" {
		userPrompt += "\n\n这段代码要回答的题目:\n" + input.Question
	}

	reply, err := s.ai.Chat(ctx, improveSystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	raw := util.ExtractJSONObject(reply)
	if raw == "" {
		return "", fmt.Errorf("%w: no JSON object in reply", util.ErrGatewayBadShape)
	}

	var out struct {
		Improvements string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrGatewayBadShape, err)
	}
	if out.Improvements == "" {
		return "", fmt.Errorf("%w: missing improvements", util.ErrGatewayBadShape)
	}

	return out.Improvements, nil
}

const explainSystemPrompt = "你是一名善于把复杂概念讲简单的编程老师。讲解给定概念，拆解成小块，并说明它如何应用到给定的文档和示例代码上。" +
	"只返回一个 JSON 对象，不要有任何多余文字，格式：" +
	`{"explanation": "通俗讲解", "breakdown": "分步拆解", "application": "结合文档与示例代码的应用说明"}`

// ExplainConcept 讲解当前练习对应的概念
func (s *GatewayService) ExplainConcept(ctx context.Context, input ExplainConceptInput) (*model.Explanation, error) {
	start := time.Now()
	explanation, err := s.explainConcept(ctx, input)
	monitoring.ObserveGatewayCall("explain_concept", start, err)
	return explanation, err
}

func (s *GatewayService) explainConcept(ctx context.Context, input ExplainConceptInput) (*model.Explanation, error) {
	userPrompt := fmt.Sprintf("概念: %s\n文档: %s\n示例代码:\n%s",
		input.Concept, input.Documentation, input.ExampleCode)

	reply, err := s.ai.Chat(ctx, explainSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	raw := util.ExtractJSONObject(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", util.ErrGatewayBadShape)
	}

	var out model.Explanation
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGatewayBadShape, err)
	}
	if out.Explanation == "" {
		return nil, fmt.Errorf("%w: missing explanation", util.ErrGatewayBadShape)
	}

	return &out, nil
}
