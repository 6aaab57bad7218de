package service

import (
	"codeleap_backend/internal/config"
	"codeleap_backend/internal/model"
	"codeleap_backend/internal/util"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer 模拟 OpenAI 兼容端点，记录收到的每条用户消息
type chatServer struct {
	server  *httptest.Server
	mu      sync.Mutex
	reply   string
	status  int
	prompts []string
}

func newChatServer(t *testing.T, reply string) *chatServer {
	t.Helper()
	cs := &chatServer{reply: reply, status: http.StatusOK}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		cs.mu.Lock()
		for _, msg := range req.Messages {
			if msg.Role == "user" {
				cs.prompts = append(cs.prompts, msg.Content)
			}
		}
		reply, status := cs.reply, cs.status
		cs.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"message": "upstream overloaded"}}`))
			return
		}
		resp := ChatCompletionResponse{}
		resp.Choices = []struct {
			Message AIChatMessage `json:"message"`
		}{{Message: AIChatMessage{Role: "assistant", Content: reply}}}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *chatServer) setReply(reply string) {
	cs.mu.Lock()
	cs.reply = reply
	cs.mu.Unlock()
}

func (cs *chatServer) lastPrompt() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.prompts) == 0 {
		return ""
	}
	return cs.prompts[len(cs.prompts)-1]
}

func (cs *chatServer) requestCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.prompts)
}

func newTestGateway(cs *chatServer) *GatewayService {
	initTestLogger()
	aiCfg := config.AIConfig{
		BaseURL:        cs.server.URL,
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		TimeoutSeconds: 5,
	}
	fetchCfg := config.FetchConfig{
		MaxContentChars: 30000,
		TimeoutSeconds:  5,
		CacheTTLMinutes: 1,
	}
	ai := NewAIService(aiCfg)
	fetcher := NewContentFetcherService(fetchCfg, nil)
	return NewGatewayService(ai, fetcher, fetchCfg)
}

func TestGenerateLearningPlanParsesFencedJSON(t *testing.T) {
	cs := newChatServer(t, "以下是学习计划：\n```json\n"+
		`{"title": "Python 入门", "learningSteps": [`+
		`{"topic": "变量", "description": "变量与赋值", "extractedDocumentation": "doc", "extractedExampleCode": "x = 1"},`+
		`{"topic": "循环", "description": "for 与 while"}]}`+
		"\n```\n祝学习顺利！")
	gw := newTestGateway(cs)

	plan, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{Content: "python basics"})
	require.NoError(t, err)
	assert.Equal(t, "Python 入门", plan.Title)
	require.Len(t, plan.LearningSteps, 2)
	assert.Equal(t, "变量", plan.LearningSteps[0].Topic)
	assert.Equal(t, "x = 1", plan.LearningSteps[0].ExtractedExampleCode)
}

func TestGenerateLearningPlanBadShape(t *testing.T) {
	// learningSteps 不是数组：必须报网关结构错误，不做静默纠偏
	cs := newChatServer(t, `{"title": "Plan", "learningSteps": "step one; step two"}`)
	gw := newTestGateway(cs)

	_, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{Content: "x"})
	require.ErrorIs(t, err, util.ErrGatewayBadShape)
}

func TestGenerateLearningPlanMissingTitle(t *testing.T) {
	cs := newChatServer(t, `{"learningSteps": [{"topic": "a", "description": "b"}]}`)
	gw := newTestGateway(cs)

	_, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{Content: "x"})
	require.ErrorIs(t, err, util.ErrGatewayBadShape)
}

func TestGenerateLearningPlanNoJSONInReply(t *testing.T) {
	cs := newChatServer(t, "抱歉，我无法按要求生成计划。")
	gw := newTestGateway(cs)

	_, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{Content: "x"})
	require.ErrorIs(t, err, util.ErrGatewayBadShape)
}

func TestGenerateLearningPlanEmptyContentRejected(t *testing.T) {
	cs := newChatServer(t, `{"title": "t", "learningSteps": []}`)
	gw := newTestGateway(cs)

	_, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{Content: "   \n\t"})
	require.ErrorIs(t, err, util.ErrEmptyContent)
	assert.Equal(t, 0, cs.requestCount())
}

func TestGenerateLearningPlanAssemblesURLContent(t *testing.T) {
	docServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><h1>Lists</h1><p>Lists hold ordered items.</p></body></html>"))
	}))
	defer docServer.Close()

	cs := newChatServer(t, `{"title": "Plan", "learningSteps": [{"topic": "Lists", "description": "d"}]}`)
	gw := newTestGateway(cs)

	_, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{
		Content:          "notes",
		DocumentationURL: docServer.URL,
	})
	require.NoError(t, err)

	prompt := cs.lastPrompt()
	assert.Contains(t, prompt, "notes")
	assert.Contains(t, prompt, "--- Documentation from URL ("+docServer.URL+") ---")
	assert.Contains(t, prompt, "Lists hold ordered items.")
}

func TestGenerateLearningPlanURLFailurePlaceholder(t *testing.T) {
	deadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer deadServer.Close()

	cs := newChatServer(t, `{"title": "Plan", "learningSteps": [{"topic": "a", "description": "b"}]}`)
	gw := newTestGateway(cs)

	// 抓取失败不会中断计划生成，提示词里带错误占位段
	_, err := gw.GenerateLearningPlan(context.Background(), GenerateLearningPlanInput{
		Content: "notes",
		CodeURL: deadServer.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, cs.lastPrompt(), "[Error fetching Code from "+deadServer.URL)
}

func TestGenerateExerciseChallengeForcesEmptySnippet(t *testing.T) {
	// 模型违规给了起始代码，challenge 模式必须强制清空
	cs := newChatServer(t, `{"question": "Write a loop", "codeSnippet": "for i in range(10):", "solution": "for i in range(10):\n    print(i)"}`)
	gw := newTestGateway(cs)

	ex, err := gw.GenerateExercise(context.Background(), GenerateExerciseInput{
		Topic:        "Loops",
		LearningMode: model.ModeChallenge,
	})
	require.NoError(t, err)
	assert.Empty(t, ex.CodeSnippet)
	assert.Equal(t, "Write a loop", ex.Question)
	assert.Equal(t, "Loops", ex.Topic)
}

func TestGenerateExerciseHandHoldingDefaultSnippet(t *testing.T) {
	// 模型漏给片段，hand-holding 模式用默认占位补上
	cs := newChatServer(t, `{"question": "Assign x", "codeSnippet": "", "solution": "x = 1"}`)
	gw := newTestGateway(cs)

	ex, err := gw.GenerateExercise(context.Background(), GenerateExerciseInput{
		Topic:        "Vars",
		LearningMode: model.ModeHandHolding,
	})
	require.NoError(t, err)
	assert.Equal(t, util.DefaultHandHoldingSnippet, ex.CodeSnippet)
}

func TestGenerateExerciseCarriesForwardContext(t *testing.T) {
	cs := newChatServer(t, `{"question": "Q", "codeSnippet": "x = ____", "solution": "x = 1"}`)
	gw := newTestGateway(cs)

	ex, err := gw.GenerateExercise(context.Background(), GenerateExerciseInput{
		Topic:         "Vars",
		Documentation: "doc text",
		ExampleCode:   "x = 1",
		LearningMode:  model.ModeHandHolding,
	})
	require.NoError(t, err)
	assert.Equal(t, "doc text", ex.Documentation)
	assert.Equal(t, "x = 1", ex.ExampleCode)
}

func TestGenerateExerciseMissingSolution(t *testing.T) {
	cs := newChatServer(t, `{"question": "Q", "codeSnippet": "x = ____"}`)
	gw := newTestGateway(cs)

	_, err := gw.GenerateExercise(context.Background(), GenerateExerciseInput{
		Topic:        "Vars",
		LearningMode: model.ModeHandHolding,
	})
	require.ErrorIs(t, err, util.ErrGatewayBadShape)
}

func TestImproveCode(t *testing.T) {
	cs := newChatServer(t, `{"improvements": "use enumerate instead of range(len(...))"}`)
	gw := newTestGateway(cs)

	improvements, err := gw.ImproveCode(context.Background(), ImproveCodeInput{
		Code:     "for i in range(len(xs)): print(xs[i])",
		Language: "python",
		Question: "Print all items",
	})
	require.NoError(t, err)
	assert.Contains(t, improvements, "enumerate")
	assert.Contains(t, cs.lastPrompt(), "Print all items")
}

func TestExplainConceptParsesAllFields(t *testing.T) {
	cs := newChatServer(t, `{"explanation": "变量就是命名的盒子", "breakdown": "1. 命名 2. 赋值", "application": "示例中 x = 1 把 1 存进 x"}`)
	gw := newTestGateway(cs)

	expl, err := gw.ExplainConcept(context.Background(), ExplainConceptInput{
		Concept:     "Vars",
		ExampleCode: "x = 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "变量就是命名的盒子", expl.Explanation)
	assert.NotEmpty(t, expl.Breakdown)
	assert.NotEmpty(t, expl.Application)
}

func TestChatUpstreamErrorSurfaces(t *testing.T) {
	cs := newChatServer(t, "")
	cs.mu.Lock()
	cs.status = http.StatusServiceUnavailable
	cs.mu.Unlock()
	gw := newTestGateway(cs)

	_, err := gw.ImproveCode(context.Background(), ImproveCodeInput{Code: "x = 1", Language: "python"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

// newHungGateway 上游挂起不响应，ai.timeout_seconds 兜底
func newHungGateway(t *testing.T) *GatewayService {
	t.Helper()
	initTestLogger()
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 必须先读完请求体，服务端才能感知客户端断开并取消 ctx，否则 Close 会死锁
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(hung.Close)

	aiCfg := config.AIConfig{
		BaseURL:        hung.URL,
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		TimeoutSeconds: 1,
	}
	fetchCfg := config.FetchConfig{
		MaxContentChars: 30000,
		TimeoutSeconds:  5,
		CacheTTLMinutes: 1,
	}
	return NewGatewayService(NewAIService(aiCfg), NewContentFetcherService(fetchCfg, nil), fetchCfg)
}

func TestChatTimeoutSurfacesAsFailure(t *testing.T) {
	gw := newHungGateway(t)

	_, err := gw.GenerateExercise(context.Background(), GenerateExerciseInput{
		Topic:        "变量",
		LearningMode: model.ModeHandHolding,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutClearsExerciseLoading(t *testing.T) {
	gw := newHungGateway(t)
	svc := NewSessionService(gw, config.SessionConfig{TTLMinutes: 30})

	// 默认练习加载超时不阻止建会话，快照不能停在加载中
	snap, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.Exercise)
	assert.False(t, snap.Loading.Exercise)
	assert.Contains(t, snap.LastNotice, "练习生成失败")
}
