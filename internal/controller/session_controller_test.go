package controller

import (
	"bytes"
	"codeleap_backend/internal/config"
	"codeleap_backend/internal/model"
	"codeleap_backend/internal/service"
	"codeleap_backend/internal/util"
	"codeleap_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}
}

// stubGateway 固定回复的网关替身，failAll 打开后全部调用报错
type stubGateway struct {
	failAll bool
}

func (g *stubGateway) GenerateLearningPlan(context.Context, service.GenerateLearningPlanInput) (*model.LearningPlan, error) {
	if g.failAll {
		return nil, errors.New("model unavailable")
	}
	return &model.LearningPlan{
		Title: "Intro",
		LearningSteps: []model.LearningStep{
			{Topic: "Vars", Description: "variables"},
			{Topic: "Loops", Description: "loops"},
		},
	}, nil
}

func (g *stubGateway) GenerateExercise(_ context.Context, in service.GenerateExerciseInput) (*model.Exercise, error) {
	if g.failAll {
		return nil, errors.New("model unavailable")
	}
	snippet := ""
	if in.LearningMode == model.ModeHandHolding {
		snippet = "x = ____"
	}
	return &model.Exercise{
		Question:    "Exercise about " + in.Topic,
		CodeSnippet: snippet,
		Solution:    "x = 1",
		Topic:       in.Topic,
	}, nil
}

func (g *stubGateway) ImproveCode(context.Context, service.ImproveCodeInput) (string, error) {
	if g.failAll {
		return "", errors.New("model unavailable")
	}
	return "looks fine", nil
}

func (g *stubGateway) ExplainConcept(_ context.Context, in service.ExplainConceptInput) (*model.Explanation, error) {
	if g.failAll {
		return nil, errors.New("model unavailable")
	}
	return &model.Explanation{Explanation: "about " + in.Concept}, nil
}

func newSessionRouter(gw service.Gateway) *gin.Engine {
	svc := service.NewSessionService(gw, config.SessionConfig{TTLMinutes: 120})
	c := NewSessionController(svc)

	r := gin.New()
	sessions := r.Group("/api/sessions")
	{
		sessions.POST("", c.Create)
		sessions.GET("/:id", c.Get)
		sessions.POST("/:id/plan", c.GeneratePlan)
		sessions.POST("/:id/steps/:index", c.SelectStep)
		sessions.POST("/:id/next", c.NextStep)
		sessions.POST("/:id/prev", c.PrevStep)
		sessions.PUT("/:id/mode", c.ChangeMode)
		sessions.POST("/:id/run", c.RunCode)
		sessions.POST("/:id/submit", c.SubmitCode)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (util.Response, map[string]any) {
	t.Helper()
	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data := decodeResponse(t, w)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateAndGetSession(t *testing.T) {
	r := newSessionRouter(&stubGateway{})
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "hand-holding", data["mode"])
	assert.NotNil(t, data["exercise"])
}

func TestGetUnknownSession404(t *testing.T) {
	r := newSessionRouter(&stubGateway{})

	w := doJSON(t, r, http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeneratePlanEmptyInput400(t *testing.T) {
	r := newSessionRouter(&stubGateway{})
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/plan", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeneratePlanGatewayFailure502(t *testing.T) {
	gw := &stubGateway{}
	r := newSessionRouter(gw)
	id := createSession(t, r)

	gw.failAll = true
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/plan", gin.H{"content": "notes"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestStepNavigationOverHTTP(t *testing.T) {
	r := newSessionRouter(&stubGateway{})
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/plan", gin.H{"content": "notes"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, float64(0), data["stepIndex"])

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decodeResponse(t, w)
	assert.Equal(t, float64(1), data["stepIndex"])

	// 末步越界是无操作+提示，不是请求错误
	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decodeResponse(t, w)
	assert.Equal(t, float64(1), data["stepIndex"])
	assert.NotEmpty(t, data["lastNotice"])

	// 非法步骤下标是请求错误
	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/steps/99", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/steps/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeModeOverHTTP(t *testing.T) {
	r := newSessionRouter(&stubGateway{})
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPut, "/api/sessions/"+id+"/mode", gin.H{"mode": "challenge"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, "challenge", data["mode"])

	w = doJSON(t, r, http.MethodPut, "/api/sessions/"+id+"/mode", gin.H{"mode": "turbo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunCodeOverHTTP(t *testing.T) {
	r := newSessionRouter(&stubGateway{})
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/run", gin.H{"code": "print('hi')"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, "hi", data["output"])
}

func TestSubmitCodeOverHTTP(t *testing.T) {
	r := newSessionRouter(&stubGateway{})
	id := createSession(t, r)

	// 默认练习的标准答案是 "x = 1"
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/submit", gin.H{"code": "x=1"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	feedback, _ := data["feedback"].(map[string]any)
	require.NotNil(t, feedback)
	assert.Equal(t, true, feedback["isCorrect"])
}
