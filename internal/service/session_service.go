package service

import (
	"codeleap_backend/internal/config"
	"codeleap_backend/internal/model"
	"codeleap_backend/internal/util"
	"codeleap_backend/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway 会话编排器依赖的 AI 生成网关
type Gateway interface {
	GenerateLearningPlan(ctx context.Context, input GenerateLearningPlanInput) (*model.LearningPlan, error)
	GenerateExercise(ctx context.Context, input GenerateExerciseInput) (*model.Exercise, error)
	ImproveCode(ctx context.Context, input ImproveCodeInput) (string, error)
	ExplainConcept(ctx context.Context, input ExplainConceptInput) (*model.Explanation, error)
}

// Session 单个学习会话的全部可见状态。
// 编排器是唯一写入方；网关回调落在其他 goroutine 上，所以用互斥锁保护。
// fetchSeq 对每次发起的异步获取单调递增，结果返回时序号不是最新的直接丢弃，
// 避免慢请求覆盖新状态。
type Session struct {
	ID string

	mu          sync.Mutex
	plan        *model.LearningPlan
	stepIndex   *int
	exercise    *model.Exercise
	codeBuffer  string
	feedback    *model.Feedback
	explanation *model.Explanation
	mode        model.LearningMode
	expanded    model.ExpandedPanel
	loading     model.LoadingFlags
	lastNotice  string
	fetchSeq    uint64
	lastActive  time.Time
}

// SessionService 学习会话编排器：持有会话注册表并驱动所有状态迁移。
// 所有迁移都是显式函数，由用户意图直接触发，不做任何字段监听式的隐式联动。
type SessionService struct {
	gateway Gateway
	ttl     time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(gateway Gateway, cfg config.SessionConfig) *SessionService {
	return &SessionService{
		gateway:  gateway,
		ttl:      time.Duration(cfg.TTLMinutes) * time.Minute,
		sessions: make(map[string]*Session),
	}
}

// CreateSession 新建会话并加载默认练习（NoPlan 状态的进入动作）
func (s *SessionService) CreateSession(ctx context.Context) (*model.SessionSnapshot, error) {
	sess := &Session{
		ID:         uuid.New().String(),
		mode:       model.ModeHandHolding,
		lastActive: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	// 默认练习加载失败不影响会话创建，用户可以切模式或生成计划重试
	if err := s.fetchDefaultExercise(ctx, sess); err != nil {
		logger.Log.Warn("默认练习加载失败", zap.String("session", sess.ID), zap.Error(err))
	}

	return s.snapshot(sess), nil
}

func (s *SessionService) get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.lastActive = time.Now()
	sess.mu.Unlock()
	return sess, nil
}

// Snapshot 返回会话状态的只读快照
func (s *SessionService) Snapshot(id string) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// GeneratePlan 迁移①：生成学习计划。
// 校验失败在任何网络调用前拒绝；成功且步骤数≥1 时立刻选中第 0 步；
// 失败回到 NoPlan 并重新拉取默认练习。
func (s *SessionService) GeneratePlan(ctx context.Context, id string, input GenerateLearningPlanInput) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if input.Content == "" && input.DocumentationURL == "" && input.CodeURL == "" {
		sess.mu.Lock()
		sess.lastNotice = util.ErrEmptyContent.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), util.ErrEmptyContent
	}

	sess.mu.Lock()
	sess.plan = nil
	sess.stepIndex = nil
	sess.exercise = nil
	sess.codeBuffer = ""
	sess.feedback = nil
	sess.explanation = nil
	sess.loading.Plan = true
	sess.lastNotice = ""
	sess.fetchSeq++ // 作废仍在途的练习获取
	sess.mu.Unlock()

	plan, err := s.gateway.GenerateLearningPlan(ctx, input)

	sess.mu.Lock()
	sess.loading.Plan = false
	if err != nil {
		sess.lastNotice = fmt.Sprintf("学习计划生成失败: %v", err)
		sess.mu.Unlock()
		logger.Log.Warn("学习计划生成失败", zap.String("session", sess.ID), zap.Error(err))
		// 回到 NoPlan 后重新加载默认练习
		if ferr := s.fetchDefaultExercise(ctx, sess); ferr != nil {
			logger.Log.Warn("默认练习加载失败", zap.String("session", sess.ID), zap.Error(ferr))
		}
		return s.snapshot(sess), err
	}

	sess.plan = plan
	if len(plan.LearningSteps) == 0 {
		// 退化成功：有计划但没有步骤，提示但不报错
		sess.lastNotice = util.ErrEmptyPlan.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), nil
	}
	sess.mu.Unlock()

	return s.SelectStep(ctx, id, 0)
}

// SelectStep 迁移②：选中步骤并获取练习。
// 步骤下标只在获取成功后提交，失败时回到未选中状态，绝不留下指向未获取内容的悬空下标。
func (s *SessionService) SelectStep(ctx context.Context, id string, index int) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	step, ok := sess.plan.StepAt(index)
	if !ok {
		rejection := util.ErrStepOutOfRange
		if !sess.planLoaded() {
			rejection = util.ErrNoPlan
		}
		sess.lastNotice = rejection.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), rejection
	}

	sess.fetchSeq++
	seq := sess.fetchSeq
	mode := sess.mode
	sess.exercise = nil
	sess.codeBuffer = ""
	sess.feedback = nil
	sess.explanation = nil
	sess.loading.Exercise = true
	sess.lastNotice = ""
	sess.mu.Unlock()

	documentation := step.ExtractedDocumentation
	if documentation == "" {
		documentation = util.DefaultDocumentation
	}
	exampleCode := step.ExtractedExampleCode
	if exampleCode == "" {
		exampleCode = util.DefaultExampleCode
	}

	exercise, err := s.gateway.GenerateExercise(ctx, GenerateExerciseInput{
		Topic:         step.Topic,
		Documentation: documentation,
		ExampleCode:   exampleCode,
		LearningMode:  mode,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// 加载标志属于本次派发，结果过期也要清掉，否则快照里永远显示加载中
	sess.loading.Exercise = false
	if seq != sess.fetchSeq {
		// 期间用户已经发起了更新的获取，本次结果作废
		logger.Log.Debug("丢弃过期的练习获取结果",
			zap.String("session", sess.ID), zap.Int("step", index))
		return s.snapshotLocked(sess), nil
	}

	if err != nil {
		sess.stepIndex = nil
		sess.lastNotice = fmt.Sprintf("练习生成失败: %v", err)
		return s.snapshotLocked(sess), err
	}

	sess.exercise = exercise
	if exercise.CodeSnippet != "" {
		sess.codeBuffer = exercise.CodeSnippet
	} else if mode == model.ModeChallenge {
		sess.codeBuffer = challengeScaffold(step.Topic, documentation, exampleCode)
	}
	committed := index
	sess.stepIndex = &committed

	return s.snapshotLocked(sess), nil
}

// DeselectStep 收起当前步骤：保留计划，清空步骤相关状态
func (s *SessionService) DeselectStep(id string) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.fetchSeq++
	sess.stepIndex = nil
	sess.exercise = nil
	sess.codeBuffer = ""
	sess.feedback = nil
	sess.explanation = nil
	sess.loading.Exercise = false
	sess.mu.Unlock()

	return s.snapshot(sess), nil
}

// ChangeMode 迁移③：切换学习模式。
// 有选中步骤时按新模式重取同一步骤的练习，没有计划时按新模式重取默认练习，
// 这是模式生效的唯一入口，保证练习/代码缓冲始终与模式一致。
func (s *SessionService) ChangeMode(ctx context.Context, id string, mode model.LearningMode) (*model.SessionSnapshot, error) {
	if !mode.Valid() {
		return nil, util.ErrInvalidMode
	}

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.mode = mode
	hasStep := sess.planLoaded() && sess.stepIndex != nil
	var index int
	if hasStep {
		index = *sess.stepIndex
	}
	sess.mu.Unlock()

	if hasStep {
		return s.SelectStep(ctx, id, index)
	}

	if err := s.fetchDefaultExercise(ctx, sess); err != nil {
		return s.snapshot(sess), err
	}
	return s.snapshot(sess), nil
}

// NextStep 迁移④：下一步。末步时不动状态，只给出边界提示
func (s *SessionService) NextStep(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	return s.stepBy(ctx, id, +1, util.ErrEndOfPlan)
}

// PrevStep 迁移④：上一步。首步时不动状态，只给出边界提示
func (s *SessionService) PrevStep(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	return s.stepBy(ctx, id, -1, util.ErrStartOfPlan)
}

func (s *SessionService) stepBy(ctx context.Context, id string, delta int, boundaryErr error) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	target := -1
	if sess.planLoaded() && sess.stepIndex != nil {
		target = *sess.stepIndex + delta
	}
	if target < 0 || !sess.planLoaded() || target >= len(sess.plan.LearningSteps) {
		sess.lastNotice = boundaryErr.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), boundaryErr
	}
	sess.mu.Unlock()

	return s.SelectStep(ctx, id, target)
}

// UpdateCode 用户击键同步代码缓冲，只改缓冲不触发任何远程调用
func (s *SessionService) UpdateCode(id, code string) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.codeBuffer = code
	sess.mu.Unlock()

	return s.snapshot(sess), nil
}

// RunCode 迁移⑤：模拟运行，纯副作用，绝不改动练习或反馈。
// 返回的"输出"只是对 print 语句的玩具回显，不是真实执行。
func (s *SessionService) RunCode(id, code string) (string, error) {
	sess, err := s.get(id)
	if err != nil {
		return "", err
	}

	logger.Log.Info("代码模拟运行", zap.String("session", sess.ID), zap.Int("bytes", len(code)))
	return simulateRun(code), nil
}

// ImproveCode 迁移⑥：获取改进建议。
// 反馈在调用前乐观清空，所以失败后不会残留旧反馈。
func (s *SessionService) ImproveCode(ctx context.Context, id, code string) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.exercise == nil {
		sess.lastNotice = util.ErrNoExercise.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), util.ErrNoExercise
	}
	question := sess.exercise.Question
	seq := sess.fetchSeq
	sess.feedback = nil
	sess.loading.Improve = true
	sess.lastNotice = ""
	sess.mu.Unlock()

	improvements, err := s.gateway.ImproveCode(ctx, ImproveCodeInput{
		Code:     code,
		Language: "python",
		Question: question,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.loading.Improve = false
	if seq != sess.fetchSeq {
		return s.snapshotLocked(sess), nil
	}

	if err != nil {
		sess.lastNotice = fmt.Sprintf("获取改进建议失败: %v", err)
		return s.snapshotLocked(sess), err
	}

	sess.feedback = &model.Feedback{Suggestions: improvements}
	return s.snapshotLocked(sess), nil
}

// SubmitCode 迁移⑦：提交代码。
// 改进建议照常获取，正确性是去空白后与标准答案逐字比较的纯语法判定。
func (s *SessionService) SubmitCode(ctx context.Context, id, code string) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.exercise == nil {
		sess.lastNotice = util.ErrNoExercise.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), util.ErrNoExercise
	}
	question := sess.exercise.Question
	solution := sess.exercise.Solution
	seq := sess.fetchSeq
	sess.feedback = nil
	sess.loading.Submit = true
	sess.lastNotice = ""
	sess.mu.Unlock()

	improvements, err := s.gateway.ImproveCode(ctx, ImproveCodeInput{
		Code:     code,
		Language: "python",
		Question: question,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.loading.Submit = false
	if seq != sess.fetchSeq {
		return s.snapshotLocked(sess), nil
	}

	if err != nil {
		sess.lastNotice = fmt.Sprintf("提交失败: %v", err)
		return s.snapshotLocked(sess), err
	}

	isCorrect := util.NormalizeCode(code) == util.NormalizeCode(solution)
	message := "Your solution might have some issues or could be improved. See suggestions."
	if isCorrect {
		message = "Your solution seems correct!"
	}

	sess.feedback = &model.Feedback{
		Message:     message,
		Suggestions: improvements,
		IsCorrect:   &isCorrect,
	}
	return s.snapshotLocked(sess), nil
}

// ExplainConcept 迁移⑧：讲解当前练习的概念
func (s *SessionService) ExplainConcept(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.exercise == nil {
		sess.lastNotice = util.ErrNoExercise.Error()
		sess.mu.Unlock()
		return s.snapshot(sess), util.ErrNoExercise
	}
	input := ExplainConceptInput{
		Concept:       sess.exercise.Topic,
		Documentation: sess.exercise.Documentation,
		ExampleCode:   sess.exercise.ExampleCode,
	}
	seq := sess.fetchSeq
	sess.explanation = nil
	sess.loading.Explanation = true
	sess.lastNotice = ""
	sess.mu.Unlock()

	explanation, err := s.gateway.ExplainConcept(ctx, input)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.loading.Explanation = false
	if seq != sess.fetchSeq {
		return s.snapshotLocked(sess), nil
	}

	if err != nil {
		sess.lastNotice = fmt.Sprintf("概念讲解失败: %v", err)
		return s.snapshotLocked(sess), err
	}

	sess.explanation = explanation
	return s.snapshotLocked(sess), nil
}

// ToggleExpand 迁移⑨：面板展开/收起，幂等切换，纯 UI 状态
func (s *SessionService) ToggleExpand(id string, panel model.ExpandedPanel) (*model.SessionSnapshot, error) {
	if !panel.Valid() {
		return nil, util.ErrInvalidPanel
	}

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.expanded == panel {
		sess.expanded = model.PanelNone
	} else {
		sess.expanded = panel
	}
	sess.mu.Unlock()

	return s.snapshot(sess), nil
}

// CleanupExpired 清理闲置超过 TTL 的会话，由后台任务周期调用
func (s *SessionService) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := time.Since(sess.lastActive)
		sess.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Log.Info("清理过期会话", zap.Int("removed", removed))
	}
	return removed
}

// SessionCount 当前活跃会话数
func (s *SessionService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// fetchDefaultExercise NoPlan 状态下的默认练习加载，同样受序号保护
func (s *SessionService) fetchDefaultExercise(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	sess.fetchSeq++
	seq := sess.fetchSeq
	mode := sess.mode
	sess.exercise = nil
	sess.codeBuffer = ""
	sess.feedback = nil
	sess.explanation = nil
	sess.loading.Exercise = true
	sess.mu.Unlock()

	exercise, err := s.gateway.GenerateExercise(ctx, GenerateExerciseInput{
		Topic:         util.DefaultTopic,
		Documentation: util.DefaultDocumentation,
		ExampleCode:   util.DefaultExampleCode,
		LearningMode:  mode,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.loading.Exercise = false
	if seq != sess.fetchSeq {
		return nil
	}

	if err != nil {
		sess.lastNotice = fmt.Sprintf("练习生成失败: %v", err)
		return err
	}

	sess.exercise = exercise
	if exercise.CodeSnippet != "" {
		sess.codeBuffer = exercise.CodeSnippet
	} else if mode == model.ModeChallenge {
		sess.codeBuffer = fmt.Sprintf("# Start coding for: %s\n", util.DefaultTopic)
	}
	return nil
}

func (sess *Session) planLoaded() bool {
	return sess.plan != nil
}

// challengeScaffold 挑战模式下代码缓冲的脚手架注释
func challengeScaffold(topic, documentation, exampleCode string) string {
	return fmt.Sprintf("# Start coding for: %s\n# Documentation: %s\n# Example: %s\n",
		topic,
		util.TruncatePreview(documentation, 100),
		util.TruncatePreview(exampleCode, 100),
	)
}

func (s *SessionService) snapshot(sess *Session) *model.SessionSnapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshotLocked(sess)
}

// snapshotLocked 调用方必须已持有 sess.mu
func (s *SessionService) snapshotLocked(sess *Session) *model.SessionSnapshot {
	snap := &model.SessionSnapshot{
		ID:         sess.ID,
		CodeBuffer: sess.codeBuffer,
		Mode:       sess.mode,
		Expanded:   sess.expanded,
		Loading:    sess.loading,
		LastNotice: sess.lastNotice,
	}
	if sess.plan != nil {
		planCopy := *sess.plan
		snap.Plan = &planCopy
	}
	if sess.stepIndex != nil {
		idx := *sess.stepIndex
		snap.StepIndex = &idx
	}
	if sess.exercise != nil {
		exCopy := *sess.exercise
		snap.Exercise = &exCopy
	}
	if sess.feedback != nil {
		fbCopy := *sess.feedback
		snap.Feedback = &fbCopy
	}
	if sess.explanation != nil {
		expCopy := *sess.explanation
		snap.Explanation = &expCopy
	}
	return snap
}
