package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// RepositoryStatus 定义仓库的所有可能状态
type RepositoryStatus string

const (
	RepoStatusPending RepositoryStatus = "pending" // 刚登记但还未克隆
	RepoStatusCloning RepositoryStatus = "cloning" // 正在拉取代码
	RepoStatusReady   RepositoryStatus = "ready"   // 克隆成功，可执行分析
	RepoStatusError   RepositoryStatus = "error"   // 克隆失败
)

// RepositoryStateMachine 仓库状态机
type RepositoryStateMachine struct {
	// 定义所有合法的状态迁移
	allowedTransitions map[RepositoryTransition]bool
}

// RepositoryTransition 定义仓库状态迁移
type RepositoryTransition struct {
	From RepositoryStatus
	To   RepositoryStatus
}

// NewRepositoryStateMachine 创建新的仓库状态机
func NewRepositoryStateMachine() *RepositoryStateMachine {
	sm := &RepositoryStateMachine{
		allowedTransitions: make(map[RepositoryTransition]bool),
	}

	// 定义合法的状态迁移路径
	// pending -> cloning -> ready/error
	transitions := []RepositoryTransition{
		{RepoStatusPending, RepoStatusCloning},
		{RepoStatusReady, RepoStatusCloning}, // 重新克隆
		{RepoStatusError, RepoStatusCloning}, // 失败后重试
		{RepoStatusCloning, RepoStatusReady},
		{RepoStatusCloning, RepoStatusError},
		{RepoStatusError, RepoStatusReady}, // 用户手动重置
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *RepositoryStateMachine) CanTransition(from, to RepositoryStatus) bool {
	if from == to {
		return false // 不允许状态不变
	}
	return sm.allowedTransitions[RepositoryTransition{From: from, To: to}]
}

// ValidateTransition 验证状态迁移并返回错误
func (sm *RepositoryStateMachine) ValidateTransition(from, to RepositoryStatus) error {
	if !sm.CanTransition(from, to) {
		return &InvalidRepositoryStateTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition 执行状态迁移（带日志）
func (sm *RepositoryStateMachine) Transition(from, to RepositoryStatus, repoID uint) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("仓库状态迁移被拒绝: repoID=%d, %s -> %s, error=%v",
			repoID, from, to, err)
		return err
	}

	klog.V(6).Infof("仓库状态迁移成功: repoID=%d, %s -> %s", repoID, from, to)
	return nil
}

// InvalidRepositoryStateTransitionError 无效的仓库状态迁移错误
type InvalidRepositoryStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidRepositoryStateTransitionError) Error() string {
	return fmt.Sprintf("invalid repository state transition: %s -> %s", e.From, e.To)
}

// CanAnalyze 判断仓库是否可以执行分析
func CanAnalyze(status RepositoryStatus) bool {
	return status == RepoStatusReady
}
