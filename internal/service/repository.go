package service

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/model"
	"github.com/codedocgen/backend/internal/pkg/git"
	"github.com/codedocgen/backend/internal/repository"
	"github.com/codedocgen/backend/internal/service/statemachine"
)

type RepositoryService struct {
	cfg      *config.Config
	repoRepo repository.RepoRepository

	// 状态机
	repoStateMachine *statemachine.RepositoryStateMachine

	// 仓库生命周期事件
	bus *eventbus.RepositoryEventBus
}

// NewRepositoryService 创建仓库服务实例。
func NewRepositoryService(cfg *config.Config, repoRepo repository.RepoRepository, bus *eventbus.RepositoryEventBus) *RepositoryService {
	return &RepositoryService{
		cfg:              cfg,
		repoRepo:         repoRepo,
		repoStateMachine: statemachine.NewRepositoryStateMachine(),
		bus:              bus,
	}
}

var (
	ErrInvalidRepositoryURL          = errors.New("invalid repository url")
	ErrCloneInProgress               = errors.New("repository clone already in progress")
	ErrCannotDeleteRepoInvalidStatus = errors.New("无法删除仓库：正在克隆中的仓库不能删除")
)

// Register 校验提交的仓库地址并返回解析出的仓库名。
// 仅登记地址，不触发克隆。
func (s *RepositoryService) Register(repoURL string) (string, error) {
	if !git.IsValidGitURL(repoURL) {
		klog.V(6).Infof("仓库URL校验失败: url=%s", repoURL)
		return "", ErrInvalidRepositoryURL
	}
	return git.ParseRepoName(repoURL), nil
}

// List 获取所有仓库
func (s *RepositoryService) List() ([]model.Repository, error) {
	return s.repoRepo.List()
}

// Get 获取单个仓库
func (s *RepositoryService) Get(id uint) (*model.Repository, error) {
	return s.repoRepo.Get(id)
}

// GetByName 按仓库名获取最近更新的记录
func (s *RepositoryService) GetByName(name string) (*model.Repository, error) {
	return s.repoRepo.GetByName(name)
}

// Delete 删除仓库记录及本地克隆目录
func (s *RepositoryService) Delete(ctx context.Context, id uint) error {
	repo, err := s.repoRepo.Get(id)
	if err != nil {
		return fmt.Errorf("获取仓库失败: %w", err)
	}

	// 校验仓库状态：正在克隆中的仓库不能删除
	if statemachine.RepositoryStatus(repo.Status) == statemachine.RepoStatusCloning {
		klog.V(6).Infof("拒绝删除仓库：状态不允许删除: repoID=%d, status=%s", id, repo.Status)
		return ErrCannotDeleteRepoInvalidStatus
	}

	if repo.LocalPath != "" {
		klog.V(6).Infof("删除本地仓库: repoID=%d, localPath=%s", id, repo.LocalPath)
		if err := git.RemoveRepo(repo.LocalPath); err != nil {
			klog.Warningf("删除本地仓库失败: repoID=%d, error=%v", id, err)
		}
	}

	if err := s.repoRepo.Delete(id); err != nil {
		return fmt.Errorf("删除仓库失败: %w", err)
	}

	if s.bus != nil {
		event := eventbus.RepositoryEvent{
			Type:         eventbus.RepositoryEventDeleted,
			RepositoryID: id,
			RepoName:     repo.Name,
			LocalPath:    repo.LocalPath,
		}
		if err := s.bus.Publish(ctx, eventbus.RepositoryEventDeleted, event); err != nil {
			klog.Warningf("发布仓库删除事件失败: repoID=%d, error=%v", id, err)
		}
	}

	klog.V(6).Infof("仓库删除成功: repoID=%d", id)
	return nil
}
