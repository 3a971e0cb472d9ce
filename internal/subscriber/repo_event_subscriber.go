package subscriber

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/repository"
)

// RepositoryEventSubscriber 负责仓库生命周期事件的收尾工作：
// 克隆完成后清除过期的分析缓存，仓库删除后清理关联记录。
type RepositoryEventSubscriber struct {
	analysisRepo repository.AnalysisRepository
	exportRepo   repository.ExportRepository
}

func NewRepositoryEventSubscriber(analysisRepo repository.AnalysisRepository, exportRepo repository.ExportRepository) *RepositoryEventSubscriber {
	return &RepositoryEventSubscriber{analysisRepo: analysisRepo, exportRepo: exportRepo}
}

func (s *RepositoryEventSubscriber) Register(bus *eventbus.RepositoryEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.RepositoryEventCloned, s.handleRepoCloned)
	bus.Subscribe(eventbus.RepositoryEventDeleted, s.handleRepoDeleted)
}

// handleRepoCloned 新克隆意味着旧分析结果全部过期
func (s *RepositoryEventSubscriber) handleRepoCloned(ctx context.Context, event eventbus.RepositoryEvent) error {
	if err := s.analysisRepo.DeleteByRepoName(event.RepoName); err != nil {
		klog.Warningf("清理过期分析缓存失败: name=%s, error=%v", event.RepoName, err)
		return err
	}
	klog.V(6).Infof("已清理过期分析缓存: name=%s", event.RepoName)
	return nil
}

func (s *RepositoryEventSubscriber) handleRepoDeleted(ctx context.Context, event eventbus.RepositoryEvent) error {
	if err := s.analysisRepo.DeleteByRepoName(event.RepoName); err != nil {
		klog.Warningf("删除分析记录失败: name=%s, error=%v", event.RepoName, err)
		return err
	}
	if err := s.exportRepo.DeleteByRepoName(event.RepoName); err != nil {
		klog.Warningf("删除导出记录失败: name=%s, error=%v", event.RepoName, err)
		return err
	}
	klog.V(6).Infof("仓库关联记录已清理: name=%s", event.RepoName)
	return nil
}
