package subscriber

import (
	"context"
	"errors"

	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/model"
	"github.com/codedocgen/backend/internal/repository"
)

// ExportEventSubscriber 将每次文档导出落库为导出记录
type ExportEventSubscriber struct {
	exportRepo repository.ExportRepository
	repoRepo   repository.RepoRepository
}

func NewExportEventSubscriber(exportRepo repository.ExportRepository, repoRepo repository.RepoRepository) *ExportEventSubscriber {
	return &ExportEventSubscriber{exportRepo: exportRepo, repoRepo: repoRepo}
}

func (s *ExportEventSubscriber) Register(bus *eventbus.ExportEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.ExportEventCreated, s.handleExport)
	bus.Subscribe(eventbus.ExportEventPublished, s.handleExport)
}

func (s *ExportEventSubscriber) handleExport(ctx context.Context, event eventbus.ExportEvent) error {
	record := &model.ExportRecord{
		RepositoryID: event.RepositoryID,
		RepoName:     event.RepoName,
		Format:       event.Format,
		Filename:     event.Filename,
		Target:       event.Target,
	}

	if record.RepositoryID == 0 {
		repo, err := s.repoRepo.GetByName(event.RepoName)
		if err == nil {
			record.RepositoryID = repo.ID
		} else if !errors.Is(err, repository.ErrNotFound) {
			klog.Warningf("查询仓库记录失败: name=%s, error=%v", event.RepoName, err)
		}
	}

	if err := s.exportRepo.Create(record); err != nil {
		klog.Warningf("写入导出记录失败: name=%s, format=%s, error=%v", event.RepoName, event.Format, err)
		return err
	}
	klog.V(6).Infof("导出记录已写入: name=%s, format=%s, filename=%s", event.RepoName, event.Format, event.Filename)
	return nil
}
