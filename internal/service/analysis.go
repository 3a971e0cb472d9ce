package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/analyzer"
	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/model"
	"github.com/codedocgen/backend/internal/pkg/git"
	"github.com/codedocgen/backend/internal/repository"
	"github.com/codedocgen/backend/internal/service/statemachine"
)

var (
	// ErrRepoDirNotFound 本地找不到对应的仓库目录
	ErrRepoDirNotFound = errors.New("repository directory not found")
	// ErrRepoNotReady 仓库状态不允许执行分析
	ErrRepoNotReady = errors.New("repository is not ready for analysis")
)

// AnalysisService 负责执行代码分析并缓存结果。
// 缓存按仓库名加分析类型存储，目录修改时间变化后自动失效。
type AnalysisService struct {
	cfg          *config.Config
	analysisRepo repository.AnalysisRepository
	repoRepo     repository.RepoRepository
	bus          *eventbus.AnalysisEventBus
}

func NewAnalysisService(cfg *config.Config, analysisRepo repository.AnalysisRepository, repoRepo repository.RepoRepository, bus *eventbus.AnalysisEventBus) *AnalysisService {
	return &AnalysisService{
		cfg:          cfg,
		analysisRepo: analysisRepo,
		repoRepo:     repoRepo,
		bus:          bus,
	}
}

// ResolveRepoDir 解析仓库名对应的本地目录
func (s *AnalysisService) ResolveRepoDir(repoName string) (string, error) {
	dir, err := git.FindRepoDir(s.cfg.Data.RepoDir, repoName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRepoDirNotFound, repoName)
		}
		return "", err
	}
	return dir, nil
}

// Project 分析项目的构建系统与框架
func (s *AnalysisService) Project(ctx context.Context, repoName string) (*analyzer.ProjectInfo, error) {
	return cachedAnalysis(ctx, s, repoName, model.AnalysisKindProject, func(repoPath string) (*analyzer.ProjectInfo, error) {
		return analyzer.NewProjectAnalyzer(s.cfg.Analyzer.MaxProbeFiles).Analyze(repoPath), nil
	})
}

// Endpoints 解析控制器端点及服务、数据访问层结构
func (s *AnalysisService) Endpoints(ctx context.Context, repoName string) (*analyzer.ArchitectureData, error) {
	return cachedAnalysis(ctx, s, repoName, model.AnalysisKindEndpoints, func(repoPath string) (*analyzer.ArchitectureData, error) {
		return analyzer.NewEndpointParser(s.cfg.Analyzer.Workers).Parse(repoPath), nil
	})
}

// Entities 解析持久化实体
func (s *AnalysisService) Entities(ctx context.Context, repoName string) (*analyzer.EntityResult, error) {
	return cachedAnalysis(ctx, s, repoName, model.AnalysisKindEntities, func(repoPath string) (*analyzer.EntityResult, error) {
		return analyzer.NewEntityParser(s.cfg.Analyzer.Workers).Parse(repoPath), nil
	})
}

// Flows 追踪每个端点的调用链
func (s *AnalysisService) Flows(ctx context.Context, repoName string) ([]analyzer.EndpointFlow, error) {
	return cachedAnalysis(ctx, s, repoName, model.AnalysisKindFlows, func(repoPath string) ([]analyzer.EndpointFlow, error) {
		data, err := s.Endpoints(ctx, repoName)
		if err != nil {
			return nil, err
		}
		return analyzer.NewFlowAnalyzer(s.cfg.Analyzer.Workers).Analyze(repoPath, data.Endpoints), nil
	})
}

// Schema 汇总实体与数据库表的映射
func (s *AnalysisService) Schema(ctx context.Context, repoName string) (*analyzer.SchemaOverview, error) {
	return cachedAnalysis(ctx, s, repoName, model.AnalysisKindSchema, func(repoPath string) (*analyzer.SchemaOverview, error) {
		entities, err := s.Entities(ctx, repoName)
		if err != nil {
			return nil, err
		}
		data, err := s.Endpoints(ctx, repoName)
		if err != nil {
			return nil, err
		}
		return analyzer.NewSchemaMapper().Map(entities, data.Endpoints), nil
	})
}

// Invalidate 删除仓库的全部缓存分析结果
func (s *AnalysisService) Invalidate(repoName string) error {
	return s.analysisRepo.DeleteByRepoName(repoName)
}

// cachedAnalysis 按仓库目录修改时间做缓存命中判断。
// 命中则反序列化缓存结果，未命中则重新分析并落库。
func cachedAnalysis[T any](ctx context.Context, s *AnalysisService, repoName, kind string, compute func(repoPath string) (T, error)) (T, error) {
	var zero T

	repoPath, err := s.ResolveRepoDir(repoName)
	if err != nil {
		return zero, err
	}

	// 有登记记录时只允许分析克隆完成的仓库
	if repo, err := s.repoRepo.GetByName(repoName); err == nil {
		if !statemachine.CanAnalyze(statemachine.RepositoryStatus(repo.Status)) {
			return zero, fmt.Errorf("%w: status=%s", ErrRepoNotReady, repo.Status)
		}
	}

	sourceMtime := dirMtime(repoPath)

	if record, err := s.analysisRepo.Get(repoName, kind); err == nil && record.SourceMtime == sourceMtime {
		var result T
		if err := json.Unmarshal([]byte(record.Payload), &result); err == nil {
			klog.V(6).Infof("分析缓存命中: name=%s, kind=%s", repoName, kind)
			return result, nil
		}
		klog.Warningf("分析缓存反序列化失败，重新分析: name=%s, kind=%s", repoName, kind)
	}

	result, err := compute(repoPath)
	if err != nil {
		s.publishAnalysisEvent(ctx, eventbus.AnalysisEvent{
			Type:     eventbus.AnalysisEventFailed,
			RepoName: repoName,
			Kind:     kind,
			Reason:   err.Error(),
		})
		return zero, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		klog.Warningf("分析结果序列化失败，跳过缓存: name=%s, kind=%s, error=%v", repoName, kind, err)
		return result, nil
	}

	record := &model.AnalysisRecord{
		RepoName:    repoName,
		Kind:        kind,
		Payload:     string(payload),
		SourceMtime: sourceMtime,
	}
	if repo, err := s.repoRepo.GetByName(repoName); err == nil {
		record.RepositoryID = repo.ID
	}
	if err := s.analysisRepo.Upsert(record); err != nil {
		klog.Warningf("分析结果落库失败: name=%s, kind=%s, error=%v", repoName, kind, err)
	}

	s.publishAnalysisEvent(ctx, eventbus.AnalysisEvent{
		Type:     eventbus.AnalysisEventCompleted,
		RepoName: repoName,
		Kind:     kind,
	})
	return result, nil
}

func (s *AnalysisService) publishAnalysisEvent(ctx context.Context, event eventbus.AnalysisEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("发布分析事件失败: type=%s, name=%s, kind=%s, error=%v", event.Type, event.RepoName, event.Kind, err)
	}
}

func dirMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}
