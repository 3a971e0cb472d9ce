package service

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/analyzer"
	"github.com/codedocgen/backend/internal/confluence"
	"github.com/codedocgen/backend/internal/docgen/diagram"
	"github.com/codedocgen/backend/internal/docgen/feature"
	"github.com/codedocgen/backend/internal/docgen/markdown"
	"github.com/codedocgen/backend/internal/docgen/openapi"
	"github.com/codedocgen/backend/internal/eventbus"
)

// DiagramKindEntity 及同组常量对应对外暴露的六类图表
const (
	DiagramKindEntity                   = "entity"
	DiagramKindUseCase                  = "use-case"
	DiagramKindComprehensiveUseCase     = "comprehensive-use-case"
	DiagramKindInteraction              = "interaction"
	DiagramKindComprehensiveInteraction = "comprehensive-interaction"
	DiagramKindClass                    = "class"
)

// DocumentationService 将分析结果转换为各类文档产物
type DocumentationService struct {
	cfg       *config.Config
	analysis  *AnalysisService
	diagrams  *diagram.Generator
	exportBus *eventbus.ExportEventBus
}

func NewDocumentationService(cfg *config.Config, analysis *AnalysisService, diagrams *diagram.Generator, exportBus *eventbus.ExportEventBus) *DocumentationService {
	return &DocumentationService{
		cfg:       cfg,
		analysis:  analysis,
		diagrams:  diagrams,
		exportBus: exportBus,
	}
}

// Swagger 基于端点分析生成 OpenAPI 文档
func (s *DocumentationService) Swagger(ctx context.Context, repoName string) (*openapi.Document, int, error) {
	data, err := s.analysis.Endpoints(ctx, repoName)
	if err != nil {
		return nil, 0, err
	}
	if len(data.Endpoints) == 0 {
		return openapi.Empty(repoName), 0, nil
	}
	return openapi.Build(data.Endpoints, repoName), len(data.Endpoints), nil
}

// Markdown 生成 Markdown 格式的接口文档及下载文件名
func (s *DocumentationService) Markdown(ctx context.Context, repoName string) (string, string, error) {
	data, err := s.analysis.Endpoints(ctx, repoName)
	if err != nil {
		return "", "", err
	}

	filename := markdown.AttachmentName(repoName)
	content := markdown.Fallback(repoName)
	if len(data.Endpoints) > 0 {
		content = markdown.Generate(data.Endpoints, repoName)
	}

	s.publishExportEvent(ctx, eventbus.ExportEvent{
		Type:     eventbus.ExportEventCreated,
		RepoName: repoName,
		Format:   "markdown",
		Filename: filename,
	})
	return content, filename, nil
}

// Features 基于端点生成 Gherkin 特性文件
func (s *DocumentationService) Features(ctx context.Context, repoName string) ([]feature.File, error) {
	data, err := s.analysis.Endpoints(ctx, repoName)
	if err != nil {
		return nil, err
	}
	return feature.Generate(data.Endpoints), nil
}

// FeaturesZip 生成打包后的特性文件及下载文件名
func (s *DocumentationService) FeaturesZip(ctx context.Context, repoName string) ([]byte, string, error) {
	files, err := s.Features(ctx, repoName)
	if err != nil {
		return nil, "", err
	}
	payload, filename, err := feature.Zip(files, repoName)
	if err != nil {
		return nil, "", err
	}

	s.publishExportEvent(ctx, eventbus.ExportEvent{
		Type:     eventbus.ExportEventCreated,
		RepoName: repoName,
		Format:   "features_zip",
		Filename: filename,
	})
	return payload, filename, nil
}

// Diagram 生成指定类型的 PlantUML 图表
func (s *DocumentationService) Diagram(ctx context.Context, repoName, kind, entityStyle string) (diagram.Result, error) {
	switch kind {
	case DiagramKindEntity:
		entities, err := s.analysis.Entities(ctx, repoName)
		if err != nil {
			return diagram.Result{}, err
		}
		return s.diagrams.EntityDiagram(entities, entityStyle), nil

	case DiagramKindUseCase:
		files, err := s.Features(ctx, repoName)
		if err != nil {
			return diagram.Result{}, err
		}
		return s.diagrams.UseCase(feature.Summarize(files)), nil

	case DiagramKindComprehensiveUseCase:
		data, entities, err := s.architectureAndEntities(ctx, repoName)
		if err != nil {
			return diagram.Result{}, err
		}
		return s.diagrams.ComprehensiveUseCase(data, entities), nil

	case DiagramKindInteraction:
		data, err := s.analysis.Endpoints(ctx, repoName)
		if err != nil {
			return diagram.Result{}, err
		}
		return s.diagrams.Interaction(data.Endpoints), nil

	case DiagramKindComprehensiveInteraction:
		data, entities, err := s.architectureAndEntities(ctx, repoName)
		if err != nil {
			return diagram.Result{}, err
		}
		return s.diagrams.ComprehensiveInteraction(data, entities), nil

	case DiagramKindClass:
		data, entities, err := s.architectureAndEntities(ctx, repoName)
		if err != nil {
			return diagram.Result{}, err
		}
		return s.diagrams.ClassDiagram(data, entities), nil

	default:
		return diagram.Result{
			Status:  "error",
			Message: fmt.Sprintf("Unsupported diagram type: %s", kind),
		}, nil
	}
}

func (s *DocumentationService) architectureAndEntities(ctx context.Context, repoName string) (*analyzer.ArchitectureData, *analyzer.EntityResult, error) {
	data, err := s.analysis.Endpoints(ctx, repoName)
	if err != nil {
		return nil, nil, err
	}
	entities, err := s.analysis.Entities(ctx, repoName)
	if err != nil {
		return nil, nil, err
	}
	return data, entities, nil
}

// ErrMissingConfluenceCredentials 请求和服务端配置中都没有可用的 Confluence 凭证
var ErrMissingConfluenceCredentials = errors.New("confluence credentials are required, provide them in the request or configure server defaults")

// ConfluencePublishRequest 发布到 Confluence 的请求参数。
// 连接信息缺省时回退到服务端配置。
type ConfluencePublishRequest struct {
	RepoName         string   `json:"repo_name" binding:"required"`
	PageTitle        string   `json:"page_title" binding:"required"`
	SpaceKey         string   `json:"space_key"`
	ConfluenceURL    string   `json:"confluence_url"`
	Username         string   `json:"username"`
	APIToken         string   `json:"api_token"`
	SelectedSections []string `json:"selected_sections" binding:"required"`
	ParentPage       string   `json:"parent_page"`
}

func (s *DocumentationService) applyConfluenceDefaults(req *ConfluencePublishRequest) error {
	defaults := s.cfg.Confluence
	if req.ConfluenceURL == "" {
		req.ConfluenceURL = defaults.BaseURL
	}
	if req.Username == "" {
		req.Username = defaults.Username
	}
	if req.APIToken == "" {
		req.APIToken = defaults.APIToken
	}
	if req.SpaceKey == "" {
		req.SpaceKey = defaults.SpaceKey
	}
	if req.ConfluenceURL == "" || req.Username == "" || req.APIToken == "" || req.SpaceKey == "" {
		return ErrMissingConfluenceCredentials
	}
	return nil
}

// PublishConfluence 将选定的文档内容发布到 Confluence 页面，返回页面地址
func (s *DocumentationService) PublishConfluence(ctx context.Context, req ConfluencePublishRequest) (string, error) {
	if err := confluence.ValidateSections(req.SelectedSections); err != nil {
		return "", err
	}
	if err := s.applyConfluenceDefaults(&req); err != nil {
		return "", err
	}

	// 仓库必须已克隆到本地
	if _, err := s.analysis.ResolveRepoDir(req.RepoName); err != nil {
		return "", err
	}

	inputs, err := s.collectPayloadInputs(ctx, req.RepoName, req.SelectedSections)
	if err != nil {
		return "", err
	}

	sections, err := confluence.NewPayloadBuilder(req.RepoName).Build(req.SelectedSections, inputs)
	if err != nil {
		return "", err
	}
	content := confluence.NewConverter().PageWithTOC(req.PageTitle, sections)

	client := confluence.NewClient(req.ConfluenceURL, req.Username, req.APIToken)
	_, pageURL, err := client.PublishContent(ctx, req.SpaceKey, req.PageTitle, content, req.ParentPage)
	if err != nil {
		return "", err
	}

	s.publishExportEvent(ctx, eventbus.ExportEvent{
		Type:     eventbus.ExportEventPublished,
		RepoName: req.RepoName,
		Format:   "confluence",
		Filename: req.PageTitle,
		Target:   pageURL,
	})

	klog.V(6).Infof("Confluence 发布成功: name=%s, page=%s", req.RepoName, req.PageTitle)
	return pageURL, nil
}

func (s *DocumentationService) collectPayloadInputs(ctx context.Context, repoName string, selected []string) (confluence.PayloadInputs, error) {
	var inputs confluence.PayloadInputs

	wants := make(map[string]bool, len(selected))
	for _, section := range selected {
		wants[section] = true
	}

	if wants[confluence.SectionAPIDocs] || wants[confluence.SectionDiagrams] || wants[confluence.SectionFlows] {
		data, err := s.analysis.Endpoints(ctx, repoName)
		if err != nil {
			return inputs, err
		}
		inputs.Architecture = data
	}

	if wants[confluence.SectionFeatures] {
		files, err := s.Features(ctx, repoName)
		if err != nil {
			return inputs, err
		}
		inputs.Features = feature.Summarize(files)
	}

	if wants[confluence.SectionDiagrams] {
		entities, err := s.analysis.Entities(ctx, repoName)
		if err != nil {
			return inputs, err
		}
		inputs.Diagrams = map[string]diagram.Result{
			DiagramKindClass:                    s.diagrams.ClassDiagram(inputs.Architecture, entities),
			DiagramKindComprehensiveUseCase:     s.diagrams.ComprehensiveUseCase(inputs.Architecture, entities),
			DiagramKindComprehensiveInteraction: s.diagrams.ComprehensiveInteraction(inputs.Architecture, entities),
		}
	}

	if wants[confluence.SectionFlows] {
		flows, err := s.analysis.Flows(ctx, repoName)
		if err != nil {
			return inputs, err
		}
		inputs.Flows = flows
	}

	return inputs, nil
}

func (s *DocumentationService) publishExportEvent(ctx context.Context, event eventbus.ExportEvent) {
	if s.exportBus == nil {
		return
	}
	if err := s.exportBus.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("发布导出事件失败: type=%s, name=%s, format=%s, error=%v", event.Type, event.RepoName, event.Format, err)
	}
}
