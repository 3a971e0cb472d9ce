package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/analyzer"
	"github.com/codedocgen/backend/internal/rolefilter"
	"github.com/codedocgen/backend/internal/service"
)

// AnalysisHandler 暴露项目分析相关接口
type AnalysisHandler struct {
	analysis   *service.AnalysisService
	roleFilter *rolefilter.RoleFilter
}

func NewAnalysisHandler(analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysis:   analysis,
		roleFilter: rolefilter.NewRoleFilter(),
	}
}

// repoUnavailable 统一处理仓库不可用的响应：不存在返回 404，
// 状态不允许分析返回 409。命中则返回 true。
func repoUnavailable(c *gin.Context, err error) bool {
	if errors.Is(err, service.ErrRepoDirNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Repository not found: %s", c.Param("repo_name"))})
		return true
	}
	if errors.Is(err, service.ErrRepoNotReady) {
		c.JSON(http.StatusConflict, gin.H{"detail": fmt.Sprintf("Repository is not ready for analysis: %s", c.Param("repo_name"))})
		return true
	}
	return false
}

// Analyze 识别仓库的构建系统与项目类型
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	repoName := c.Param("repo_name")

	info, err := h.analysis.Project(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("分析仓库失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	if info.Status == "error" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": info.Message})
		return
	}

	info.Message = fmt.Sprintf("Identified as %s project using %s", info.ProjectType, info.BuildSystem)
	c.JSON(http.StatusOK, info)
}

// Endpoints 解析控制器端点，按角色过滤后返回简化列表
func (h *AnalysisHandler) Endpoints(c *gin.Context) {
	repoName := c.Param("repo_name")
	role := c.Query("role")

	// 先做项目类型分析，非 Spring Boot 仅提示
	info, err := h.analysis.Project(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("分析仓库失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}
	if info.Status == "error" {
		c.JSON(http.StatusOK, gin.H{
			"status":    "error",
			"message":   fmt.Sprintf("Failed to analyze repository: %s", info.Message),
			"endpoints": []any{},
		})
		return
	}
	if !info.IsSpringBoot {
		klog.Warningf("仓库未识别为 Spring Boot 项目，端点解析可能不可靠: name=%s", repoName)
	}

	data, err := h.analysis.Endpoints(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	endpoints := data.Endpoints
	if role != "" {
		klog.V(6).Infof("按角色过滤端点: name=%s, role=%s", repoName, role)
		views := h.roleFilter.FilterEndpoints(endpoints, role)
		endpoints = make([]analyzer.Endpoint, 0, len(views))
		for _, view := range views {
			endpoints = append(endpoints, view.Endpoint)
		}
	}

	simplified := make([]gin.H, 0, len(endpoints))
	for _, endpoint := range endpoints {
		simplified = append(simplified, gin.H{
			"controller":  endpoint.Controller,
			"method":      endpoint.Method,
			"http_method": endpoint.HTTPMethod,
			"path":        endpoint.Path,
		})
	}

	if len(simplified) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"message":   "No endpoints found in the repository",
			"endpoints": []any{},
		})
		return
	}

	message := fmt.Sprintf("Found %d endpoints in the repository", len(simplified))
	if role != "" {
		message += fmt.Sprintf(" (filtered for %s role)", role)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   message,
		"endpoints": simplified,
	})
}

// Entities 解析持久化实体，支持角色过滤
func (h *AnalysisHandler) Entities(c *gin.Context) {
	repoName := c.Param("repo_name")
	role := c.Query("role")

	result, err := h.analysis.Entities(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("解析实体失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	message := fmt.Sprintf("Found %d entities in the repository", result.Count)
	response := gin.H{
		"status":   "success",
		"entities": result.Entities,
		"count":    result.Count,
	}

	if role != "" {
		klog.V(6).Infof("按角色过滤实体: name=%s, role=%s", repoName, role)
		view := h.roleFilter.FilterEntities(result, role)
		message += fmt.Sprintf(" (filtered for %s role)", role)
		response["entities"] = view.Entities
		response["count"] = view.Count
		response["show_field_details"] = view.ShowFieldDetails
		response["show_annotations"] = view.ShowAnnotations
		response["show_relationships"] = view.ShowRelationships
	}

	response["message"] = message
	c.JSON(http.StatusOK, response)
}

// Flows 分析端点调用链，支持角色过滤
func (h *AnalysisHandler) Flows(c *gin.Context) {
	repoName := c.Param("repo_name")
	role := c.Query("role")

	info, err := h.analysis.Project(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("分析仓库失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}
	if info.Status == "error" {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("Failed to analyze repository: %s", info.Message),
			"flows":   []any{},
		})
		return
	}
	if !info.IsSpringBoot {
		klog.Warningf("仓库未识别为 Spring Boot 项目，调用链分析可能不可靠: name=%s", repoName)
	}

	flows, err := h.analysis.Flows(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	if len(flows) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "No endpoints found in the repository",
			"flows":   []any{},
		})
		return
	}

	if role != "" {
		klog.V(6).Infof("按角色过滤调用链: name=%s, role=%s", repoName, role)
		flows = h.roleFilter.FilterFlows(flows, role)
	}

	message := fmt.Sprintf("Successfully analyzed flows for %d endpoints", len(flows))
	if role != "" {
		message += fmt.Sprintf(" (filtered for %s role)", role)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": message,
		"flows":   flows,
	})
}

// SchemaOverview 输出实体到数据库表的映射概览，支持角色过滤
func (h *AnalysisHandler) SchemaOverview(c *gin.Context) {
	repoName := c.Param("repo_name")
	role := c.Query("role")

	entities, err := h.analysis.Entities(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("解析实体失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	if len(entities.Entities) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "No entities found in the repository",
			"tables":  gin.H{},
		})
		return
	}

	overview, err := h.analysis.Schema(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	var tables any = overview.Tables
	var entityData any = overview.Entities
	message := fmt.Sprintf("Generated schema overview with %d tables", len(overview.Tables))

	if role != "" {
		klog.V(6).Infof("按角色过滤库表概览: name=%s, role=%s", repoName, role)
		view := h.roleFilter.FilterSchema(overview, role)
		tables = view.Tables
		entityData = view.Entities
		message = fmt.Sprintf("Generated schema overview with %d tables (filtered for %s role)", len(view.Tables), role)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  message,
		"tables":   tables,
		"entities": entityData,
	})
}
