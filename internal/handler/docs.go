package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/confluence"
	"github.com/codedocgen/backend/internal/docgen/feature"
	"github.com/codedocgen/backend/internal/service"
)

// DocsHandler 暴露文档产物相关接口
type DocsHandler struct {
	docs *service.DocumentationService
}

func NewDocsHandler(docs *service.DocumentationService) *DocsHandler {
	return &DocsHandler{docs: docs}
}

// Swagger 返回 OpenAPI 3.0 规范
func (h *DocsHandler) Swagger(c *gin.Context) {
	repoName := c.Param("repo_name")

	doc, _, err := h.docs.Swagger(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("生成 OpenAPI 规范失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	c.IndentedJSON(http.StatusOK, doc)
}

// ExportMarkdown 以附件形式返回 Markdown 接口文档
func (h *DocsHandler) ExportMarkdown(c *gin.Context) {
	repoName := c.Param("repo_name")

	content, filename, err := h.docs.Markdown(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("生成 Markdown 文档失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/markdown", []byte(content))
}

// Features 返回生成的特性文件及预览
func (h *DocsHandler) Features(c *gin.Context) {
	repoName := c.Param("repo_name")

	files, err := h.docs.Features(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("生成特性文件失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	if len(files) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":        "success",
			"message":       "No endpoints found for feature file generation",
			"feature_files": []any{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       fmt.Sprintf("Generated %d feature files", len(files)),
		"feature_files": feature.WithPreviews(files),
	})
}

// FeaturesDownload 以 ZIP 附件形式返回全部特性文件
func (h *DocsHandler) FeaturesDownload(c *gin.Context) {
	repoName := c.Param("repo_name")

	payload, filename, err := h.docs.FeaturesZip(c.Request.Context(), repoName)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("打包特性文件失败: name=%s, error=%v", repoName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/zip", payload)
}

// PublishConfluence 将选定的文档内容发布到 Confluence
func (h *DocsHandler) PublishConfluence(c *gin.Context) {
	var req service.ConfluencePublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	pageURL, err := h.docs.PublishConfluence(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, confluence.ErrInvalidSection):
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		case errors.Is(err, service.ErrMissingConfluenceCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		case errors.Is(err, service.ErrRepoDirNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Repository not found: %s", req.RepoName)})
		case errors.Is(err, confluence.ErrPublishFailed):
			c.JSON(http.StatusOK, gin.H{
				"status":  "error",
				"message": fmt.Sprintf("Failed to publish to Confluence: %v", err),
			})
		default:
			klog.Errorf("发布到 Confluence 失败: name=%s, error=%v", req.RepoName, err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Documentation published successfully to Confluence",
		"url":     pageURL,
	})
}
