package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/service"
)

// DiagramHandler 暴露 PlantUML 图表生成接口
type DiagramHandler struct {
	docs *service.DocumentationService
}

func NewDiagramHandler(docs *service.DocumentationService) *DiagramHandler {
	return &DiagramHandler{docs: docs}
}

// Entities 实体关系图，diagram_type 支持 class 和 er
func (h *DiagramHandler) Entities(c *gin.Context) {
	diagramType := c.DefaultQuery("diagram_type", "class")
	h.generate(c, service.DiagramKindEntity, diagramType)
}

// UseCases 基于特性文件的用例图
func (h *DiagramHandler) UseCases(c *gin.Context) {
	h.generate(c, service.DiagramKindUseCase, "")
}

// ComprehensiveUseCases 分层用例图
func (h *DiagramHandler) ComprehensiveUseCases(c *gin.Context) {
	h.generate(c, service.DiagramKindComprehensiveUseCase, "")
}

// Interaction 端点时序图
func (h *DiagramHandler) Interaction(c *gin.Context) {
	h.generate(c, service.DiagramKindInteraction, "")
}

// ComprehensiveInteraction 按业务域分组的时序图
func (h *DiagramHandler) ComprehensiveInteraction(c *gin.Context) {
	h.generate(c, service.DiagramKindComprehensiveInteraction, "")
}

// Class 架构类图
func (h *DiagramHandler) Class(c *gin.Context) {
	h.generate(c, service.DiagramKindClass, "")
}

func (h *DiagramHandler) generate(c *gin.Context, kind, entityStyle string) {
	repoName := c.Param("repo_name")

	result, err := h.docs.Diagram(c.Request.Context(), repoName, kind, entityStyle)
	if err != nil {
		if repoUnavailable(c, err) {
			return
		}
		klog.Errorf("生成图表失败: name=%s, kind=%s, error=%v", repoName, kind, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An error occurred generating the diagram: %v", err)})
		return
	}

	c.JSON(http.StatusOK, result)
}
