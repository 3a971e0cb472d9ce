package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/repository"
	"github.com/codedocgen/backend/internal/service"
)

// RepoCredentials 仓库地址及可选的认证信息
type RepoCredentials struct {
	RepoURL  string `json:"repo_url" binding:"required"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RepositoryHandler struct {
	service *service.RepositoryService
}

func NewRepositoryHandler(service *service.RepositoryService) *RepositoryHandler {
	return &RepositoryHandler{service: service}
}

// SubmitRepo 登记仓库地址，仅做校验与确认，不触发克隆
func (h *RepositoryHandler) SubmitRepo(c *gin.Context) {
	var req RepoCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	// 日志中只记录地址与用户名，绝不记录密码
	klog.V(6).Infof("收到仓库提交: url=%s, username=%s", req.RepoURL, req.Username)

	if _, err := h.service.Register(req.RepoURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid repository URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Repository details received successfully",
		"repo_url": req.RepoURL,
	})
}

// Clone 同步克隆仓库
func (h *RepositoryHandler) Clone(c *gin.Context) {
	var req RepoCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	klog.V(6).Infof("开始克隆仓库: url=%s", req.RepoURL)

	result, err := h.service.Clone(c.Request.Context(), req.RepoURL, req.Username, req.Password)
	if err != nil {
		var cloneErr *service.CloneError
		switch {
		case errors.As(err, &cloneErr):
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Error cloning repository: %s", cloneErr.Message)})
		case errors.Is(err, service.ErrCloneInProgress):
			c.JSON(http.StatusConflict, gin.H{"detail": "Repository clone already in progress"})
		default:
			klog.Errorf("克隆仓库失败: url=%s, error=%v", req.RepoURL, err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("An unexpected error occurred: %v", err)})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// List 获取已登记的仓库列表
func (h *RepositoryHandler) List(c *gin.Context) {
	repos, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, repos)
}

// Get 获取单个仓库记录
func (h *RepositoryHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	repo, err := h.service.Get(uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "repository not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, repo)
}

// Delete 删除仓库记录及本地克隆
func (h *RepositoryHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "repository not found"})
		case errors.Is(err, service.ErrCannotDeleteRepoInvalidStatus):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "repository deleted"})
}
