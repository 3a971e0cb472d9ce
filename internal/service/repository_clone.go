package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/model"
	"github.com/codedocgen/backend/internal/pkg/git"
	"github.com/codedocgen/backend/internal/repository"
	"github.com/codedocgen/backend/internal/service/statemachine"
)

// CloneResult 克隆成功后的响应内容
type CloneResult struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	RepoName string `json:"repo_name"`
	RepoPath string `json:"repo_path"`
}

// CloneError 携带可直接展示给用户的克隆失败信息，凭证不会出现在 Message 中
type CloneError struct {
	Message string
	Err     error
}

func (e *CloneError) Error() string {
	return e.Message
}

func (e *CloneError) Unwrap() error {
	return e.Err
}

// Clone 同步克隆仓库并登记数据库记录。
// 状态迁移: pending -> cloning -> ready/error
func (s *RepositoryService) Clone(ctx context.Context, repoURL, username, password string) (*CloneResult, error) {
	repoName := git.ParseRepoName(repoURL)
	klog.V(6).Infof("开始克隆仓库: name=%s, url=%s", repoName, repoURL)

	repo, err := s.prepareCloneRecord(repoName, repoURL)
	if err != nil {
		return nil, err
	}

	// 唯一后缀目录避免并发克隆冲突
	uniqueSuffix := uuid.NewString()[:8]
	targetDir := filepath.Join(s.cfg.Data.RepoDir, fmt.Sprintf("%s_%s", repoName, uniqueSuffix))

	cloneErr := git.Clone(git.CloneOptions{
		URL:       repoURL,
		Username:  username,
		Password:  password,
		TargetDir: targetDir,
	})
	if cloneErr != nil {
		message := friendlyCloneMessage(cloneErr)
		repo.Status = string(statemachine.RepoStatusError)
		repo.ErrorMsg = message
		if saveErr := s.repoRepo.Save(repo); saveErr != nil {
			klog.Errorf("更新仓库状态失败: repoID=%d, error=%v", repo.ID, saveErr)
		}
		s.publishRepoEvent(ctx, eventbus.RepositoryEvent{
			Type:         eventbus.RepositoryEventCloneFailed,
			RepositoryID: repo.ID,
			RepoName:     repoName,
			Reason:       message,
		})
		klog.Errorf("仓库克隆失败: name=%s, error=%v", repoName, cloneErr)
		return nil, &CloneError{Message: message, Err: cloneErr}
	}

	// 克隆成功后尝试晋升为无后缀的标准目录名
	repoPath := s.promoteRepoDir(targetDir, repoName)

	repo.LocalPath = repoPath
	repo.Status = string(statemachine.RepoStatusReady)
	repo.ErrorMsg = ""

	if sizeMB, err := git.DirSizeMB(repoPath); err != nil {
		klog.Errorf("计算仓库大小失败: name=%s, error=%v", repoName, err)
	} else {
		repo.SizeMB = sizeMB
	}

	if branch, commit, err := git.GetBranchAndCommit(repoPath); err != nil {
		klog.Errorf("获取仓库分支与提交信息失败: name=%s, error=%v", repoName, err)
	} else {
		repo.Branch = branch
		repo.Commit = commit
	}

	if err := s.repoRepo.Save(repo); err != nil {
		klog.Errorf("更新仓库记录失败: repoID=%d, error=%v", repo.ID, err)
		return nil, fmt.Errorf("更新仓库记录失败: %w", err)
	}

	s.publishRepoEvent(ctx, eventbus.RepositoryEvent{
		Type:         eventbus.RepositoryEventCloned,
		RepositoryID: repo.ID,
		RepoName:     repoName,
		LocalPath:    repoPath,
	})

	klog.V(6).Infof("仓库克隆成功: name=%s, localPath=%s", repoName, repoPath)
	return &CloneResult{
		Status:   "success",
		Message:  fmt.Sprintf("Cloned repository: %s", repoName),
		RepoName: repoName,
		RepoPath: repoPath,
	}, nil
}

// prepareCloneRecord 查找或创建仓库记录，并迁移到 cloning 状态
func (s *RepositoryService) prepareCloneRecord(repoName, repoURL string) (*model.Repository, error) {
	repo, err := s.repoRepo.GetByName(repoName)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("获取仓库记录失败: %w", err)
		}
		repo = &model.Repository{
			Name:   repoName,
			URL:    repoURL,
			Status: string(statemachine.RepoStatusPending),
		}
		if err := s.repoRepo.Create(repo); err != nil {
			return nil, fmt.Errorf("创建仓库记录失败: %w", err)
		}
		klog.V(6).Infof("仓库记录创建成功: repoID=%d, name=%s", repo.ID, repoName)
	}

	currentStatus := statemachine.RepositoryStatus(repo.Status)
	if currentStatus == statemachine.RepoStatusCloning {
		return nil, ErrCloneInProgress
	}
	if err := s.repoStateMachine.Transition(currentStatus, statemachine.RepoStatusCloning, repo.ID); err != nil {
		return nil, fmt.Errorf("仓库状态迁移失败: %w", err)
	}

	repo.URL = repoURL
	repo.Status = string(statemachine.RepoStatusCloning)
	if err := s.repoRepo.Save(repo); err != nil {
		return nil, fmt.Errorf("更新仓库状态失败: %w", err)
	}
	return repo, nil
}

// promoteRepoDir 尝试将带后缀的克隆目录重命名为标准目录名。
// 旧目录清理或重命名失败时继续使用带后缀的路径。
func (s *RepositoryService) promoteRepoDir(clonedPath, repoName string) string {
	standardPath := filepath.Join(s.cfg.Data.RepoDir, repoName)

	if _, err := os.Stat(standardPath); err == nil {
		klog.V(6).Infof("清理同名旧仓库目录: path=%s", standardPath)
		if err := git.RemoveRepo(standardPath); err != nil {
			klog.Warningf("清理旧仓库目录失败，继续使用带后缀目录: path=%s, error=%v", standardPath, err)
		}
	}

	if _, err := os.Stat(standardPath); err == nil {
		klog.Warningf("标准目录仍被占用，继续使用带后缀目录: path=%s", clonedPath)
		return clonedPath
	}

	if err := os.Rename(clonedPath, standardPath); err != nil {
		klog.Warningf("重命名仓库目录失败，继续使用带后缀目录: path=%s, error=%v", clonedPath, err)
		return clonedPath
	}
	return standardPath
}

func (s *RepositoryService) publishRepoEvent(ctx context.Context, event eventbus.RepositoryEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("发布仓库事件失败: type=%s, name=%s, error=%v", event.Type, event.RepoName, err)
	}
}

// friendlyCloneMessage 将克隆错误归类为对用户友好的提示，绝不包含凭证
func friendlyCloneMessage(err error) string {
	switch {
	case errors.Is(err, git.ErrAuthFailed):
		return "Authentication failed. Please check your username and password/token."
	case errors.Is(err, git.ErrRepoNotFound):
		return "Repository not found. Please check the URL and your access permissions."
	case errors.Is(err, git.ErrHostUnreachable), errors.Is(err, context.DeadlineExceeded):
		return "Connection timed out. Please check your internet connection and try again."
	default:
		return "Failed to clone repository. Please check the URL and your credentials."
	}
}
