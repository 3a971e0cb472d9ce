package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrRepoNotFound    = errors.New("repository not found")
	ErrHostUnreachable = errors.New("could not resolve host")
)

type CloneOptions struct {
	URL       string
	Username  string
	Password  string
	TargetDir string
	Timeout   time.Duration
}

func Clone(opts CloneOptions) error {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cloneURL := opts.URL
	if opts.Username != "" && opts.Password != "" {
		withCreds, err := WithCredentials(opts.URL, opts.Username, opts.Password)
		if err != nil {
			return err
		}
		cloneURL = withCreds
	}

	if err := os.MkdirAll(filepath.Dir(opts.TargetDir), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", cloneURL, opts.TargetDir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return classifyCloneError(string(output), opts)
	}

	return nil
}

// WithCredentials 将用户名密码嵌入 HTTPS 地址，仅支持 http/https
func WithCredentials(raw, username, password string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("credentials require an http(s) url")
	}
	parsed.User = url.UserPassword(username, password)
	return parsed.String(), nil
}

// 错误信息中不得出现凭证，统一用归类后的哨兵错误返回
func classifyCloneError(output string, opts CloneOptions) error {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "authentication failed") || strings.Contains(lower, "invalid username or password"):
		return ErrAuthFailed
	case strings.Contains(lower, "could not resolve host"):
		return ErrHostUnreachable
	case strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist"):
		return ErrRepoNotFound
	}
	sanitized := output
	if opts.Password != "" {
		sanitized = strings.ReplaceAll(sanitized, opts.Password, "***")
	}
	return fmt.Errorf("git clone failed: %s", strings.TrimSpace(sanitized))
}

func ParseRepoName(url string) string {
	url = strings.TrimSuffix(url, ".git")
	url = strings.TrimSuffix(url, "/")

	re := regexp.MustCompile(`[:/]([^/:]+/[^/:]+)$`)
	matches := re.FindStringSubmatch(url)
	if len(matches) > 1 {
		parts := strings.Split(matches[1], "/")
		if len(parts) >= 2 {
			return parts[len(parts)-1]
		}
	}

	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

func RemoveRepo(path string) error {
	return os.RemoveAll(path)
}

func IsValidGitURL(url string) bool {
	httpsPattern := regexp.MustCompile(`^https?://[^\s]+\.git$|^https?://[^\s/]+/[^\s]+$`)
	sshPattern := regexp.MustCompile(`^git@[^\s]+:[^\s]+\.git$`)

	return httpsPattern.MatchString(url) || sshPattern.MatchString(url)
}

// FindRepoDir 在仓库根目录下解析 repoName 对应的本地目录。
// 同名目录可能带唯一后缀（name_xxxxxxxx），取修改时间最新的一个。
func FindRepoDir(repoRoot, repoName string) (string, error) {
	entries, err := os.ReadDir(repoRoot)
	if err != nil {
		return "", err
	}

	type candidate struct {
		path  string
		mtime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name != repoName && !strings.HasPrefix(name, repoName+"_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:  filepath.Join(repoRoot, name),
			mtime: info.ModTime(),
		})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("repository %q not found under %s: %w", repoName, repoRoot, os.ErrNotExist)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime.After(candidates[j].mtime)
	})
	return candidates[0].path, nil
}

func GetBranchAndCommit(repoPath string) (string, string, error) {
	branchCmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	branchCmd.Dir = repoPath
	branchBytes, err := branchCmd.CombinedOutput()
	if err != nil {
		return "", "", fmt.Errorf("git branch failed: %w, output: %s", err, string(branchBytes))
	}

	commitCmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	commitCmd.Dir = repoPath
	commitBytes, err := commitCmd.CombinedOutput()
	if err != nil {
		return "", "", fmt.Errorf("git commit failed: %w, output: %s", err, string(commitBytes))
	}

	return strings.TrimSpace(string(branchBytes)), strings.TrimSpace(string(commitBytes)), nil
}

func DirSizeMB(path string) (float64, error) {
	var totalSize int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return float64(totalSize) / (1024 * 1024), nil
}
