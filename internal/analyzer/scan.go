package analyzer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

const defaultScanWorkers = 4

var (
	classNamePattern     = regexp.MustCompile(`(?:public\s+|private\s+|protected\s+)?(?:abstract\s+)?class\s+(\w+)`)
	interfaceNamePattern = regexp.MustCompile(`(?:public\s+|private\s+|protected\s+)?interface\s+(\w+)`)
)

// JavaFile 内存中的一个源文件
type JavaFile struct {
	Path    string
	Content string
}

// FindJavaFiles 优先扫描 src/main/java，没有再退回整个仓库
func FindJavaFiles(repoPath string) []string {
	mainJavaDir := filepath.Join(repoPath, "src", "main", "java")
	files := collectJavaFiles(mainJavaDir)
	if len(files) == 0 {
		files = collectJavaFiles(repoPath)
	}
	return files
}

func collectJavaFiles(root string) []string {
	var files []string
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return files
	}
	filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".java") {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// LoadJavaFiles 并发读取源文件，读取失败的文件跳过
func LoadJavaFiles(paths []string, workers int) []JavaFile {
	if workers <= 0 {
		workers = defaultScanWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return loadJavaFilesSerial(paths)
	}
	defer pool.Release()

	results := make([]*JavaFile, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		i, path := i, path
		submitErr := pool.Submit(func() {
			defer wg.Done()
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				klog.Errorf("读取源文件失败 %s: %v", path, readErr)
				return
			}
			results[i] = &JavaFile{Path: path, Content: string(data)}
		})
		if submitErr != nil {
			wg.Done()
			data, readErr := os.ReadFile(path)
			if readErr == nil {
				results[i] = &JavaFile{Path: path, Content: string(data)}
			}
		}
	}
	wg.Wait()

	files := make([]JavaFile, 0, len(paths))
	for _, r := range results {
		if r != nil {
			files = append(files, *r)
		}
	}
	return files
}

func loadJavaFilesSerial(paths []string) []JavaFile {
	files := make([]JavaFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		files = append(files, JavaFile{Path: path, Content: string(data)})
	}
	return files
}

// ExtractClassName 提取文件中的主类名，类优先，其次接口
func ExtractClassName(content string) string {
	if m := classNamePattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := interfaceNamePattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

// MapClassesToFiles 类名到源文件的映射
func MapClassesToFiles(files []JavaFile) map[string]JavaFile {
	classMap := make(map[string]JavaFile, len(files))
	for _, f := range files {
		if name := ExtractClassName(f.Content); name != "" {
			classMap[name] = f
		}
	}
	return classMap
}
