package analyzer

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

var (
	parentVersionPattern      = regexp.MustCompile(`<parent>\s*<groupId>org\.springframework\.boot</groupId>\s*<artifactId>spring-boot-starter-parent</artifactId>\s*<version>([^<]+)</version>`)
	gradleVersionPattern      = regexp.MustCompile(`org\.springframework\.boot['"]?\s*:\s*['"]?spring-boot[^'"\s]*['"]?\s*:\s*['"]?([0-9]+\.[0-9]+\.[0-9]+(?:\.[A-Z0-9]+)?)['"]?`)
	gradleVersionPropPattern  = regexp.MustCompile(`springBootVersion\s*=\s*['"]([0-9]+\.[0-9]+\.[0-9]+(?:\.[A-Z0-9]+)?)['"]`)
	springBootContentPatterns = []string{"SpringBootApplication", "SpringApplication.run", "Spring Boot", "@EnableAutoConfiguration"}
)

type pomCoordinate struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomXML struct {
	Parent       pomCoordinate   `xml:"parent"`
	Dependencies []pomCoordinate `xml:"dependencies>dependency"`
	Build        struct {
		Plugins []pomCoordinate `xml:"plugins>plugin"`
	} `xml:"build"`
}

// ProjectAnalyzer 检测仓库的构建系统和是否为 Spring Boot 项目
type ProjectAnalyzer struct {
	maxProbeFiles int
}

func NewProjectAnalyzer(maxProbeFiles int) *ProjectAnalyzer {
	if maxProbeFiles <= 0 {
		maxProbeFiles = 20
	}
	return &ProjectAnalyzer{maxProbeFiles: maxProbeFiles}
}

func (a *ProjectAnalyzer) Analyze(repoPath string) *ProjectInfo {
	info, err := os.Stat(repoPath)
	if err != nil || !info.IsDir() {
		return &ProjectInfo{
			Status:  "error",
			Message: "Repository path does not exist or is not a directory",
		}
	}

	pomFiles := findFilesByName(repoPath, "pom.xml")
	gradleFiles := append(findFilesByName(repoPath, "build.gradle"), findFilesByName(repoPath, "build.gradle.kts")...)
	isMaven := len(pomFiles) > 0
	isGradle := len(gradleFiles) > 0

	isSpringBoot := false
	version := ""
	if isMaven {
		isSpringBoot, version = a.mavenSpringBoot(pomFiles)
	}
	if isGradle && !isSpringBoot {
		isSpringBoot, version = a.gradleSpringBoot(gradleFiles)
	}
	if !(isMaven || isGradle) || !isSpringBoot {
		if a.deepSpringBootCheck(repoPath) {
			isSpringBoot = true
		}
	}

	buildSystem := "Unknown"
	switch {
	case isMaven && isGradle:
		buildSystem = "Maven/Gradle (Both found)"
	case isMaven:
		buildSystem = "Maven"
	case isGradle:
		buildSystem = "Gradle"
	}

	projectType := "Unknown"
	if isSpringBoot {
		projectType = "Spring Boot"
	} else if isMaven || isGradle {
		projectType = "Java"
	}

	result := &ProjectInfo{
		Status:            "success",
		IsMaven:           isMaven,
		IsGradle:          isGradle,
		IsSpringBoot:      isSpringBoot,
		BuildSystem:       buildSystem,
		ProjectType:       projectType,
		SpringBootVersion: version,
	}
	klog.V(6).Infof("项目分析结果: %s %s", buildSystem, projectType)
	return result
}

func (a *ProjectAnalyzer) mavenSpringBoot(pomFiles []string) (bool, string) {
	for _, pomFile := range pomFiles {
		data, err := os.ReadFile(pomFile)
		if err != nil {
			continue
		}
		content := string(data)
		lower := strings.ToLower(content)

		isSpringBoot := strings.Contains(lower, "spring-boot") || strings.Contains(lower, "org.springframework.boot")
		version := ""
		if m := parentVersionPattern.FindStringSubmatch(content); m != nil {
			version = m[1]
		}

		// XML 解析补充版本信息
		var pom pomXML
		if xml.Unmarshal(data, &pom) == nil {
			if strings.Contains(pom.Parent.ArtifactID, "spring-boot-starter-parent") {
				isSpringBoot = true
				if version == "" {
					version = pom.Parent.Version
				}
			}
			for _, dep := range pom.Dependencies {
				if strings.Contains(dep.GroupID, "org.springframework.boot") || strings.Contains(dep.ArtifactID, "spring-boot") {
					isSpringBoot = true
					if version == "" {
						version = dep.Version
					}
					break
				}
			}
			for _, plugin := range pom.Build.Plugins {
				if strings.Contains(plugin.GroupID, "org.springframework.boot") || strings.Contains(plugin.ArtifactID, "spring-boot-maven-plugin") {
					isSpringBoot = true
					if version == "" {
						version = plugin.Version
					}
					break
				}
			}
		}

		if isSpringBoot {
			return true, version
		}
	}
	return false, ""
}

func (a *ProjectAnalyzer) gradleSpringBoot(gradleFiles []string) (bool, string) {
	for _, gradleFile := range gradleFiles {
		data, err := os.ReadFile(gradleFile)
		if err != nil {
			continue
		}
		content := string(data)
		if !strings.Contains(content, "org.springframework.boot") && !strings.Contains(content, "spring-boot") {
			continue
		}
		version := ""
		if m := gradleVersionPattern.FindStringSubmatch(content); m != nil {
			version = m[1]
		}
		if version == "" {
			if m := gradleVersionPropPattern.FindStringSubmatch(content); m != nil {
				version = m[1]
			}
		}
		return true, version
	}
	return false, ""
}

// 构建文件检测不到时做更深的目录结构检查
func (a *ProjectAnalyzer) deepSpringBootCheck(repoPath string) bool {
	// 应用主类
	for _, appFile := range findApplicationFiles(repoPath) {
		data, err := os.ReadFile(appFile)
		if err != nil {
			continue
		}
		content := string(data)
		for _, marker := range springBootContentPatterns {
			if strings.Contains(content, marker) {
				return true
			}
		}
		if strings.Contains(strings.ToLower(content), "spring-boot") {
			return true
		}
	}

	// 配置文件
	configNames := map[string]bool{
		"application.properties": true, "application.yml": true, "application.yaml": true,
		"bootstrap.properties": true, "bootstrap.yml": true, "bootstrap.yaml": true,
	}
	if hasFileMatching(repoPath, func(name string) bool { return configNames[name] }) {
		return true
	}

	// 构建包装器脚本及其配置
	if hasFileMatching(repoPath, func(name string) bool { return name == "mvnw" || name == "gradlew" }) {
		if hasFileMatching(repoPath, func(name string) bool {
			return name == "maven-wrapper.properties" || name == "gradle-wrapper.properties"
		}) {
			return true
		}
	}

	// 抽样检查 Java 文件中的 Spring 引用
	javaFiles := collectJavaFiles(repoPath)
	if len(javaFiles) > a.maxProbeFiles {
		javaFiles = javaFiles[:a.maxProbeFiles]
	}
	for _, javaFile := range javaFiles {
		data, err := os.ReadFile(javaFile)
		if err != nil {
			continue
		}
		content := string(data)
		if strings.Contains(content, "org.springframework.boot") ||
			strings.Contains(content, "SpringBootApplication") ||
			strings.Contains(content, "SpringApplication") ||
			strings.Contains(content, "@EnableAutoConfiguration") {
			return true
		}
	}

	// 最后在 XML 和构建描述文件里找 Spring Boot 引用
	found := false
	filepath.WalkDir(repoPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || found {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".xml") && !strings.Contains(name, "build") && !strings.Contains(name, "pom") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		lower := strings.ToLower(string(data))
		if strings.Contains(lower, "org.springframework.boot") || strings.Contains(lower, "spring-boot") {
			found = true
		}
		return nil
	})
	return found
}

func findFilesByName(root, name string) []string {
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func findApplicationFiles(root string) []string {
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, "Application.java") && !strings.HasSuffix(name, "App.java") {
			return nil
		}
		if strings.Contains(path, string(filepath.Separator)+"src"+string(filepath.Separator)) {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func hasFileMatching(root string, match func(name string) bool) bool {
	found := false
	filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || found || d.IsDir() {
			return nil
		}
		if match(d.Name()) {
			found = true
		}
		return nil
	})
	return found
}
