package feature

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/codedocgen/backend/internal/analyzer"
)

var (
	camelBoundary    = regexp.MustCompile(`([a-z])([A-Z])`)
	controllerSuffix = regexp.MustCompile(`Controller$`)
	nonAlnum         = regexp.MustCompile(`[^a-zA-Z0-9]`)
	pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)
)

// File 一个控制器对应一份 Gherkin 特性文件
type File struct {
	Filename      string `json:"filename"`
	Content       string `json:"content"`
	Controller    string `json:"controller"`
	EndpointCount int    `json:"endpoint_count"`
	Preview       string `json:"preview,omitempty"`
}

// Generate 按控制器分组生成特性文件
func Generate(endpoints []analyzer.Endpoint) []File {
	controllers := map[string][]analyzer.Endpoint{}
	var order []string
	for _, endpoint := range endpoints {
		if endpoint.Controller == "" {
			continue
		}
		if _, ok := controllers[endpoint.Controller]; !ok {
			order = append(order, endpoint.Controller)
		}
		controllers[endpoint.Controller] = append(controllers[endpoint.Controller], endpoint)
	}

	files := make([]File, 0, len(order))
	for _, controller := range order {
		ctrlEndpoints := controllers[controller]
		files = append(files, File{
			Filename:      SanitizeFilename(controller) + ".feature",
			Content:       controllerFeature(controller, ctrlEndpoints),
			Controller:    controller,
			EndpointCount: len(ctrlEndpoints),
		})
	}
	return files
}

// WithPreviews 给每份特性文件附上前五行预览
func WithPreviews(files []File) []File {
	for i := range files {
		lines := strings.Split(files[i].Content, "\n")
		if len(lines) > 5 {
			lines = lines[:5]
		}
		files[i].Preview = strings.Join(lines, "\n") + "..."
	}
	return files
}

func controllerFeature(controller string, endpoints []analyzer.Endpoint) string {
	featureName := camelBoundary.ReplaceAllString(controller, `$1 $2`)
	featureName = controllerSuffix.ReplaceAllString(featureName, "")
	featureName = strings.TrimSpace(featureName)

	var b strings.Builder
	fmt.Fprintf(&b, "Feature: %s API\n", featureName)
	fmt.Fprintf(&b, "  As an API consumer\n")
	fmt.Fprintf(&b, "  I want to interact with the %s endpoints\n", featureName)
	fmt.Fprintf(&b, "  So that I can perform operations related to %s\n\n", strings.ToLower(featureName))

	for _, endpoint := range endpoints {
		scenarioName := camelBoundary.ReplaceAllString(endpoint.Method, `$1 $2`)

		successCode := "200 OK"
		switch endpoint.HTTPMethod {
		case "POST":
			successCode = "201 Created"
		case "DELETE":
			successCode = "204 No Content"
		}

		fmt.Fprintf(&b, "  Scenario: %s\n", scenarioName)
		params := pathParamPattern.FindAllStringSubmatch(endpoint.Path, -1)
		if len(params) > 0 {
			for _, m := range params {
				fmt.Fprintf(&b, "    Given a valid %s exists\n", m[1])
			}
		} else {
			b.WriteString("    Given the API is available\n")
		}
		fmt.Fprintf(&b, "    When I send a %s request to %q\n", endpoint.HTTPMethod, endpoint.Path)
		fmt.Fprintf(&b, "    Then I should receive a %s response\n", successCode)
		b.WriteString("    And the response should contain valid data\n\n")
	}

	return b.String()
}

// SanitizeFilename 去掉 Controller 后缀，非字母数字统一换成下划线
func SanitizeFilename(name string) string {
	name = controllerSuffix.ReplaceAllString(name, "")
	return nonAlnum.ReplaceAllString(name, "_")
}

// Zip 把特性文件打成内存 ZIP，返回内容与下载名
func Zip(files []File, repoName string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		entry, err := w.Create(f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to add %s to archive: %w", f.Filename, err)
		}
		if _, err := entry.Write([]byte(f.Content)); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	filename := fmt.Sprintf("%s_features_%s.zip", repoName, time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

// Step 场景步骤
type Step struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Scenario struct {
	Title string `json:"title"`
	Steps []Step `json:"steps"`
}

// Summary 供用例图使用的特性概要
type Summary struct {
	Title      string     `json:"title"`
	Controller string     `json:"controller"`
	Scenarios  []Scenario `json:"scenarios"`
}

var (
	featureTitlePattern = regexp.MustCompile(`Feature:\s*(.*?)\s*\n`)
	scenarioPattern     = regexp.MustCompile(`(?m)^  Scenario:\s*(.*)$`)
	stepPattern         = regexp.MustCompile(`(?m)^\s*(Given|When|Then|And)\s+(.*)$`)
)

// Summarize 从生成的特性文件内容里提取标题、场景和步骤
func Summarize(files []File) []Summary {
	summaries := make([]Summary, 0, len(files))
	for _, f := range files {
		summary := Summary{Title: f.Controller, Controller: f.Controller}
		if m := featureTitlePattern.FindStringSubmatch(f.Content); m != nil {
			summary.Title = m[1]
		}

		scenarioIdx := scenarioPattern.FindAllStringSubmatchIndex(f.Content, -1)
		for i, loc := range scenarioIdx {
			end := len(f.Content)
			if i+1 < len(scenarioIdx) {
				end = scenarioIdx[i+1][0]
			}
			block := f.Content[loc[1]:end]
			scenario := Scenario{Title: strings.TrimSpace(f.Content[loc[2]:loc[3]])}
			for _, step := range stepPattern.FindAllStringSubmatch(block, -1) {
				scenario.Steps = append(scenario.Steps, Step{Type: step[1], Text: strings.TrimSpace(step[2])})
			}
			summary.Scenarios = append(summary.Scenarios, scenario)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
