package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
)

// AttachmentName 导出文件的下载名
func AttachmentName(repoName string) string {
	return repoName + "_api_documentation.md"
}

// Fallback 仓库中没有端点时的占位文档
func Fallback(repoName string) string {
	return fmt.Sprintf("# API Documentation for %s\n\nNo endpoints found in this repository.", repoName)
}

// Generate 按控制器分组生成 Markdown 形式的 API 文档
func Generate(endpoints []analyzer.Endpoint, repoName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# API Documentation for %s\n\n", repoName)
	fmt.Fprintf(&b, "This document describes the REST endpoints discovered in the repository.\n\n")

	controllers := map[string][]analyzer.Endpoint{}
	var order []string
	for _, endpoint := range endpoints {
		if _, ok := controllers[endpoint.Controller]; !ok {
			order = append(order, endpoint.Controller)
		}
		controllers[endpoint.Controller] = append(controllers[endpoint.Controller], endpoint)
	}
	sort.Strings(order)

	for _, controller := range order {
		fmt.Fprintf(&b, "## %s\n\n", controller)
		b.WriteString("| Method | Path | Handler |\n")
		b.WriteString("|--------|------|---------|\n")
		for _, endpoint := range controllers[controller] {
			fmt.Fprintf(&b, "| %s | `%s` | %s |\n", endpoint.HTTPMethod, endpoint.Path, endpoint.Method)
		}
		b.WriteString("\n")

		for _, endpoint := range controllers[controller] {
			fmt.Fprintf(&b, "### %s %s\n\n", endpoint.HTTPMethod, endpoint.Path)
			fmt.Fprintf(&b, "Handler: `%s.%s`\n\n", controller, endpoint.Method)
			if len(endpoint.ServiceCalls) > 0 {
				b.WriteString("Service calls:\n\n")
				for _, call := range endpoint.ServiceCalls {
					fmt.Fprintf(&b, "- `%s.%s()`\n", call.Service, call.Method)
				}
				b.WriteString("\n")
			}
			if len(endpoint.Repositories) > 0 {
				fmt.Fprintf(&b, "Repositories: %s\n\n", strings.Join(endpoint.Repositories, ", "))
			}
		}
	}

	return b.String()
}
