package diagram

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"
)

// Result 图生成结果，diagram_url 指向 PlantUML 服务端渲染地址
type Result struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	PumlSource string `json:"puml_source"`
	DiagramURL string `json:"diagram_url,omitempty"`
}

// Generator 基于 PlantUML 文本生成各类架构图
type Generator struct {
	serverURL string
}

func NewGenerator(serverURL string) *Generator {
	if !strings.HasSuffix(serverURL, "/") {
		serverURL += "/"
	}
	return &Generator{serverURL: serverURL}
}

func (g *Generator) finalize(diagramType, source string) Result {
	encoded, err := EncodeSource(source)
	if err != nil {
		klog.Errorf("编码 %s 图源失败: %v", diagramType, err)
		return Result{
			Status:     "error",
			Message:    fmt.Sprintf("Error generating %s diagram: %v", diagramType, err),
			PumlSource: source,
		}
	}
	return Result{
		Status:     "success",
		Message:    fmt.Sprintf("Generated %s diagram successfully", diagramType),
		PumlSource: source,
		DiagramURL: g.serverURL + encoded,
	}
}
