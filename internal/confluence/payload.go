package confluence

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
	"github.com/codedocgen/backend/internal/docgen/diagram"
	"github.com/codedocgen/backend/internal/docgen/feature"
)

var ErrInvalidSection = errors.New("invalid section")

const (
	SectionAPIDocs  = "api_docs"
	SectionFeatures = "features"
	SectionDiagrams = "diagrams"
	SectionFlows    = "flows"
)

var validSections = []string{SectionAPIDocs, SectionFeatures, SectionDiagrams, SectionFlows}

// ValidateSections 只接受 api_docs/features/diagrams/flows
func ValidateSections(selected []string) error {
	for _, section := range selected {
		valid := false
		for _, known := range validSections {
			if section == known {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: %s, valid options are: %s", ErrInvalidSection, section, strings.Join(validSections, ", "))
		}
	}
	return nil
}

// PayloadInputs 各分区需要的原始数据，由调用方按选中的分区准备
type PayloadInputs struct {
	Architecture *analyzer.ArchitectureData
	Features     []feature.Summary
	Diagrams     map[string]diagram.Result
	Flows        []analyzer.EndpointFlow
}

// PayloadBuilder 把解析结果汇编成待发布的页面分区
type PayloadBuilder struct {
	repoName  string
	converter *Converter
}

func NewPayloadBuilder(repoName string) *PayloadBuilder {
	return &PayloadBuilder{repoName: repoName, converter: NewConverter()}
}

// Build 按选中的分区生成内容，最前面插入自动生成的简介
func (b *PayloadBuilder) Build(selected []string, inputs PayloadInputs) ([]Section, error) {
	if err := ValidateSections(selected); err != nil {
		return nil, err
	}

	var sections []Section
	for _, section := range selected {
		switch section {
		case SectionAPIDocs:
			sections = append(sections, Section{
				Title:   "API Documentation",
				Content: b.apiDocsSection(inputs.Architecture),
			})
		case SectionFeatures:
			sections = append(sections, Section{
				Title:   "Feature Files",
				Content: b.featuresSection(inputs.Features),
			})
		case SectionDiagrams:
			sections = append(sections, Section{
				Title:   "System Diagrams",
				Content: b.diagramsSection(inputs.Diagrams),
			})
		case SectionFlows:
			sections = append(sections, Section{
				Title:   "Flow Summaries",
				Content: b.flowsSection(inputs.Flows),
			})
		}
	}

	intro := b.introSection(sections)
	return append([]Section{intro}, sections...), nil
}

func (b *PayloadBuilder) introSection(sections []Section) Section {
	var content strings.Builder
	fmt.Fprintf(&content, "<p>This documentation was automatically generated for the <strong>%s</strong> repository.</p>\n", html.EscapeString(b.repoName))
	content.WriteString("<p>Table of contents:</p>\n<ul>\n")
	for _, section := range sections {
		fmt.Fprintf(&content, "<li>%s</li>\n", html.EscapeString(section.Title))
	}
	content.WriteString("</ul>")
	return Section{Title: "Introduction", Content: content.String()}
}

// API 文档分区，按控制器列端点表格
func (b *PayloadBuilder) apiDocsSection(data *analyzer.ArchitectureData) string {
	if data == nil || len(data.Endpoints) == 0 {
		return "<p>No endpoints available.</p>"
	}

	controllers := map[string][]analyzer.Endpoint{}
	for _, endpoint := range data.Endpoints {
		controllers[endpoint.Controller] = append(controllers[endpoint.Controller], endpoint)
	}
	names := make([]string, 0, len(controllers))
	for name := range controllers {
		names = append(names, name)
	}
	sort.Strings(names)

	var content strings.Builder
	for _, name := range names {
		fmt.Fprintf(&content, "<h3>%s</h3>\n", html.EscapeString(name))
		content.WriteString("<table><thead><tr><th>Method</th><th>Path</th><th>Handler</th></tr></thead><tbody>\n")
		for _, endpoint := range controllers[name] {
			fmt.Fprintf(&content, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(endpoint.HTTPMethod), html.EscapeString(endpoint.Path), html.EscapeString(endpoint.Method))
		}
		content.WriteString("</tbody></table>\n")
	}
	return content.String()
}

func (b *PayloadBuilder) featuresSection(features []feature.Summary) string {
	if len(features) == 0 {
		return "<p>No feature files available.</p>"
	}

	var content strings.Builder
	for _, f := range features {
		fmt.Fprintf(&content, "<h3>%s</h3>\n", html.EscapeString(f.Title))
		for _, scenario := range f.Scenarios {
			fmt.Fprintf(&content, "<h4>%s</h4>\n", html.EscapeString(scenario.Title))
			if len(scenario.Steps) == 0 {
				continue
			}
			content.WriteString("<ul>\n")
			for _, step := range scenario.Steps {
				fmt.Fprintf(&content, "<li>%s %s</li>\n", step.Type, html.EscapeString(step.Text))
			}
			content.WriteString("</ul>\n")
		}
	}
	return content.String()
}

// 图分区，有渲染地址时嵌图，否则贴 PUML 源码
func (b *PayloadBuilder) diagramsSection(diagrams map[string]diagram.Result) string {
	if len(diagrams) == 0 {
		return "<p>No diagrams available.</p>"
	}

	types := make([]string, 0, len(diagrams))
	for diagramType := range diagrams {
		types = append(types, diagramType)
	}
	sort.Strings(types)

	var content strings.Builder
	for _, diagramType := range types {
		result := diagrams[diagramType]
		fmt.Fprintf(&content, "<h3>%s Diagram</h3>\n", titleCase(diagramType))
		if result.Status == "success" && result.DiagramURL != "" {
			fmt.Fprintf(&content, "<p><img src=\"%s\" alt=\"%s diagram\"></p>\n", result.DiagramURL, diagramType)
		} else if result.PumlSource != "" {
			content.WriteString(`<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">puml</ac:parameter><ac:plain-text-body><![CDATA[`)
			content.WriteString(result.PumlSource)
			content.WriteString("]]></ac:plain-text-body></ac:structured-macro>\n")
		}
	}
	return content.String()
}

func titleCase(diagramType string) string {
	words := strings.Split(strings.ReplaceAll(diagramType, "-", " "), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func (b *PayloadBuilder) flowsSection(flows []analyzer.EndpointFlow) string {
	if len(flows) == 0 {
		return "<p>No flow data available.</p>"
	}

	var content strings.Builder
	for _, flow := range flows {
		fmt.Fprintf(&content, "<h3>%s %s (%s)</h3>\n",
			html.EscapeString(flow.HTTPMethod), html.EscapeString(flow.Endpoint), html.EscapeString(flow.Controller))
		if len(flow.Flow) == 0 {
			content.WriteString("<p>No call chain resolved for this endpoint.</p>\n")
			continue
		}
		content.WriteString("<ol>\n")
		for _, node := range flow.Flow {
			fmt.Fprintf(&content, "<li>%s.%s (%s)</li>\n",
				html.EscapeString(node.ClassName), html.EscapeString(node.Method), html.EscapeString(node.ClassType))
		}
		content.WriteString("</ol>\n")
	}
	return content.String()
}
