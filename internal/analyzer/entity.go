package analyzer

import (
	"path/filepath"
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

var dbAnnotations = []string{
	"@Entity", "@Table", "@Column", "@Id", "@GeneratedValue",
	"@OneToMany", "@ManyToOne", "@OneToOne", "@ManyToMany",
	"@JoinColumn", "@JoinTable", "@Embeddable", "@Embedded",
}

var (
	entityAnnotationPattern = regexp.MustCompile(`@Entity\b`)
	packagePattern          = regexp.MustCompile(`package\s+([\w.]+);`)
	entityFieldPattern      = regexp.MustCompile(`(?:private|public|protected)?\s+(?:final\s+)?(\w+(?:<[^>]+>)?)\s+(\w+)`)
	columnNamePattern       = regexp.MustCompile(`@Column\s*\(\s*name\s*=\s*["']([^"']+)["']`)
	implementsPattern       = regexp.MustCompile(`implements\s+([\w.,\s]+)\{`)
	extendsPattern          = regexp.MustCompile(`extends\s+(\w+)`)
)

// EntityParser 提取 JPA 实体类的字段、注解与列映射
type EntityParser struct {
	workers int
}

func NewEntityParser(workers int) *EntityParser {
	return &EntityParser{workers: workers}
}

func (p *EntityParser) Parse(repoPath string) *EntityResult {
	result := &EntityResult{Entities: map[string]*Entity{}}

	paths := collectJavaFiles(repoPath)
	files := LoadJavaFiles(paths, p.workers)
	for _, f := range files {
		entity := p.parseFile(f, repoPath)
		if entity != nil {
			result.Entities[entity.Name] = entity
			result.Count++
		}
	}

	klog.V(6).Infof("仓库 %s 发现 %d 个实体", repoPath, result.Count)
	return result
}

func (p *EntityParser) parseFile(f JavaFile, repoPath string) *Entity {
	isEntity := entityAnnotationPattern.MatchString(f.Content)
	if !isEntity {
		hasDBAnnotation := false
		for _, annotation := range dbAnnotations {
			if strings.Contains(f.Content, annotation) {
				hasDBAnnotation = true
				break
			}
		}
		if !hasDBAnnotation {
			return nil
		}
	}

	className := ""
	if m := classNamePattern.FindStringSubmatch(f.Content); m != nil {
		className = m[1]
	}
	if className == "" {
		return nil
	}

	pkg := "unknown"
	if m := packagePattern.FindStringSubmatch(f.Content); m != nil {
		pkg = m[1]
	}

	relPath, err := filepath.Rel(repoPath, f.Path)
	if err != nil {
		relPath = f.Path
	}

	return &Entity{
		Name:           className,
		Package:        pkg,
		Annotations:    extractClassAnnotations(f.Content, className),
		Fields:         extractEntityFields(f.Content, className),
		ColumnMappings: extractColumnMappings(f.Content),
		Implements:     extractImplements(f.Content),
		Extends:        extractExtends(f.Content),
		FilePath:       relPath,
	}
}

// 类声明之前出现的注解行
func extractClassAnnotations(content, className string) []string {
	annotations := []string{}
	classDeclPattern := regexp.MustCompile(`class\s+` + regexp.QuoteMeta(className))
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if classDeclPattern.MatchString(line) {
			break
		}
		if strings.HasPrefix(line, "@") {
			annotations = append(annotations, line)
		}
	}
	return annotations
}

func extractEntityFields(content, className string) []EntityField {
	fields := []EntityField{}
	lines := strings.Split(content, "\n")

	classDeclPattern := regexp.MustCompile(`class\s+` + regexp.QuoteMeta(className))
	classIndex := -1
	for i, line := range lines {
		if classDeclPattern.MatchString(line) {
			classIndex = i
			break
		}
	}
	if classIndex == -1 {
		return fields
	}

	var currentAnnotations []string
	for i := classIndex + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "}") {
			break
		}
		if strings.HasPrefix(line, "@") {
			currentAnnotations = append(currentAnnotations, line)
			continue
		}
		if m := entityFieldPattern.FindStringSubmatch(line); m != nil {
			annotations := make([]string, len(currentAnnotations))
			copy(annotations, currentAnnotations)
			fields = append(fields, EntityField{
				Type:        m[1],
				Name:        m[2],
				Annotations: annotations,
			})
			currentAnnotations = nil
		}
	}
	return fields
}

// @Column(name=...) 后紧跟的字段声明决定列映射
func extractColumnMappings(content string) map[string]string {
	mappings := map[string]string{}
	fieldAfterColumn := regexp.MustCompile(`(?:private|public|protected)?\s+(?:final\s+)?(?:\w+(?:<[^>]+>)?)\s+(\w+)`)
	for _, idx := range columnNamePattern.FindAllStringSubmatchIndex(content, -1) {
		columnName := content[idx[2]:idx[3]]
		lookahead := content[idx[1]:]
		if len(lookahead) > 200 {
			lookahead = lookahead[:200]
		}
		if m := fieldAfterColumn.FindStringSubmatch(lookahead); m != nil {
			mappings[m[1]] = columnName
		}
	}
	return mappings
}

func extractImplements(content string) []string {
	m := implementsPattern.FindStringSubmatch(content)
	if m == nil {
		return []string{}
	}
	parts := strings.Split(m[1], ",")
	implements := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			implements = append(implements, trimmed)
		}
	}
	return implements
}

func extractExtends(content string) string {
	if m := extendsPattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}
