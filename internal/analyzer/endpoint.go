package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

var (
	controllerPattern = regexp.MustCompile(`@(?:Rest)?Controller\b`)
	servicePattern    = regexp.MustCompile(`@(?:Service|Component)\b`)
	repositoryPattern = regexp.MustCompile(`@Repository\b|extends\s+(?:JpaRepository|CrudRepository|MongoRepository)`)
	entityPattern     = regexp.MustCompile(`@(?:Entity|Document|Table)\b`)

	basePathPattern = regexp.MustCompile(`@RequestMapping\s*\(\s*(?:value\s*=\s*)?"([^"]*)"`)

	serviceCallPattern    = regexp.MustCompile(`(\w+)Service\.(\w+)\(`)
	repositoryCallPattern = regexp.MustCompile(`(\w+)Repository\.(\w+)\(`)

	autowiredFieldPattern = regexp.MustCompile(`@Autowired\s+(?:private|protected|public)?\s+(\w+)\s+(\w+);`)

	serviceMethodPattern    = regexp.MustCompile(`(?s)(?:public|private|protected)\s+(?:[\w<>\[\],\s]+)\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w,\s]+\s*)?\{`)
	repositoryMethodPattern = regexp.MustCompile(`(?s)(?:public|private|protected)?\s+(?:[\w<>\[\],\s]+)\s+(\w+)\s*\([^)]*\)`)
	repositoryEntityPattern = regexp.MustCompile(`(?:interface|class)\s+\w+\s+extends\s+\w+Repository<(\w+),`)
)

type mappingPattern struct {
	re     *regexp.Regexp
	method string
}

func buildMappingPatterns() []mappingPattern {
	direct := []struct{ annotation, method string }{
		{"GetMapping", "GET"},
		{"PostMapping", "POST"},
		{"PutMapping", "PUT"},
		{"DeleteMapping", "DELETE"},
	}
	var patterns []mappingPattern
	for _, d := range direct {
		expr := fmt.Sprintf(`(?s)@%s\s*\(\s*(?:value\s*=\s*)?"([^"]*)"[^)]*\)[^{]*?public\s+(?:ResponseEntity|[\w<>]+)\s+(\w+)\s*\(`, d.annotation)
		patterns = append(patterns, mappingPattern{re: regexp.MustCompile(expr), method: d.method})
	}
	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		expr := fmt.Sprintf(`(?s)@RequestMapping\s*\(\s*(?:value\s*=\s*)?"([^"]*)"[^)]*method\s*=\s*RequestMethod\.%s[^)]*\)[^{]*?public\s+(?:ResponseEntity|[\w<>]+)\s+(\w+)\s*\(`, m)
		patterns = append(patterns, mappingPattern{re: regexp.MustCompile(expr), method: m})
	}
	return patterns
}

func buildFallbackMappingPatterns() []mappingPattern {
	direct := []struct{ annotation, method string }{
		{"GetMapping", "GET"},
		{"PostMapping", "POST"},
		{"PutMapping", "PUT"},
		{"DeleteMapping", "DELETE"},
	}
	var patterns []mappingPattern
	for _, d := range direct {
		expr := fmt.Sprintf(`(?s)@%s\s*\(\s*(?:value\s*=\s*)?"([^"]*)"[^)]*\)[^{]*?public\s+\w+(?:<[^>]*>)?\s+(\w+)\s*\(`, d.annotation)
		patterns = append(patterns, mappingPattern{re: regexp.MustCompile(expr), method: d.method})
	}
	return patterns
}

var (
	mappingPatterns         = buildMappingPatterns()
	fallbackMappingPatterns = buildFallbackMappingPatterns()
)

// EndpointParser 从 Spring Boot 源码中提取控制器、服务、仓储及端点信息
type EndpointParser struct {
	workers int
}

func NewEndpointParser(workers int) *EndpointParser {
	return &EndpointParser{workers: workers}
}

func (p *EndpointParser) Parse(repoPath string) *ArchitectureData {
	data := &ArchitectureData{
		Endpoints:    []Endpoint{},
		Services:     map[string]*ServiceInfo{},
		Repositories: map[string]*RepositoryInfo{},
		Architecture: Architecture{
			ControllerService: map[string][]string{},
			ServiceRepository: map[string][]string{},
		},
	}

	paths := FindJavaFiles(repoPath)
	klog.V(6).Infof("仓库 %s 发现 %d 个 Java 文件", repoPath, len(paths))
	files := LoadJavaFiles(paths, p.workers)

	// 第一遍：按注解归类，控制器优先级最高
	for _, f := range files {
		className := ExtractClassName(f.Content)
		if className == "" {
			continue
		}
		switch {
		case controllerPattern.MatchString(f.Content):
			// 控制器在解析端点时处理
		case servicePattern.MatchString(f.Content):
			data.Services[className] = &ServiceInfo{Methods: []ServiceMethod{}, FilePath: f.Path}
		case repositoryPattern.MatchString(f.Content):
			data.Repositories[className] = &RepositoryInfo{Methods: []RepositoryMethod{}, FilePath: f.Path}
		}
	}

	// 第二遍：解析端点、服务方法和仓储方法
	for _, f := range files {
		data.Endpoints = append(data.Endpoints, p.parseControllerFile(f)...)
		p.parseServiceFile(f, data)
		p.parseRepositoryFile(f, data)
	}

	// 第三遍：识别控制器到服务的依赖关系
	for _, f := range files {
		p.identifyRelationships(f, data)
	}

	p.enrichEndpoints(data)

	klog.V(6).Infof("共解析出 %d 个端点", len(data.Endpoints))
	return data
}

func (p *EndpointParser) parseControllerFile(f JavaFile) []Endpoint {
	if !controllerPattern.MatchString(f.Content) {
		return nil
	}
	controllerName := ExtractClassName(f.Content)
	if controllerName == "" {
		return nil
	}

	basePath := ""
	if m := basePathPattern.FindStringSubmatch(f.Content); m != nil {
		basePath = strings.Trim(m[1], "/")
	}

	endpoints := p.matchEndpoints(f.Content, controllerName, basePath, mappingPatterns, true)
	if len(endpoints) == 0 {
		endpoints = p.matchEndpoints(f.Content, controllerName, basePath, fallbackMappingPatterns, false)
	}
	return endpoints
}

func (p *EndpointParser) matchEndpoints(content, controllerName, basePath string, patterns []mappingPattern, skipConstructor bool) []Endpoint {
	var endpoints []Endpoint
	for _, mp := range patterns {
		for _, idx := range mp.re.FindAllStringSubmatchIndex(content, -1) {
			path := content[idx[2]:idx[3]]
			methodName := content[idx[4]:idx[5]]
			if skipConstructor && methodName == controllerName {
				continue
			}
			block := extractMethodBlock(content, idx[1])
			endpoints = append(endpoints, Endpoint{
				Controller:     controllerName,
				Method:         methodName,
				HTTPMethod:     mp.method,
				Path:           joinPath(basePath, path),
				Implementation: block,
				ServiceCalls:   extractServiceCalls(block),
			})
		}
	}
	return endpoints
}

func joinPath(basePath, path string) string {
	if basePath != "" {
		if strings.HasPrefix(path, "/") {
			return "/" + basePath + path
		}
		return "/" + basePath + "/" + path
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func (p *EndpointParser) parseServiceFile(f JavaFile, data *ArchitectureData) {
	className := ExtractClassName(f.Content)
	info, ok := data.Services[className]
	if !ok {
		return
	}

	for _, idx := range serviceMethodPattern.FindAllStringSubmatchIndex(f.Content, -1) {
		methodName := f.Content[idx[2]:idx[3]]
		block := extractMethodBlock(f.Content, idx[1])
		info.Methods = append(info.Methods, ServiceMethod{
			Name:            methodName,
			Implementation:  block,
			RepositoryCalls: extractRepositoryCalls(block),
		})
	}

	for _, m := range autowiredFieldPattern.FindAllStringSubmatch(f.Content, -1) {
		fieldType := m[1]
		if _, isRepo := data.Repositories[fieldType]; isRepo || strings.HasSuffix(fieldType, "Repository") {
			data.Architecture.ServiceRepository[className] = append(data.Architecture.ServiceRepository[className], fieldType)
		}
	}
}

func (p *EndpointParser) parseRepositoryFile(f JavaFile, data *ArchitectureData) {
	className := ExtractClassName(f.Content)
	info, ok := data.Repositories[className]
	if !ok {
		return
	}

	entityType := ""
	if m := repositoryEntityPattern.FindStringSubmatch(f.Content); m != nil {
		entityType = m[1]
		info.EntityType = entityType
	}

	for _, m := range repositoryMethodPattern.FindAllStringSubmatch(f.Content, -1) {
		info.Methods = append(info.Methods, RepositoryMethod{Name: m[1], EntityType: entityType})
	}
}

func (p *EndpointParser) identifyRelationships(f JavaFile, data *ArchitectureData) {
	if !controllerPattern.MatchString(f.Content) {
		return
	}
	className := ExtractClassName(f.Content)
	if className == "" {
		return
	}
	for _, m := range autowiredFieldPattern.FindAllStringSubmatch(f.Content, -1) {
		fieldType := m[1]
		if _, isService := data.Services[fieldType]; isService || strings.HasSuffix(fieldType, "Service") {
			data.Architecture.ControllerService[className] = append(data.Architecture.ControllerService[className], fieldType)
		}
	}
}

// 根据依赖关系为端点补充服务和仓储信息
func (p *EndpointParser) enrichEndpoints(data *ArchitectureData) {
	for i := range data.Endpoints {
		endpoint := &data.Endpoints[i]
		services, ok := data.Architecture.ControllerService[endpoint.Controller]
		if !ok {
			continue
		}
		endpoint.Services = services
		var repositories []string
		for _, service := range services {
			repositories = append(repositories, data.Architecture.ServiceRepository[service]...)
		}
		if len(repositories) > 0 {
			endpoint.Repositories = repositories
		}
	}
}

// extractMethodBlock 从起始位置按花括号配对截取完整方法体
func extractMethodBlock(content string, start int) string {
	braceCount := 0
	end := start
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				end = i + 1
				return content[start:end]
			}
		}
	}
	return content[start:end]
}

func extractServiceCalls(block string) []ServiceCall {
	calls := []ServiceCall{}
	for _, m := range serviceCallPattern.FindAllStringSubmatch(block, -1) {
		calls = append(calls, ServiceCall{Service: m[1] + "Service", Method: m[2]})
	}
	return calls
}

func extractRepositoryCalls(block string) []RepositoryCall {
	calls := []RepositoryCall{}
	for _, m := range repositoryCallPattern.FindAllStringSubmatch(block, -1) {
		calls = append(calls, RepositoryCall{Repository: m[1] + "Repository", Method: m[2]})
	}
	return calls
}
