package analyzer

import (
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

var (
	flowServicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`@Service\b`),
		regexp.MustCompile(`Service$`),
		regexp.MustCompile(`ServiceImpl$`),
	}
	flowRepositoryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`@Repository\b`),
		regexp.MustCompile(`Repository$`),
		regexp.MustCompile(`Dao$`),
		regexp.MustCompile(`JpaRepository\b`),
		regexp.MustCompile(`CrudRepository\b`),
		regexp.MustCompile(`MongoRepository\b`),
	}
	flowControllerPattern = regexp.MustCompile(`Controller$`)

	annotationLinePattern = regexp.MustCompile(`@(\w+)`)
	flowMethodPattern     = regexp.MustCompile(`(?s)(?:@\w+(?:\([^)]*\))?\s*)*(?:public|private|protected)?\s+(?:static\s+)?(?:[\w<>\[\],\s]+)\s+(\w+)\s*\((.*?)\)\s*(?:throws\s+[\w,\s]+)?\s*(?:\{|;)`)
	annotationNamePattern = regexp.MustCompile(`@(\w+)(?:\([^)]*\))?`)

	objCallPattern             = regexp.MustCompile(`(\w+)\.(\w+)\s*\(`)
	autowiredTypedFieldPattern = regexp.MustCompile(`(?s)(?:@Autowired|@Inject)(?:\s+private|\s+protected)?\s+([\w<>\[\],\s.]+)\s+(\w+)`)
	ctorInjectionPattern       = regexp.MustCompile(`(?s)(?:public|private|protected)?\s+\w+\s*\(\s*(?:final\s+)?([\w<>\[\],\s.]+)\s+(\w+)`)
	typedFieldPattern          = regexp.MustCompile(`(?s)(?:private|protected|public)?\s+([\w<>\[\],\s.]+)\s+(\w+)(?:\s*=|\s*;)`)
	transactionCallPattern     = regexp.MustCompile(`(?i)(\w+(?:Service|Repository|Dao))\.(\w+(?:Transfer|Transaction|Payment|Deposit|Withdraw|Account|Balance))\s*\(`)

	flowInterfacesPattern = regexp.MustCompile(`implements\s+([\w,\s]+)(?:\{|extends)`)
)

var skippedCallMethods = map[string]bool{
	"toString": true, "equals": true, "hashCode": true, "println": true,
	"print": true, "debug": true, "info": true, "error": true, "warn": true,
}

type methodCall struct {
	Class  string
	Method string
}

type parsedMethod struct {
	Name        string
	Params      string
	ReturnType  string
	Body        string
	Annotations []string
	Calls       []methodCall
}

type parsedClass struct {
	Name        string
	Annotations []string
	Methods     []parsedMethod
	Implements  []string
	Extends     string
	ClassType   string
}

// FlowAnalyzer 从控制器端点出发递归分析服务、仓储方法调用链
type FlowAnalyzer struct {
	workers int
	classes map[string]*parsedClass
}

func NewFlowAnalyzer(workers int) *FlowAnalyzer {
	return &FlowAnalyzer{workers: workers}
}

func (a *FlowAnalyzer) Analyze(repoPath string, endpoints []Endpoint) []EndpointFlow {
	paths := FindJavaFiles(repoPath)
	files := LoadJavaFiles(paths, a.workers)

	a.classes = map[string]*parsedClass{}
	for className, f := range MapClassesToFiles(files) {
		class := a.parseClass(className, f.Content)
		class.ClassType = determineClassType(class)
		a.classes[className] = class
	}

	flows := make([]EndpointFlow, 0, len(endpoints))
	for _, endpoint := range endpoints {
		flow := a.analyzeEndpointFlow(endpoint)
		for _, node := range flow.Flow {
			flattenFlowNode(node, 0, nil)
		}
		flows = append(flows, flow)
	}
	return flows
}

func (a *FlowAnalyzer) analyzeEndpointFlow(endpoint Endpoint) EndpointFlow {
	result := EndpointFlow{
		Controller: endpoint.Controller,
		Endpoint:   endpoint.Path,
		HTTPMethod: endpoint.HTTPMethod,
		Flow:       []*FlowNode{},
	}
	if endpoint.Controller == "" || endpoint.Method == "" {
		return result
	}

	actualController, found := a.resolveClassName(endpoint.Controller)
	if !found {
		klog.V(6).Infof("未找到控制器 %s，跳过流程分析", endpoint.Controller)
		return result
	}

	node := a.analyzeMethodFlow(actualController, endpoint.Method, map[string]bool{})
	if node != nil {
		result.Flow = append(result.Flow, node)
	}
	return result
}

// 精确匹配优先，其次按名称包含关系找相近类
func (a *FlowAnalyzer) resolveClassName(name string) (string, bool) {
	if _, ok := a.classes[name]; ok {
		return name, true
	}
	lower := strings.ToLower(name)
	for candidate := range a.classes {
		candidateLower := strings.ToLower(candidate)
		if strings.Contains(candidateLower, lower) || strings.Contains(lower, candidateLower) {
			return candidate, true
		}
	}
	return name, false
}

func (a *FlowAnalyzer) analyzeMethodFlow(className, methodName string, visited map[string]bool) *FlowNode {
	methodKey := className + "." + methodName
	if visited[methodKey] {
		return &FlowNode{
			ClassName:  className,
			ClassType:  classTypeFromName(className),
			Method:     methodName,
			ReturnType: "void",
			Calls:      []*FlowNode{},
			IsCycle:    true,
		}
	}
	visited[methodKey] = true

	class, ok := a.classes[className]
	if !ok {
		resolved, found := a.resolveClassName(className)
		if !found {
			return &FlowNode{
				ClassName:  className,
				ClassType:  classTypeFromName(className),
				Method:     methodName,
				ReturnType: "void",
				Calls:      []*FlowNode{},
			}
		}
		className = resolved
		class = a.classes[className]
	}

	method := a.findMethod(class, methodName)
	if method == nil {
		return &FlowNode{
			ClassName:  className,
			ClassType:  class.ClassType,
			Method:     methodName,
			ReturnType: "void",
			Calls:      []*FlowNode{},
		}
	}

	calls := []*FlowNode{}
	for _, call := range method.Calls {
		if call.Class == "" || call.Method == "" {
			continue
		}
		if call.Class == className && call.Method == methodName {
			continue
		}
		// 分支之间不共享访问记录，避免误报环
		branchVisited := make(map[string]bool, len(visited))
		for k, v := range visited {
			branchVisited[k] = v
		}
		if nested := a.analyzeMethodFlow(call.Class, call.Method, branchVisited); nested != nil {
			calls = append(calls, nested)
		}
	}

	return &FlowNode{
		ClassName:  className,
		ClassType:  class.ClassType,
		Method:     method.Name,
		ReturnType: method.ReturnType,
		Parameters: method.Params,
		Calls:      calls,
	}
}

func (a *FlowAnalyzer) findMethod(class *parsedClass, methodName string) *parsedMethod {
	for i := range class.Methods {
		if class.Methods[i].Name == methodName {
			return &class.Methods[i]
		}
	}
	// 没有精确匹配时退回到映射注解或相近方法名
	mappingAnnotations := map[string]bool{
		"GetMapping": true, "PostMapping": true, "PutMapping": true,
		"DeleteMapping": true, "RequestMapping": true,
	}
	lower := strings.ToLower(methodName)
	for i := range class.Methods {
		m := &class.Methods[i]
		for _, annotation := range m.Annotations {
			if mappingAnnotations[annotation] {
				return m
			}
		}
		nameLower := strings.ToLower(m.Name)
		if strings.Contains(nameLower, lower) || strings.Contains(lower, nameLower) {
			return m
		}
	}
	return nil
}

func (a *FlowAnalyzer) parseClass(className, content string) *parsedClass {
	return &parsedClass{
		Name:        className,
		Annotations: extractLineAnnotations(content),
		Methods:     a.extractMethods(content, className),
		Implements:  extractFlowInterfaces(content),
		Extends:     extractExtends(content),
	}
}

func extractLineAnnotations(content string) []string {
	var annotations []string
	for _, line := range strings.Split(content, "\n") {
		if m := annotationLinePattern.FindStringSubmatch(line); m != nil {
			annotations = append(annotations, "@"+m[1])
		}
	}
	return annotations
}

func extractFlowInterfaces(content string) []string {
	m := flowInterfacesPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], ",")
	interfaces := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			interfaces = append(interfaces, trimmed)
		}
	}
	return interfaces
}

func (a *FlowAnalyzer) extractMethods(content, className string) []parsedMethod {
	var methods []parsedMethod
	for _, idx := range flowMethodPattern.FindAllStringSubmatchIndex(content, -1) {
		methodName := content[idx[2]:idx[3]]
		params := content[idx[4]:idx[5]]
		if methodName == className {
			continue
		}

		returnType := extractReturnType(content, idx[0], methodName)
		body := extractBodyAfter(content, idx[0])
		annotations := extractMethodAnnotations(content, idx[0])

		var calls []methodCall
		if body != "" {
			calls = a.extractMethodCalls(body)
		}

		methods = append(methods, parsedMethod{
			Name:        methodName,
			Params:      params,
			ReturnType:  returnType,
			Body:        body,
			Annotations: annotations,
			Calls:       calls,
		})
	}
	return methods
}

func extractReturnType(content string, matchStart int, methodName string) string {
	lineStart := strings.LastIndex(content[:matchStart], "\n")
	if lineStart < 0 {
		return "void"
	}
	methodLine := content[lineStart:matchStart]
	pattern := regexp.MustCompile(`([\w<>\[\],\s]+)\s+` + regexp.QuoteMeta(methodName))
	if m := pattern.FindStringSubmatch(methodLine); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "void"
}

func extractBodyAfter(content string, matchStart int) string {
	start := strings.Index(content[matchStart:], "{")
	if start < 0 {
		return ""
	}
	start += matchStart
	braceCount := 1
	for i := start + 1; i < len(content); i++ {
		switch content[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

func extractMethodAnnotations(content string, matchStart int) []string {
	annotationStart := strings.LastIndex(content[:matchStart], "@")
	if annotationStart <= 0 {
		return nil
	}
	var annotations []string
	for _, m := range annotationNamePattern.FindAllStringSubmatch(content[annotationStart:matchStart], -1) {
		annotations = append(annotations, m[1])
	}
	return annotations
}

// 通过注入字段和命名约定推断被调用方法所在的类
func (a *FlowAnalyzer) extractMethodCalls(body string) []methodCall {
	fields := map[string]string{}
	for _, m := range autowiredTypedFieldPattern.FindAllStringSubmatch(body, -1) {
		fields[strings.TrimSpace(m[2])] = strings.TrimSpace(m[1])
	}
	for _, m := range ctorInjectionPattern.FindAllStringSubmatch(body, -1) {
		fieldType := strings.TrimSpace(m[1])
		if strings.Contains(fieldType, "Service") || strings.Contains(fieldType, "Repository") || strings.Contains(fieldType, "Dao") {
			fields[strings.TrimSpace(m[2])] = fieldType
		}
	}
	for _, m := range typedFieldPattern.FindAllStringSubmatch(body, -1) {
		fieldType := strings.TrimSpace(m[1])
		if strings.Contains(fieldType, "Service") || strings.Contains(fieldType, "Repository") || strings.Contains(fieldType, "Dao") {
			fields[strings.TrimSpace(m[2])] = fieldType
		}
	}

	var calls []methodCall
	for _, m := range objCallPattern.FindAllStringSubmatch(body, -1) {
		obj := m[1]
		method := m[2]
		if skippedCallMethods[method] {
			continue
		}

		objClass := ""
		if fieldType, ok := fields[obj]; ok {
			objClass = fieldType
		} else if strings.HasSuffix(obj, "Service") || strings.Contains(obj, "service") {
			objClass = capitalize(obj)
		} else {
			objLower := strings.ToLower(obj)
			if strings.Contains(objLower, "repository") || strings.Contains(objLower, "repo") || strings.Contains(objLower, "dao") {
				objClass = capitalize(obj)
			}
		}
		if objClass != "" {
			calls = append(calls, methodCall{Class: objClass, Method: method})
		}
	}

	// 交易相关调用在金融类项目中尤为关键，单独匹配一轮
	bodyLower := strings.ToLower(body)
	for _, keyword := range []string{"transaction", "transfer", "payment", "balance", "account"} {
		if strings.Contains(bodyLower, keyword) {
			for _, m := range transactionCallPattern.FindAllStringSubmatch(body, -1) {
				calls = append(calls, methodCall{Class: capitalize(m[1]), Method: m[2]})
			}
			break
		}
	}

	seen := map[string]bool{}
	unique := calls[:0]
	for _, call := range calls {
		key := call.Class + "." + call.Method
		if !seen[key] {
			seen[key] = true
			unique = append(unique, call)
		}
	}
	return unique
}

func capitalize(s string) string {
	if s == "" || (s[0] >= 'A' && s[0] <= 'Z') {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func determineClassType(class *parsedClass) string {
	for _, pattern := range flowServicePatterns {
		if matchAny(pattern, class.Annotations) || pattern.MatchString(class.Name) {
			return "service"
		}
	}
	for _, pattern := range flowRepositoryPatterns {
		if matchAny(pattern, class.Annotations) || pattern.MatchString(class.Name) || matchAny(pattern, class.Implements) {
			return "repository"
		}
	}
	if matchAny(flowControllerPattern, class.Annotations) || flowControllerPattern.MatchString(class.Name) {
		return "controller"
	}
	return "unknown"
}

func matchAny(pattern *regexp.Regexp, values []string) bool {
	for _, value := range values {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

func classTypeFromName(className string) string {
	switch {
	case strings.Contains(className, "Controller"):
		return "controller"
	case strings.Contains(className, "Service") || strings.Contains(className, "Manager"):
		return "service"
	case strings.Contains(className, "Repository") || strings.Contains(className, "Dao") || strings.Contains(className, "Repo"):
		return "repository"
	case strings.Contains(className, "Validator"):
		return "validator"
	default:
		return "unknown"
	}
}

// 补充层级和路径信息，便于前端按树状展示
func flattenFlowNode(node *FlowNode, level int, parentPath []string) {
	node.Level = level
	node.Path = append(append([]string{}, parentPath...), node.ClassName+"."+node.Method)
	if node.ClassType == "" {
		node.ClassType = classTypeFromName(node.ClassName)
	}
	if node.ReturnType == "" {
		node.ReturnType = "void"
	}
	for _, call := range node.Calls {
		flattenFlowNode(call, level+1, node.Path)
	}
}
