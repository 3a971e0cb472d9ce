package analyzer

// ServiceCall 控制器方法中形如 xxxService.method(...) 的调用
type ServiceCall struct {
	Service string `json:"service"`
	Method  string `json:"method"`
}

type RepositoryCall struct {
	Repository string `json:"repository"`
	Method     string `json:"method"`
}

type Endpoint struct {
	Controller     string        `json:"controller"`
	Method         string        `json:"method"`
	HTTPMethod     string        `json:"http_method"`
	Path           string        `json:"path"`
	Implementation string        `json:"implementation,omitempty"`
	ServiceCalls   []ServiceCall `json:"service_calls"`
	Services       []string      `json:"services,omitempty"`
	Repositories   []string      `json:"repositories,omitempty"`
}

type ServiceMethod struct {
	Name            string           `json:"name"`
	Implementation  string           `json:"implementation,omitempty"`
	RepositoryCalls []RepositoryCall `json:"repository_calls"`
}

type ServiceInfo struct {
	Methods  []ServiceMethod `json:"methods"`
	FilePath string          `json:"file_path"`
}

type RepositoryMethod struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type,omitempty"`
}

type RepositoryInfo struct {
	Methods    []RepositoryMethod `json:"methods"`
	EntityType string             `json:"entity_type,omitempty"`
	FilePath   string             `json:"file_path"`
}

// Architecture 组件间依赖关系，控制器到服务、服务到仓储
type Architecture struct {
	ControllerService map[string][]string `json:"controller_service"`
	ServiceRepository map[string][]string `json:"service_repository"`
}

// ArchitectureData 端点解析的完整产物
type ArchitectureData struct {
	Endpoints    []Endpoint                 `json:"endpoints"`
	Services     map[string]*ServiceInfo    `json:"services"`
	Repositories map[string]*RepositoryInfo `json:"repositories"`
	Architecture Architecture               `json:"architecture"`
}

type EntityField struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Annotations []string `json:"annotations"`
}

type Entity struct {
	Name           string            `json:"name"`
	BusinessName   string            `json:"business_name,omitempty"`
	Package        string            `json:"package"`
	Annotations    []string          `json:"annotations"`
	Fields         []EntityField     `json:"fields"`
	ColumnMappings map[string]string `json:"column_mappings"`
	Implements     []string          `json:"implements"`
	Extends        string            `json:"extends,omitempty"`
	FilePath       string            `json:"file_path"`
}

type EntityResult struct {
	Entities map[string]*Entity `json:"entities"`
	Count    int                `json:"count"`
}

type ProjectInfo struct {
	Status            string `json:"status"`
	Message           string `json:"message,omitempty"`
	IsMaven           bool   `json:"is_maven"`
	IsGradle          bool   `json:"is_gradle"`
	IsSpringBoot      bool   `json:"is_spring_boot"`
	BuildSystem       string `json:"build_system"`
	ProjectType       string `json:"project_type"`
	SpringBootVersion string `json:"spring_boot_version,omitempty"`
}

type FlowNode struct {
	ClassName  string      `json:"class_name"`
	ClassType  string      `json:"class_type"`
	Method     string      `json:"method"`
	ReturnType string      `json:"return_type"`
	Calls      []*FlowNode `json:"calls"`
	Level      int         `json:"level"`
	Path       []string    `json:"path"`
	IsCycle    bool        `json:"is_cycle,omitempty"`
	Parameters string      `json:"parameters,omitempty"`
}

type EndpointFlow struct {
	Controller string      `json:"controller"`
	Endpoint   string      `json:"endpoint"`
	HTTPMethod string      `json:"http_method"`
	Flow       []*FlowNode `json:"flow"`
}

type TableMapping struct {
	Entity    string   `json:"entity"`
	UsedBy    []string `json:"used_by"`
	Relations []string `json:"relations"`
}

type SchemaOverview struct {
	Tables   map[string]*TableMapping `json:"tables"`
	Entities map[string]*Entity       `json:"entities"`
}
