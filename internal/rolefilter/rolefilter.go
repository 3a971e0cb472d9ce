package rolefilter

import (
	"strings"
	"unicode"

	"github.com/codedocgen/backend/internal/analyzer"
	"k8s.io/klog/v2"
)

const (
	RoleDeveloper    = "developer"
	RoleArchitect    = "architect"
	RoleProductOwner = "product_owner"
	RoleQA           = "qa"
)

// rolePriorities 各角色对文档分区的展示优先级，数值越小越靠前
var rolePriorities = map[string]map[string]int{
	RoleDeveloper: {
		"endpoints": 1,
		"flows":     1,
		"swagger":   1,
		"entities":  2,
		"features":  3,
		"diagrams":  2,
	},
	RoleArchitect: {
		"diagrams":  1,
		"flows":     1,
		"entities":  1,
		"endpoints": 2,
		"swagger":   3,
		"features":  4,
	},
	RoleProductOwner: {
		"features":  1,
		"endpoints": 2,
		"swagger":   3,
		"diagrams":  2,
		"entities":  4,
		"flows":     4,
	},
	RoleQA: {
		"features":  1,
		"endpoints": 1,
		"swagger":   2,
		"flows":     3,
		"entities":  4,
		"diagrams":  3,
	},
}

// RoleFilter 按用户角色裁剪文档内容
type RoleFilter struct{}

func NewRoleFilter() *RoleFilter {
	return &RoleFilter{}
}

// Normalize 未知角色回退到 developer
func (f *RoleFilter) Normalize(role string) string {
	if _, ok := rolePriorities[role]; !ok {
		klog.Warningf("未知角色 %s，按 developer 处理", role)
		return RoleDeveloper
	}
	return role
}

// FilterContent 在内容上附加分区优先级与角色元信息
func (f *RoleFilter) FilterContent(content map[string]any, role string) map[string]any {
	role = f.Normalize(role)
	priorities := rolePriorities[role]

	filtered := make(map[string]any, len(content)+len(priorities)+2)
	for k, v := range content {
		filtered[k] = v
	}
	for section, priority := range priorities {
		if _, ok := filtered[section]; ok {
			filtered[section+"_priority"] = priority
		}
	}
	filtered["role"] = role
	filtered["view_priorities"] = priorities
	return filtered
}

// EndpointView 端点数据加上角色相关的展示开关
type EndpointView struct {
	analyzer.Endpoint
	ShowDetails     bool `json:"show_details"`
	ShowParams      bool `json:"show_params"`
	ShowFlows       bool `json:"show_flows"`
	LinkToTestCases bool `json:"link_to_test_cases,omitempty"`
}

// FilterEndpoints 不删减端点本身，只根据角色标注展示粒度
func (f *RoleFilter) FilterEndpoints(endpoints []analyzer.Endpoint, role string) []EndpointView {
	role = f.Normalize(role)

	views := make([]EndpointView, 0, len(endpoints))
	for _, endpoint := range endpoints {
		view := EndpointView{Endpoint: endpoint}
		switch role {
		case RoleDeveloper:
			view.ShowDetails = true
			view.ShowParams = true
			view.ShowFlows = true
		case RoleArchitect:
			view.ShowDetails = true
			view.ShowFlows = true
		case RoleProductOwner:
		case RoleQA:
			view.ShowDetails = true
			view.ShowParams = true
			view.LinkToTestCases = true
		}
		views = append(views, view)
	}
	return views
}

// EntitiesView 实体数据加上角色相关的展示开关
type EntitiesView struct {
	Entities          map[string]*analyzer.Entity `json:"entities"`
	Count             int                         `json:"count"`
	ShowFieldDetails  bool                        `json:"show_field_details"`
	ShowAnnotations   bool                        `json:"show_annotations"`
	ShowRelationships bool                        `json:"show_relationships"`
}

func (f *RoleFilter) FilterEntities(result *analyzer.EntityResult, role string) *EntitiesView {
	role = f.Normalize(role)

	view := &EntitiesView{Entities: result.Entities, Count: result.Count}
	switch role {
	case RoleDeveloper:
		view.ShowFieldDetails = true
		view.ShowAnnotations = true
		view.ShowRelationships = true
	case RoleArchitect:
		view.ShowRelationships = true
	case RoleProductOwner:
		// 产品角色用业务化命名展示实体
		simplified := make(map[string]*analyzer.Entity, len(result.Entities))
		for name, entity := range result.Entities {
			clone := *entity
			clone.BusinessName = BusinessName(name)
			simplified[name] = &clone
		}
		view.Entities = simplified
	case RoleQA:
		view.ShowFieldDetails = true
		view.ShowRelationships = true
	}
	return view
}

// FilterFlows 按角色裁剪调用链:
// developer/architect 看全量, product_owner 只看控制器到服务的第一层,
// qa 看完整链路但隐去参数与返回类型细节。
func (f *RoleFilter) FilterFlows(flows []analyzer.EndpointFlow, role string) []analyzer.EndpointFlow {
	role = f.Normalize(role)
	if role == RoleDeveloper || role == RoleArchitect {
		return flows
	}

	filtered := make([]analyzer.EndpointFlow, 0, len(flows))
	for _, flow := range flows {
		out := analyzer.EndpointFlow{
			Controller: flow.Controller,
			Endpoint:   flow.Endpoint,
			HTTPMethod: flow.HTTPMethod,
			Flow:       []*analyzer.FlowNode{},
		}
		for _, entry := range flow.Flow {
			switch role {
			case RoleProductOwner:
				if entry.ClassType != "controller" && entry.ClassType != "service" {
					continue
				}
				out.Flow = append(out.Flow, &analyzer.FlowNode{
					ClassName:  entry.ClassName,
					ClassType:  entry.ClassType,
					Method:     entry.Method,
					Parameters: entry.Parameters,
					ReturnType: entry.ReturnType,
					Calls:      []*analyzer.FlowNode{},
				})
			case RoleQA:
				clone := *entry
				clone.Parameters = ""
				clone.ReturnType = "simplified"
				out.Flow = append(out.Flow, &clone)
			}
		}
		filtered = append(filtered, out)
	}
	return filtered
}

// BusinessTable 产品角色视角下的表信息
type BusinessTable struct {
	BusinessName string   `json:"business_name"`
	UsedBy       []string `json:"used_by"`
	Relations    []string `json:"relations"`
}

// SchemaView 按角色裁剪后的库表概览，Tables 的取值形态随角色变化
type SchemaView struct {
	Tables   map[string]any              `json:"tables"`
	Entities map[string]*analyzer.Entity `json:"entities"`
}

func (f *RoleFilter) FilterSchema(overview *analyzer.SchemaOverview, role string) *SchemaView {
	role = f.Normalize(role)

	view := &SchemaView{Tables: map[string]any{}, Entities: overview.Entities}
	switch role {
	case RoleProductOwner:
		for tableName, table := range overview.Tables {
			relations := make([]string, 0, len(table.Relations))
			for _, rel := range table.Relations {
				relations = append(relations, strings.ReplaceAll(rel, "_", " "))
			}
			view.Tables[tableName] = &BusinessTable{
				BusinessName: BusinessName(strings.TrimSuffix(table.Entity, "Entity")),
				UsedBy:       table.UsedBy,
				Relations:    relations,
			}
		}
		view.Entities = map[string]*analyzer.Entity{}
	case RoleQA:
		// 测试角色只关心被端点用到的表
		for tableName, table := range overview.Tables {
			if len(table.UsedBy) > 0 {
				view.Tables[tableName] = table
			}
		}
		view.Entities = map[string]*analyzer.Entity{}
	case RoleArchitect:
		for tableName, table := range overview.Tables {
			view.Tables[tableName] = table
		}
		view.Entities = make(map[string]*analyzer.Entity, len(overview.Entities))
		for name, entity := range overview.Entities {
			clone := *entity
			clone.Fields = nil
			view.Entities[name] = &clone
		}
	default:
		for tableName, table := range overview.Tables {
			view.Tables[tableName] = table
		}
	}
	return view
}

// BusinessName 在大写字母前补空格，把驼峰类名转成可读名称
func BusinessName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
