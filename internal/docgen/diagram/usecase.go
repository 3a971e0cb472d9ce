package diagram

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
	"github.com/codedocgen/backend/internal/docgen/feature"
)

var (
	actorTitlePattern = regexp.MustCompile(`^([A-Za-z]+)\s+(can|should|must|will)\s+`)
	useCaseIDPattern  = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// UseCase 由特性文件概要生成用例图
func (g *Generator) UseCase(features []feature.Summary) Result {
	puml := []string{"@startuml", "left to right direction", "skinparam packageStyle rectangle"}

	actors := map[string]bool{"User": true, "Admin": true, "System": true}
	for _, f := range features {
		for _, scenario := range f.Scenarios {
			if m := actorTitlePattern.FindStringSubmatch(scenario.Title); m != nil {
				actors[m[1]] = true
			}
		}
	}

	actorNames := make([]string, 0, len(actors))
	for actor := range actors {
		actorNames = append(actorNames, actor)
	}
	sort.Strings(actorNames)
	for _, actor := range actorNames {
		puml = append(puml, "actor "+actor)
	}

	for _, f := range features {
		puml = append(puml, fmt.Sprintf("rectangle %q {", f.Title))
		for _, scenario := range f.Scenarios {
			useCaseName := strings.ReplaceAll(scenario.Title, `"`, "'")
			useCaseID := strings.ToLower(useCaseIDPattern.ReplaceAllString(scenario.Title, "_"))
			puml = append(puml, fmt.Sprintf("  usecase %q as %s", useCaseName, useCaseID))

			linked := false
			for _, actor := range actorNames {
				if strings.Contains(strings.ToLower(scenario.Title), strings.ToLower(actor)) {
					puml = append(puml, fmt.Sprintf("  %s -- %s", actor, useCaseID))
					linked = true
					break
				}
			}
			if !linked {
				puml = append(puml, fmt.Sprintf("  User -- %s", useCaseID))
			}
		}
		puml = append(puml, "}")
	}

	puml = append(puml, "@enduml")
	return g.finalize("use-case", strings.Join(puml, "\n"))
}

// ComprehensiveUseCase 分层用例图，从接入层一路画到数据库实体
func (g *Generator) ComprehensiveUseCase(data *analyzer.ArchitectureData, entities *analyzer.EntityResult) Result {
	if len(data.Endpoints) == 0 {
		return g.finalize("comprehensive-use-case", "@startuml\nnote \"No endpoints found in the repository.\"\n@enduml")
	}

	puml := []string{
		"@startuml",
		"skinparam usecase {",
		"  BackgroundColor LightBlue",
		"  BorderColor DarkBlue",
		"  ArrowColor Navy",
		"}",
		"skinparam packageStyle rectangle",
		"skinparam linetype ortho",
		"left to right direction",
		"",
		`actor "Client" as Client`,
		`actor "Administrator" as Admin`,
		`actor "System" as System`,
		"",
		`rectangle "Application System" {`,
	}

	controllers, controllerOrder := groupByController(data.Endpoints)

	puml = append(puml, `  package "API Layer" {`)
	for _, controller := range controllerOrder {
		puml = append(puml, fmt.Sprintf("    package %q {", controller))
		for _, endpoint := range controllers[controller] {
			label := fmt.Sprintf("%s\\n<size:9>%s %s</size>", endpoint.Method, endpoint.HTTPMethod, endpoint.Path)
			puml = append(puml, fmt.Sprintf("      usecase %q as %s_%s", label, controller, endpoint.Method))
		}
		puml = append(puml, "    }")
	}
	puml = append(puml, "  }")

	puml = append(puml, `  package "Business Layer" {`)
	for _, serviceName := range sortedKeys(data.Services) {
		puml = append(puml, fmt.Sprintf("    package %q {", serviceName))
		for _, method := range data.Services[serviceName].Methods {
			puml = append(puml, fmt.Sprintf("      usecase %q as %s_%s", method.Name, serviceName, method.Name))
		}
		puml = append(puml, "    }")
	}
	puml = append(puml, "  }")

	repoOperations := []string{"save", "find", "update", "delete"}
	puml = append(puml, `  package "Data Access Layer" {`)
	for _, repoName := range sortedKeys(data.Repositories) {
		puml = append(puml, fmt.Sprintf("    package %q {", repoName))
		for _, op := range repoOperations {
			puml = append(puml, fmt.Sprintf("      usecase %q as %s_%s", op, repoName, op))
		}
		puml = append(puml, "    }")
	}
	puml = append(puml, "  }")
	puml = append(puml, "}")

	entityNames := sortedEntityNames(entities)
	puml = append(puml, `database "Database" {`)
	for _, name := range entityNames {
		puml = append(puml, fmt.Sprintf("  usecase %q as Entity_%s", name, name))
	}
	puml = append(puml, "}", "")

	// 参与者到端点的连线按命名习惯分配
	for _, controller := range controllerOrder {
		for _, endpoint := range controllers[controller] {
			id := controller + "_" + endpoint.Method
			method := strings.ToLower(endpoint.Method)
			switch {
			case strings.Contains(strings.ToLower(controller), "admin") || strings.Contains(method, "manage"):
				puml = append(puml, "Admin --> "+id)
			case strings.Contains(method, "schedule") || strings.Contains(method, "batch") || strings.Contains(method, "job"):
				puml = append(puml, "System --> "+id)
			default:
				puml = append(puml, "Client --> "+id)
			}
		}
	}

	for _, endpoint := range data.Endpoints {
		controllerID := endpoint.Controller + "_" + endpoint.Method
		for _, call := range endpoint.ServiceCalls {
			puml = append(puml, fmt.Sprintf("%s ..> %s_%s : <<calls>>", controllerID, call.Service, call.Method))
		}
	}

	for _, serviceName := range sortedKeys(data.Services) {
		for _, repoName := range data.Architecture.ServiceRepository[serviceName] {
			for _, endpoint := range data.Endpoints {
				for _, call := range endpoint.ServiceCalls {
					if call.Service != serviceName {
						continue
					}
					puml = append(puml, fmt.Sprintf("%s_%s ..> %s_%s : <<uses>>",
						serviceName, call.Method, repoName, repoOperation(call.Method)))
				}
			}
		}
	}

	for _, repoName := range sortedKeys(data.Repositories) {
		for _, entityName := range entityNames {
			if !strings.Contains(strings.ReplaceAll(strings.ToLower(repoName), "repository", ""), strings.ToLower(entityName)) {
				continue
			}
			for _, op := range repoOperations {
				puml = append(puml, fmt.Sprintf("%s_%s ..> Entity_%s : <<accesses>>", repoName, op, entityName))
			}
		}
	}

	puml = append(puml,
		"",
		"legend right",
		"  Multi-Level Flow Diagram",
		"  Level 1: Client/User to API Endpoints",
		"  Level 2: API Endpoints to Service Methods",
		"  Level 3: Service Methods to Repository Methods",
		"  Level 4: Repository Methods to Database Entities",
		"endlegend",
		"@enduml",
	)

	return g.finalize("comprehensive-use-case", strings.Join(puml, "\n"))
}

// 服务方法名推断对应的仓储操作
func repoOperation(serviceMethod string) string {
	switch {
	case strings.HasPrefix(serviceMethod, "get"), strings.HasPrefix(serviceMethod, "find"):
		return "find"
	case strings.HasPrefix(serviceMethod, "save"), strings.HasPrefix(serviceMethod, "create"):
		return "save"
	case strings.HasPrefix(serviceMethod, "update"):
		return "update"
	case strings.HasPrefix(serviceMethod, "delete"), strings.HasPrefix(serviceMethod, "remove"):
		return "delete"
	default:
		return "find"
	}
}

func groupByController(endpoints []analyzer.Endpoint) (map[string][]analyzer.Endpoint, []string) {
	controllers := map[string][]analyzer.Endpoint{}
	var order []string
	for _, endpoint := range endpoints {
		if _, ok := controllers[endpoint.Controller]; !ok {
			order = append(order, endpoint.Controller)
		}
		controllers[endpoint.Controller] = append(controllers[endpoint.Controller], endpoint)
	}
	sort.Strings(order)
	return controllers, order
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
