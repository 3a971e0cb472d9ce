package diagram

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
)

var implServicePattern = regexp.MustCompile(`(\w+)Service\.`)

// Interaction 按端点生成时序图，展示控制器、服务、仓储之间的调用
func (g *Generator) Interaction(endpoints []analyzer.Endpoint) Result {
	puml := []string{"@startuml", "skinparam sequenceArrowThickness 2", "skinparam roundcorner 5"}

	participants := map[string]bool{}
	controllers, controllerOrder := groupByController(endpoints)
	for _, endpoint := range endpoints {
		participants[endpoint.Controller] = true
		if m := implServicePattern.FindStringSubmatch(endpoint.Implementation); m != nil {
			participants[m[1]+"Service"] = true
			participants[m[1]+"Repository"] = true
		}
		for _, service := range endpoint.Services {
			participants[service] = true
		}
		for _, repo := range endpoint.Repositories {
			participants[repo] = true
		}
		for _, call := range endpoint.ServiceCalls {
			participants[call.Service] = true
		}
	}

	puml = append(puml, "participant Client")
	names := make([]string, 0, len(participants))
	for name := range participants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		puml = append(puml, "participant "+name)
	}

	for _, controller := range controllerOrder {
		for _, endpoint := range controllers[controller] {
			puml = append(puml, "", fmt.Sprintf("== %s %s ==", endpoint.HTTPMethod, endpoint.Path))
			puml = append(puml, fmt.Sprintf("Client -> %s: %s %s", controller, endpoint.HTTPMethod, endpoint.Path))

			switch {
			case len(endpoint.ServiceCalls) > 0:
				for _, call := range endpoint.ServiceCalls {
					puml = append(puml, fmt.Sprintf("%s -> %s: %s()", controller, call.Service, call.Method))
					for _, repo := range endpoint.Repositories {
						repoMethod := call.Method
						if strings.HasPrefix(call.Method, "get") {
							repoMethod = "findBy" + strings.TrimPrefix(call.Method, "get")
						}
						puml = append(puml, fmt.Sprintf("%s -> %s: %s()", call.Service, repo, repoMethod))
						puml = append(puml, fmt.Sprintf("%s --> %s: returns data", repo, call.Service))
					}
					puml = append(puml, fmt.Sprintf("%s --> %s: returns result", call.Service, controller))
				}
			case len(endpoint.Services) > 0:
				for _, service := range endpoint.Services {
					puml = append(puml, fmt.Sprintf("%s -> %s: %s()", controller, service, endpoint.Method))
					for _, repo := range endpoint.Repositories {
						puml = append(puml, fmt.Sprintf("%s -> %s: findData()", service, repo))
						puml = append(puml, fmt.Sprintf("%s --> %s: returns data", repo, service))
					}
					puml = append(puml, fmt.Sprintf("%s --> %s: returns result", service, controller))
				}
			}

			puml = append(puml, fmt.Sprintf("%s --> Client: HTTP Response", controller))
		}
	}

	puml = append(puml, "@enduml")
	return g.finalize("interaction", strings.Join(puml, "\n"))
}

// 业务域关键词分桶，挑代表性端点画综合时序图
var interactionDomains = []struct {
	name     string
	keywords []string
}{
	{"Account Management", []string{"account", "customer", "card"}},
	{"Transaction Processing", []string{"transaction", "deposit", "withdraw", "transfer"}},
	{"Branch Operations", []string{"branch", "employee"}},
	{"Customer Service", []string{"issue", "complaint", "pending-issues", "issue-fix"}},
	{"Loan Services", []string{"loan", "payment-loan", "approve-loan", "bank-loan", "p2p-loan"}},
}

// ComprehensiveInteraction 全系统时序图，含数据库交互
func (g *Generator) ComprehensiveInteraction(data *analyzer.ArchitectureData, entities *analyzer.EntityResult) Result {
	puml := []string{
		"@startuml",
		"skinparam sequenceArrowThickness 2",
		"skinparam roundcorner 5",
		"skinparam maxMessageSize 200",
		"",
		"actor Client",
	}

	_, controllerOrder := groupByController(data.Endpoints)
	serviceNames := sortedKeys(data.Services)
	repoNames := sortedKeys(data.Repositories)

	for _, controller := range controllerOrder {
		puml = append(puml, fmt.Sprintf("participant %q as %s #LightYellow", controller, controller))
	}
	for _, service := range serviceNames {
		puml = append(puml, fmt.Sprintf("participant %q as %s #LightBlue", service, service))
	}
	for _, repo := range repoNames {
		puml = append(puml, fmt.Sprintf("participant %q as %s #LightGreen", repo, repo))
	}
	puml = append(puml, "database Database", "")

	entityNames := sortedEntityNames(entities)

	for _, domain := range interactionDomains {
		var domainEndpoints []analyzer.Endpoint
		for _, endpoint := range data.Endpoints {
			path := strings.ToLower(endpoint.Path)
			method := strings.ToLower(endpoint.Method)
			for _, keyword := range domain.keywords {
				if strings.Contains(path, keyword) || strings.Contains(method, keyword) {
					domainEndpoints = append(domainEndpoints, endpoint)
					break
				}
			}
		}
		if len(domainEndpoints) == 0 {
			continue
		}
		if len(domainEndpoints) > 2 {
			domainEndpoints = domainEndpoints[:2]
		}

		puml = append(puml, "", "group "+domain.name)
		for _, endpoint := range domainEndpoints {
			puml = append(puml, "", fmt.Sprintf("== %s %s ==", endpoint.HTTPMethod, endpoint.Path))
			puml = append(puml, fmt.Sprintf("Client -> %s: %s()", endpoint.Controller, endpoint.Method))

			for _, call := range endpoint.ServiceCalls {
				puml = append(puml, fmt.Sprintf("%s -> %s: %s()", endpoint.Controller, call.Service, call.Method))
				for _, repo := range data.Architecture.ServiceRepository[call.Service] {
					entityType := ""
					for _, name := range entityNames {
						if strings.Contains(strings.ToLower(repo), strings.ToLower(name)) {
							entityType = name
							break
						}
					}
					puml = append(puml, fmt.Sprintf("%s -> %s: %s()", call.Service, repo, repoOperation(call.Method)))
					if entityType != "" {
						puml = append(puml, fmt.Sprintf("%s -> Database: SQL [entity: %s]", repo, entityType))
					} else {
						puml = append(puml, fmt.Sprintf("%s -> Database: SQL operation", repo))
					}
					puml = append(puml, fmt.Sprintf("Database --> %s: data", repo))
					puml = append(puml, fmt.Sprintf("%s --> %s: returns data", repo, call.Service))
				}
				puml = append(puml, fmt.Sprintf("%s --> %s: returns result", call.Service, endpoint.Controller))
			}
			if len(endpoint.ServiceCalls) == 0 {
				puml = append(puml, fmt.Sprintf("%s -> %s: process request", endpoint.Controller, endpoint.Controller))
			}

			puml = append(puml, fmt.Sprintf("%s --> Client: HTTP %s Response", endpoint.Controller, endpoint.HTTPMethod))
		}
		puml = append(puml, "end")
	}

	puml = append(puml, "", "@enduml")
	return g.finalize("comprehensive-interaction", strings.Join(puml, "\n"))
}
