package diagram

import (
	"fmt"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
)

// ClassDiagram 架构级类图，按 Models/Repositories/Services/Controllers 分包
func (g *Generator) ClassDiagram(data *analyzer.ArchitectureData, entities *analyzer.EntityResult) Result {
	puml := []string{
		"@startuml",
		"skinparam classAttributeIconSize 0",
		"skinparam classBackgroundColor LightCyan",
		"skinparam stereotypeCBackgroundColor Yellow",
		"skinparam packageBackgroundColor WhiteSmoke",
		"skinparam linetype ortho",
		"",
	}

	entityNames := sortedEntityNames(entities)
	serviceNames := sortedKeys(data.Services)
	repoNames := sortedKeys(data.Repositories)
	controllers, controllerOrder := groupByController(data.Endpoints)

	if len(entityNames) > 0 {
		puml = append(puml, `package "Models" {`)
		for _, name := range entityNames {
			puml = append(puml, fmt.Sprintf("  class %s <<Entity>> {", name))
			for _, field := range entities.Entities[name].Fields {
				puml = append(puml, fmt.Sprintf("    %s %s", simplifyType(field.Type), field.Name))
			}
			puml = append(puml, "  }")
		}
		puml = append(puml, "}", "")
	}

	if len(repoNames) > 0 {
		puml = append(puml, `package "Repositories" {`)
		for _, name := range repoNames {
			puml = append(puml, fmt.Sprintf("  interface %s <<Repository>> {", name))
			for _, method := range data.Repositories[name].Methods {
				entityType := method.EntityType
				if entityType == "" {
					entityType = "Object"
				}
				puml = append(puml, fmt.Sprintf("    %s %s()", entityType, method.Name))
			}
			puml = append(puml, "  }")
		}
		puml = append(puml, "}", "")
	}

	if len(serviceNames) > 0 {
		puml = append(puml, `package "Services" {`)
		for _, name := range serviceNames {
			puml = append(puml, fmt.Sprintf("  class %s <<Service>> {", name))
			for _, method := range data.Services[name].Methods {
				puml = append(puml, fmt.Sprintf("    void %s()", method.Name))
			}
			puml = append(puml, "  }")
		}
		puml = append(puml, "}", "")
	}

	if len(controllerOrder) > 0 {
		puml = append(puml, `package "Controllers" {`)
		for _, name := range controllerOrder {
			puml = append(puml, fmt.Sprintf("  class %s <<Controller>> {", name))
			for _, endpoint := range controllers[name] {
				puml = append(puml, fmt.Sprintf("    @%s(%q) %s()", endpoint.HTTPMethod, endpoint.Path, endpoint.Method))
			}
			puml = append(puml, "  }")
		}
		puml = append(puml, "}", "")
	}

	puml = append(puml, "' Entity relationships")
	for _, name := range entityNames {
		for _, field := range entities.Entities[name].Fields {
			if _, ok := entities.Entities[field.Type]; ok {
				puml = append(puml, fmt.Sprintf("%s --o %s : contains >", name, field.Type))
			}
		}
	}

	puml = append(puml, "' Repository-Entity relationships")
	for _, repoName := range repoNames {
		for _, entityName := range entityNames {
			if strings.Contains(repoName, entityName) {
				puml = append(puml, fmt.Sprintf("%s ..> %s : manages >", repoName, entityName))
			}
		}
	}

	puml = append(puml, "' Service-Repository relationships")
	linkedServices := map[string]bool{}
	for _, serviceName := range sortedKeys(data.Architecture.ServiceRepository) {
		linkedServices[serviceName] = true
		for _, repoName := range data.Architecture.ServiceRepository[serviceName] {
			puml = append(puml, fmt.Sprintf("%s --> %s : uses >", serviceName, repoName))
		}
	}
	for _, serviceName := range serviceNames {
		if linkedServices[serviceName] {
			continue
		}
		for _, repoName := range repoNames {
			if strings.Contains(serviceName, strings.TrimSuffix(repoName, "Repository")) {
				puml = append(puml, fmt.Sprintf("%s --> %s : likely uses >", serviceName, repoName))
			}
		}
	}

	puml = append(puml, "' Controller-Service relationships")
	linkedControllers := map[string]bool{}
	for _, controller := range sortedKeys(data.Architecture.ControllerService) {
		linkedControllers[controller] = true
		for _, service := range data.Architecture.ControllerService[controller] {
			puml = append(puml, fmt.Sprintf("%s --> %s : calls >", controller, service))
		}
	}
	for _, controller := range controllerOrder {
		if linkedControllers[controller] {
			continue
		}
		inferred := strings.Replace(controller, "Controller", "Service", 1)
		if _, ok := data.Services[inferred]; ok {
			puml = append(puml, fmt.Sprintf("%s --> %s : likely calls >", controller, inferred))
		}
	}

	puml = append(puml,
		"legend right",
		"  Entity: Database entity/model class",
		"  Repository: Data access interface",
		"  Service: Business logic component",
		"  Controller: REST endpoint handler",
		"endlegend",
		"@enduml",
	)

	return g.finalize("class", strings.Join(puml, "\n"))
}
