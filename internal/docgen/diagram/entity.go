package diagram

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
)

var (
	relationPattern = regexp.MustCompile(`@(OneToMany|ManyToOne|OneToOne|ManyToMany)`)
	genericPattern  = regexp.MustCompile(`(?:List|Set)<([^>]+)>`)
)

// EntityDiagram 由实体数据生成类图或 ER 图
func (g *Generator) EntityDiagram(entities *analyzer.EntityResult, diagramType string) Result {
	switch diagramType {
	case "er":
		return g.finalize("er", erDiagramSource(entities))
	case "class", "":
		return g.finalize("class", entityClassSource(entities))
	default:
		return Result{
			Status:  "error",
			Message: fmt.Sprintf("Unsupported diagram type: %s", diagramType),
		}
	}
}

type entityRelation struct {
	kind   string
	target string
	field  string
}

func entityClassSource(entities *analyzer.EntityResult) string {
	puml := []string{"@startuml", "skinparam classAttributeIconSize 0"}

	names := sortedEntityNames(entities)
	for _, name := range names {
		entity := entities.Entities[name]
		puml = append(puml, fmt.Sprintf("class %s {", name))
		for _, field := range entity.Fields {
			puml = append(puml, fmt.Sprintf("  %s: %s", field.Name, simplifyType(field.Type)))
		}
		puml = append(puml, "}")
	}

	for _, name := range names {
		for _, rel := range entityRelations(entities.Entities[name]) {
			var arrow string
			switch rel.kind {
			case "OneToMany":
				arrow = fmt.Sprintf("%s \"1\" -- \"*\" %s", name, rel.target)
			case "ManyToOne":
				arrow = fmt.Sprintf("%s \"*\" -- \"1\" %s", name, rel.target)
			case "OneToOne":
				arrow = fmt.Sprintf("%s \"1\" -- \"1\" %s", name, rel.target)
			case "ManyToMany":
				arrow = fmt.Sprintf("%s \"*\" -- \"*\" %s", name, rel.target)
			default:
				arrow = fmt.Sprintf("%s -- %s", name, rel.target)
			}
			if rel.field != "" {
				arrow += " : " + rel.field
			}
			puml = append(puml, arrow)
		}
	}

	puml = append(puml, "@enduml")
	return strings.Join(puml, "\n")
}

func erDiagramSource(entities *analyzer.EntityResult) string {
	puml := []string{"@startuml", "!define table(x) entity x << (T,#FFAAAA) >>"}

	names := sortedEntityNames(entities)
	for _, name := range names {
		entity := entities.Entities[name]
		puml = append(puml, fmt.Sprintf("table(%s) {", name))
		puml = append(puml, "  *id : Long <<PK>>")
		for _, field := range entity.Fields {
			if field.Name == "id" || isRelationField(field) {
				continue
			}
			puml = append(puml, fmt.Sprintf("  %s: %s", field.Name, simplifyType(field.Type)))
		}
		puml = append(puml, "}")
	}

	for _, name := range names {
		for _, rel := range entityRelations(entities.Entities[name]) {
			switch rel.kind {
			case "OneToMany":
				puml = append(puml, fmt.Sprintf("%s ||--o{ %s", name, rel.target))
			case "ManyToOne":
				puml = append(puml, fmt.Sprintf("%s }o--|| %s", name, rel.target))
			case "OneToOne":
				puml = append(puml, fmt.Sprintf("%s ||--|| %s", name, rel.target))
			case "ManyToMany":
				puml = append(puml, fmt.Sprintf("%s }o--o{ %s", name, rel.target))
			}
		}
	}

	puml = append(puml, "@enduml")
	return strings.Join(puml, "\n")
}

// 字段上的 JPA 注解决定关系类型，目标实体取集合泛型或字段类型本身
func entityRelations(entity *analyzer.Entity) []entityRelation {
	var relations []entityRelation
	for _, field := range entity.Fields {
		kind := ""
		for _, annotation := range field.Annotations {
			if m := relationPattern.FindStringSubmatch(annotation); m != nil {
				kind = m[1]
				break
			}
		}
		if kind == "" {
			continue
		}

		target := field.Type
		if m := genericPattern.FindStringSubmatch(field.Type); m != nil {
			target = m[1]
		}
		relations = append(relations, entityRelation{kind: kind, target: strings.TrimSpace(target), field: field.Name})
	}
	return relations
}

func isRelationField(field analyzer.EntityField) bool {
	for _, annotation := range field.Annotations {
		if relationPattern.MatchString(annotation) {
			return true
		}
	}
	return false
}

func simplifyType(fieldType string) string {
	fieldType = strings.ReplaceAll(fieldType, "java.util.", "")
	return strings.ReplaceAll(fieldType, "java.lang.", "")
}

func sortedEntityNames(entities *analyzer.EntityResult) []string {
	names := make([]string, 0, len(entities.Entities))
	for name := range entities.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
