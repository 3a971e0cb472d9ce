package analyzer

import (
	"regexp"
	"strings"
)

var (
	tableNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`@Table\s*\(\s*name\s*=\s*["']([^"']+)["']`),
		regexp.MustCompile(`@Table\s*\(\s*value\s*=\s*["']([^"']+)["']`),
		regexp.MustCompile(`@Entity\s*\(\s*name\s*=\s*["']([^"']+)["']`),
	}
	relationshipAnnotationPattern = regexp.MustCompile(`@(OneToMany|ManyToOne|OneToOne|ManyToMany|JoinColumn|JoinTable)`)
	listGenericPattern            = regexp.MustCompile(`List<([^>]+)>`)
	setGenericPattern             = regexp.MustCompile(`Set<([^>]+)>`)

	snakeCaseStep1 = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	snakeCaseStep2 = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// SchemaMapper 将实体映射到数据库表并标注关系与使用方
type SchemaMapper struct{}

func NewSchemaMapper() *SchemaMapper {
	return &SchemaMapper{}
}

func (m *SchemaMapper) Map(entities *EntityResult, endpoints []Endpoint) *SchemaOverview {
	overview := &SchemaOverview{
		Tables:   map[string]*TableMapping{},
		Entities: entities.Entities,
	}

	for entityName, entity := range entities.Entities {
		tableName := extractTableName(entity)
		if tableName == "" {
			tableName = ToSnakeCase(entityName)
		}
		overview.Tables[tableName] = &TableMapping{
			Entity:    entityName,
			UsedBy:    findEntityUsage(entityName, endpoints),
			Relations: extractRelationTables(entity),
		}
	}
	return overview
}

func extractTableName(entity *Entity) string {
	for _, annotation := range entity.Annotations {
		for _, pattern := range tableNamePatterns {
			if m := pattern.FindStringSubmatch(annotation); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// 字段上的 JPA 关系注解指向的目标实体，换算成表名
func extractRelationTables(entity *Entity) []string {
	relations := []string{}
	for _, field := range entity.Fields {
		hasRelation := false
		for _, annotation := range field.Annotations {
			if relationshipAnnotationPattern.MatchString(annotation) {
				hasRelation = true
				break
			}
		}
		if !hasRelation {
			continue
		}

		target := field.Type
		if m := listGenericPattern.FindStringSubmatch(field.Type); m != nil {
			target = m[1]
		} else if m := setGenericPattern.FindStringSubmatch(field.Type); m != nil {
			target = m[1]
		}
		if target != "" {
			relations = append(relations, ToSnakeCase(target))
		}
	}
	return relations
}

// 端点路径里出现实体名即视为使用了该实体
func findEntityUsage(entityName string, endpoints []Endpoint) []string {
	usedBy := []string{}
	entityLower := strings.ToLower(entityName)
	for _, endpoint := range endpoints {
		if strings.Contains(strings.ToLower(endpoint.Path), entityLower) {
			usedBy = append(usedBy, endpoint.Path)
		}
	}
	return usedBy
}

func ToSnakeCase(camelCase string) string {
	s := snakeCaseStep1.ReplaceAllString(camelCase, `${1}_${2}`)
	s = snakeCaseStep2.ReplaceAllString(s, `${1}_${2}`)
	return strings.ToLower(s)
}
