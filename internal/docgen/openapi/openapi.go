package openapi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codedocgen/backend/internal/analyzer"
)

var pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Document OpenAPI 3.0 文档，按字段序输出
type Document struct {
	OpenAPI string                        `json:"openapi"`
	Info    Info                          `json:"info"`
	Paths   map[string]map[string]*Operation `json:"paths"`
}

type Info struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type Operation struct {
	Summary     string               `json:"summary"`
	OperationID string               `json:"operationId"`
	Tags        []string             `json:"tags"`
	Parameters  []Parameter          `json:"parameters,omitempty"`
	Responses   map[string]*Response `json:"responses"`
}

type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Schema   Schema `json:"schema"`
}

type Schema struct {
	Type string `json:"type"`
}

type Response struct {
	Description string `json:"description"`
}

// Empty 没有任何端点时返回的空文档
func Empty(repoName string) *Document {
	return &Document{
		OpenAPI: "3.0.0",
		Info: Info{
			Title:       repoName + " API",
			Description: "No endpoints found in this repository",
			Version:     "1.0.0",
		},
		Paths: map[string]map[string]*Operation{},
	}
}

// Build 根据解析出的端点生成 OpenAPI 3.0 文档
func Build(endpoints []analyzer.Endpoint, repoName string) *Document {
	doc := &Document{
		OpenAPI: "3.0.0",
		Info: Info{
			Title:       repoName + " API",
			Description: fmt.Sprintf("API documentation generated from the %s repository", repoName),
			Version:     "1.0.0",
		},
		Paths: map[string]map[string]*Operation{},
	}

	for _, endpoint := range endpoints {
		path := endpoint.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		method := strings.ToLower(endpoint.HTTPMethod)
		if method == "" {
			method = "get"
		}

		if doc.Paths[path] == nil {
			doc.Paths[path] = map[string]*Operation{}
		}
		doc.Paths[path][method] = &Operation{
			Summary:     humanize(endpoint.Method),
			OperationID: endpoint.Method,
			Tags:        []string{endpoint.Controller},
			Parameters:  pathParameters(path),
			Responses:   responses(endpoint.HTTPMethod),
		}
	}
	return doc
}

func pathParameters(path string) []Parameter {
	var params []Parameter
	for _, m := range pathParamPattern.FindAllStringSubmatch(path, -1) {
		params = append(params, Parameter{
			Name:     m[1],
			In:       "path",
			Required: true,
			Schema:   Schema{Type: "string"},
		})
	}
	return params
}

// 按请求方法给出默认成功响应，POST 201、DELETE 204，其余 200
func responses(httpMethod string) map[string]*Response {
	switch strings.ToUpper(httpMethod) {
	case "POST":
		return map[string]*Response{
			"201": {Description: "Created"},
			"400": {Description: "Bad Request"},
		}
	case "DELETE":
		return map[string]*Response{
			"204": {Description: "No Content"},
			"404": {Description: "Not Found"},
		}
	default:
		return map[string]*Response{
			"200": {Description: "Successful operation"},
			"404": {Description: "Not Found"},
		}
	}
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

func humanize(methodName string) string {
	return camelBoundary.ReplaceAllString(methodName, `$1 $2`)
}
