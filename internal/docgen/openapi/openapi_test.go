package openapi

import (
	"testing"

	"github.com/codedocgen/backend/internal/analyzer"
)

func sampleEndpoints() []analyzer.Endpoint {
	return []analyzer.Endpoint{
		{Controller: "AccountController", Method: "getAccount", HTTPMethod: "GET", Path: "/api/accounts/{id}"},
		{Controller: "AccountController", Method: "createAccount", HTTPMethod: "POST", Path: "/api/accounts/create"},
	}
}

func TestBuildDocument(t *testing.T) {
	doc := Build(sampleEndpoints(), "demo")

	if doc.OpenAPI != "3.0.0" {
		t.Fatalf("unexpected openapi version: %s", doc.OpenAPI)
	}
	if doc.Info.Title != "demo API" {
		t.Fatalf("unexpected title: %s", doc.Info.Title)
	}

	get, ok := doc.Paths["/api/accounts/{id}"]["get"]
	if !ok {
		t.Fatalf("missing get operation: %v", doc.Paths)
	}
	if get.Summary != "get Account" {
		t.Fatalf("unexpected summary: %s", get.Summary)
	}
	if get.Tags[0] != "AccountController" {
		t.Fatalf("unexpected tags: %v", get.Tags)
	}
	if len(get.Parameters) != 1 || get.Parameters[0].Name != "id" || get.Parameters[0].In != "path" || !get.Parameters[0].Required {
		t.Fatalf("unexpected parameters: %+v", get.Parameters)
	}
	if _, ok := get.Responses["200"]; !ok {
		t.Fatalf("missing 200 response: %v", get.Responses)
	}

	post := doc.Paths["/api/accounts/create"]["post"]
	if post == nil {
		t.Fatal("missing post operation")
	}
	if _, ok := post.Responses["201"]; !ok {
		t.Fatalf("post should default to 201: %v", post.Responses)
	}
	if len(post.Parameters) != 0 {
		t.Fatalf("unexpected path parameters: %+v", post.Parameters)
	}
}

func TestBuildDeleteResponses(t *testing.T) {
	doc := Build([]analyzer.Endpoint{
		{Controller: "AccountController", Method: "deleteAccount", HTTPMethod: "DELETE", Path: "/api/accounts/{id}"},
	}, "demo")

	del := doc.Paths["/api/accounts/{id}"]["delete"]
	if _, ok := del.Responses["204"]; !ok {
		t.Fatalf("delete should default to 204: %v", del.Responses)
	}
}

func TestEmptyDocument(t *testing.T) {
	doc := Empty("demo")
	if doc.Info.Description != "No endpoints found in this repository" {
		t.Fatalf("unexpected description: %s", doc.Info.Description)
	}
	if len(doc.Paths) != 0 {
		t.Fatalf("empty document should have no paths: %v", doc.Paths)
	}
}
