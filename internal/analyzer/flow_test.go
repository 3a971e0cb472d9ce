package analyzer

import (
	"testing"
)

func TestAnalyzeFlows(t *testing.T) {
	repo := writeJavaProject(t)

	parser := NewEndpointParser(2)
	data := parser.Parse(repo)

	flows := NewFlowAnalyzer(2).Analyze(repo, data.Endpoints)
	if len(flows) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(flows))
	}

	var getFlow *EndpointFlow
	for i := range flows {
		if flows[i].Endpoint == "/api/accounts/{id}" {
			getFlow = &flows[i]
		}
	}
	if getFlow == nil {
		t.Fatalf("flow for /api/accounts/{id} not found")
	}
	if getFlow.HTTPMethod != "GET" || getFlow.Controller != "AccountController" {
		t.Fatalf("unexpected flow header: %+v", getFlow)
	}
	if len(getFlow.Flow) != 1 {
		t.Fatalf("expected 1 root flow node, got %d", len(getFlow.Flow))
	}

	root := getFlow.Flow[0]
	if root.ClassName != "AccountController" || root.ClassType != "controller" || root.Level != 0 {
		t.Fatalf("unexpected root node: %+v", root)
	}
	if len(root.Calls) != 1 {
		t.Fatalf("expected 1 nested call, got %d", len(root.Calls))
	}

	serviceNode := root.Calls[0]
	if serviceNode.ClassName != "AccountService" || serviceNode.ClassType != "service" || serviceNode.Level != 1 {
		t.Fatalf("unexpected service node: %+v", serviceNode)
	}
	if serviceNode.Method != "findAccount" {
		t.Fatalf("unexpected service method: %s", serviceNode.Method)
	}
	if len(serviceNode.Calls) != 1 {
		t.Fatalf("expected repository call, got %d", len(serviceNode.Calls))
	}

	repoNode := serviceNode.Calls[0]
	if repoNode.ClassType != "repository" || repoNode.Level != 2 {
		t.Fatalf("unexpected repository node: %+v", repoNode)
	}
	if len(repoNode.Path) != 3 {
		t.Fatalf("unexpected path depth: %v", repoNode.Path)
	}
}

func TestFlowMissingController(t *testing.T) {
	repo := t.TempDir()
	endpoints := []Endpoint{{Controller: "GhostController", Method: "get", HTTPMethod: "GET", Path: "/ghost"}}

	flows := NewFlowAnalyzer(2).Analyze(repo, endpoints)
	if len(flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(flows))
	}
	if len(flows[0].Flow) != 0 {
		t.Fatalf("expected empty flow for missing controller, got %+v", flows[0].Flow)
	}
}

func TestClassTypeFromName(t *testing.T) {
	cases := map[string]string{
		"UserController":  "controller",
		"UserService":     "service",
		"AccountManager":  "service",
		"UserRepository":  "repository",
		"AccountDao":      "repository",
		"InputValidator":  "validator",
		"RandomHelper":    "unknown",
	}
	for name, want := range cases {
		if got := classTypeFromName(name); got != want {
			t.Fatalf("classTypeFromName(%q) = %q, want %q", name, got, want)
		}
	}
}
