package diagram

import (
	"strings"
	"testing"

	"github.com/codedocgen/backend/internal/analyzer"
	"github.com/codedocgen/backend/internal/docgen/feature"
)

const serverURL = "http://www.plantuml.com/plantuml/img/"

func sampleEntities() *analyzer.EntityResult {
	return &analyzer.EntityResult{
		Entities: map[string]*analyzer.Entity{
			"Account": {
				Name: "Account",
				Fields: []analyzer.EntityField{
					{Name: "id", Type: "Long", Annotations: []string{"@Id"}},
					{Name: "ownerName", Type: "java.lang.String"},
					{Name: "transactions", Type: "List<Transaction>", Annotations: []string{"@OneToMany"}},
				},
			},
			"Transaction": {
				Name: "Transaction",
				Fields: []analyzer.EntityField{
					{Name: "id", Type: "Long", Annotations: []string{"@Id"}},
				},
			},
		},
		Count: 2,
	}
}

func sampleArchitecture() *analyzer.ArchitectureData {
	return &analyzer.ArchitectureData{
		Endpoints: []analyzer.Endpoint{
			{
				Controller:   "AccountController",
				Method:       "getAccount",
				HTTPMethod:   "GET",
				Path:         "/api/accounts/{id}",
				ServiceCalls: []analyzer.ServiceCall{{Service: "accountService", Method: "findAccount"}},
				Services:     []string{"AccountService"},
				Repositories: []string{"AccountRepository"},
			},
		},
		Services: map[string]*analyzer.ServiceInfo{
			"AccountService": {Methods: []analyzer.ServiceMethod{{Name: "findAccount"}}},
		},
		Repositories: map[string]*analyzer.RepositoryInfo{
			"AccountRepository": {EntityType: "Account"},
		},
		Architecture: analyzer.Architecture{
			ControllerService: map[string][]string{"AccountController": {"AccountService"}},
			ServiceRepository: map[string][]string{"AccountService": {"AccountRepository"}},
		},
	}
}

func TestEncodeSource(t *testing.T) {
	encoded, err := EncodeSource("@startuml\nBob -> Alice : hello\n@enduml")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if encoded == "" {
		t.Fatal("empty encoding")
	}
	for _, r := range encoded {
		if !strings.ContainsRune(plantumlAlphabet, r) {
			t.Fatalf("character %q outside the PlantUML alphabet: %s", r, encoded)
		}
	}

	again, err := EncodeSource("@startuml\nBob -> Alice : hello\n@enduml")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if encoded != again {
		t.Fatal("encoding should be deterministic")
	}
}

func TestEntityClassDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.EntityDiagram(sampleEntities(), "class")

	if result.Status != "success" {
		t.Fatalf("unexpected status: %+v", result)
	}
	if !strings.HasPrefix(result.DiagramURL, serverURL) {
		t.Fatalf("diagram url should point at the PlantUML server: %s", result.DiagramURL)
	}
	for _, want := range []string{
		"class Account {",
		"  ownerName: String",
		`Account "1" -- "*" Transaction : transactions`,
	} {
		if !strings.Contains(result.PumlSource, want) {
			t.Fatalf("class diagram missing %q:\n%s", want, result.PumlSource)
		}
	}
}

func TestEntityERDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.EntityDiagram(sampleEntities(), "er")

	if !strings.Contains(result.PumlSource, "Account ||--o{ Transaction") {
		t.Fatalf("er diagram missing relation:\n%s", result.PumlSource)
	}
	if strings.Contains(result.PumlSource, "transactions:") {
		t.Fatalf("relation fields should not be listed as columns:\n%s", result.PumlSource)
	}
}

func TestEntityDiagramUnsupportedType(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.EntityDiagram(sampleEntities(), "mindmap")
	if result.Status != "error" {
		t.Fatalf("unsupported type should fail: %+v", result)
	}
}

func TestUseCaseDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	features := []feature.Summary{
		{
			Title:      "Account API",
			Controller: "AccountController",
			Scenarios:  []feature.Scenario{{Title: "get Account"}},
		},
	}

	result := g.UseCase(features)

	for _, want := range []string{
		"actor User",
		`rectangle "Account API" {`,
		`usecase "get Account" as get_account`,
	} {
		if !strings.Contains(result.PumlSource, want) {
			t.Fatalf("use case diagram missing %q:\n%s", want, result.PumlSource)
		}
	}
}

func TestComprehensiveUseCaseDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.ComprehensiveUseCase(sampleArchitecture(), sampleEntities())

	for _, want := range []string{
		`package "API Layer" {`,
		`package "Business Layer" {`,
		`package "Data Access Layer" {`,
		"Client --> AccountController_getAccount",
		"AccountRepository_find ..> Entity_Account : <<accesses>>",
	} {
		if !strings.Contains(result.PumlSource, want) {
			t.Fatalf("comprehensive use case diagram missing %q:\n%s", want, result.PumlSource)
		}
	}
}

func TestComprehensiveUseCaseDiagramEmpty(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.ComprehensiveUseCase(&analyzer.ArchitectureData{}, &analyzer.EntityResult{Entities: map[string]*analyzer.Entity{}})
	if !strings.Contains(result.PumlSource, "No endpoints found") {
		t.Fatalf("expected placeholder note:\n%s", result.PumlSource)
	}
}

func TestInteractionDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.Interaction(sampleArchitecture().Endpoints)

	for _, want := range []string{
		"participant AccountController",
		"== GET /api/accounts/{id} ==",
		"Client -> AccountController: GET /api/accounts/{id}",
		"AccountController -> accountService: findAccount()",
		"AccountController --> Client: HTTP Response",
	} {
		if !strings.Contains(result.PumlSource, want) {
			t.Fatalf("interaction diagram missing %q:\n%s", want, result.PumlSource)
		}
	}
}

func TestComprehensiveInteractionDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.ComprehensiveInteraction(sampleArchitecture(), sampleEntities())

	for _, want := range []string{
		"group Account Management",
		"database Database",
		"Client -> AccountController: getAccount()",
	} {
		if !strings.Contains(result.PumlSource, want) {
			t.Fatalf("comprehensive interaction diagram missing %q:\n%s", want, result.PumlSource)
		}
	}
}

func TestClassDiagram(t *testing.T) {
	g := NewGenerator(serverURL)
	result := g.ClassDiagram(sampleArchitecture(), sampleEntities())

	for _, want := range []string{
		"class Account <<Entity>> {",
		"interface AccountRepository <<Repository>> {",
		"class AccountService <<Service>> {",
		"class AccountController <<Controller>> {",
		"AccountRepository ..> Account : manages >",
		"AccountService --> AccountRepository : uses >",
		"AccountController --> AccountService : calls >",
	} {
		if !strings.Contains(result.PumlSource, want) {
			t.Fatalf("class diagram missing %q:\n%s", want, result.PumlSource)
		}
	}
}
