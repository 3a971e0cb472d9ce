package analyzer

import (
	"os"
	"path/filepath"
	"testing"
)

const accountControllerSrc = `package com.example.demo;

import org.springframework.web.bind.annotation.*;

@RestController
@RequestMapping("/api/accounts")
public class AccountController {

    @Autowired
    private AccountService accountService;

    @GetMapping("/{id}")
    public ResponseEntity getAccount(@PathVariable Long id) {
        return accountService.findAccount(id);
    }

    @PostMapping("/create")
    public ResponseEntity createAccount(@RequestBody Account account) {
        return accountService.createAccount(account);
    }
}
`

const accountServiceSrc = `package com.example.demo;

import org.springframework.stereotype.Service;

@Service
public class AccountService {

    @Autowired
    private AccountRepository accountRepository;

    public Account findAccount(Long id) {
        return accountRepository.findById(id);
    }

    public Account createAccount(Account account) {
        return accountRepository.save(account);
    }
}
`

const accountRepositorySrc = `package com.example.demo;

import org.springframework.data.jpa.repository.JpaRepository;

public interface AccountRepository extends JpaRepository<Account, Long> {
    Account findByOwnerName(String ownerName);
}
`

const accountEntitySrc = `package com.example.demo;

import javax.persistence.*;

@Entity
@Table(name = "accounts")
public class Account {

    @Id
    @GeneratedValue
    private Long id;

    @Column(name = "owner_name")
    private String ownerName;

    @OneToMany
    private List<Transaction> transactions;
}
`

func writeJavaProject(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	srcDir := filepath.Join(repo, "src", "main", "java", "com", "example", "demo")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	files := map[string]string{
		"AccountController.java": accountControllerSrc,
		"AccountService.java":    accountServiceSrc,
		"AccountRepository.java": accountRepositorySrc,
		"Account.java":           accountEntitySrc,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s failed: %v", name, err)
		}
	}
	return repo
}

func TestParseEndpoints(t *testing.T) {
	repo := writeJavaProject(t)

	data := NewEndpointParser(2).Parse(repo)
	if len(data.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(data.Endpoints))
	}

	byMethod := map[string]Endpoint{}
	for _, e := range data.Endpoints {
		byMethod[e.Method] = e
	}

	get, ok := byMethod["getAccount"]
	if !ok {
		t.Fatalf("getAccount endpoint not found")
	}
	if get.HTTPMethod != "GET" || get.Path != "/api/accounts/{id}" {
		t.Fatalf("unexpected getAccount endpoint: %s %s", get.HTTPMethod, get.Path)
	}
	if get.Controller != "AccountController" {
		t.Fatalf("unexpected controller: %s", get.Controller)
	}
	if len(get.ServiceCalls) != 1 || get.ServiceCalls[0].Service != "accountService" || get.ServiceCalls[0].Method != "findAccount" {
		t.Fatalf("unexpected service calls: %+v", get.ServiceCalls)
	}

	create, ok := byMethod["createAccount"]
	if !ok {
		t.Fatalf("createAccount endpoint not found")
	}
	if create.HTTPMethod != "POST" || create.Path != "/api/accounts/create" {
		t.Fatalf("unexpected createAccount endpoint: %s %s", create.HTTPMethod, create.Path)
	}
}

func TestParseEndpointsArchitecture(t *testing.T) {
	repo := writeJavaProject(t)

	data := NewEndpointParser(2).Parse(repo)

	if _, ok := data.Services["AccountService"]; !ok {
		t.Fatalf("AccountService not identified")
	}
	if _, ok := data.Repositories["AccountRepository"]; !ok {
		t.Fatalf("AccountRepository not identified")
	}
	if data.Repositories["AccountRepository"].EntityType != "Account" {
		t.Fatalf("unexpected entity type: %s", data.Repositories["AccountRepository"].EntityType)
	}

	services := data.Architecture.ControllerService["AccountController"]
	if len(services) != 1 || services[0] != "AccountService" {
		t.Fatalf("unexpected controller services: %v", services)
	}
	repos := data.Architecture.ServiceRepository["AccountService"]
	if len(repos) != 1 || repos[0] != "AccountRepository" {
		t.Fatalf("unexpected service repositories: %v", repos)
	}

	for _, e := range data.Endpoints {
		if len(e.Services) != 1 || e.Services[0] != "AccountService" {
			t.Fatalf("endpoint %s not enriched with services: %v", e.Method, e.Services)
		}
		if len(e.Repositories) != 1 || e.Repositories[0] != "AccountRepository" {
			t.Fatalf("endpoint %s not enriched with repositories: %v", e.Method, e.Repositories)
		}
	}
}

func TestParseEndpointsEmptyRepo(t *testing.T) {
	repo := t.TempDir()
	data := NewEndpointParser(2).Parse(repo)
	if len(data.Endpoints) != 0 {
		t.Fatalf("expected no endpoints, got %d", len(data.Endpoints))
	}
}

func TestServiceMethodRepositoryCalls(t *testing.T) {
	repo := writeJavaProject(t)

	data := NewEndpointParser(2).Parse(repo)
	info := data.Services["AccountService"]
	if info == nil || len(info.Methods) != 2 {
		t.Fatalf("expected 2 service methods, got %+v", info)
	}
	for _, m := range info.Methods {
		if len(m.RepositoryCalls) != 1 || m.RepositoryCalls[0].Repository != "accountRepository" {
			t.Fatalf("method %s missing repository calls: %+v", m.Name, m.RepositoryCalls)
		}
	}
}

func TestJoinPath(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"api/accounts", "/{id}", "/api/accounts/{id}"},
		{"api/accounts", "list", "/api/accounts/list"},
		{"", "list", "/list"},
		{"", "/list", "/list"},
	}
	for _, c := range cases {
		if got := joinPath(c.base, c.path); got != c.want {
			t.Fatalf("joinPath(%q, %q) = %q, want %q", c.base, c.path, got, c.want)
		}
	}
}
