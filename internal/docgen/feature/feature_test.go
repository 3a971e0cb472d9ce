package feature

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/codedocgen/backend/internal/analyzer"
)

func sampleEndpoints() []analyzer.Endpoint {
	return []analyzer.Endpoint{
		{Controller: "AccountController", Method: "getAccount", HTTPMethod: "GET", Path: "/api/accounts/{id}"},
		{Controller: "AccountController", Method: "createAccount", HTTPMethod: "POST", Path: "/api/accounts/create"},
	}
}

func TestGenerate(t *testing.T) {
	files := Generate(sampleEndpoints())

	if len(files) != 1 {
		t.Fatalf("expected one feature file per controller, got %d", len(files))
	}
	f := files[0]
	if f.Filename != "Account.feature" {
		t.Fatalf("unexpected filename: %s", f.Filename)
	}
	if f.EndpointCount != 2 {
		t.Fatalf("unexpected endpoint count: %d", f.EndpointCount)
	}

	for _, want := range []string{
		"Feature: Account API",
		"Scenario: get Account",
		"Given a valid id exists",
		`When I send a GET request to "/api/accounts/{id}"`,
		"Then I should receive a 200 OK response",
		"Scenario: create Account",
		"Given the API is available",
		"Then I should receive a 201 Created response",
	} {
		if !strings.Contains(f.Content, want) {
			t.Fatalf("feature content missing %q:\n%s", want, f.Content)
		}
	}
}

func TestWithPreviews(t *testing.T) {
	files := WithPreviews(Generate(sampleEndpoints()))

	preview := files[0].Preview
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("preview should end with ellipsis: %q", preview)
	}
	if got := len(strings.Split(strings.TrimSuffix(preview, "..."), "\n")); got != 5 {
		t.Fatalf("preview should contain five lines, got %d", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"AccountController": "Account",
		"My-Api":            "My_Api",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestZip(t *testing.T) {
	files := Generate(sampleEndpoints())

	data, filename, err := Zip(files, "demo")
	if err != nil {
		t.Fatalf("zip failed: %v", err)
	}
	if !strings.HasPrefix(filename, "demo_features_") || !strings.HasSuffix(filename, ".zip") {
		t.Fatalf("unexpected zip filename: %s", filename)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip archive: %v", err)
	}
	if len(reader.File) != 1 || reader.File[0].Name != "Account.feature" {
		t.Fatalf("unexpected archive entries: %v", reader.File)
	}
	rc, err := reader.File[0].Open()
	if err != nil {
		t.Fatalf("open entry failed: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry failed: %v", err)
	}
	if !strings.Contains(string(content), "Feature: Account API") {
		t.Fatalf("archive entry missing feature content:\n%s", content)
	}
}

func TestZipEmpty(t *testing.T) {
	data, _, err := Zip(nil, "demo")
	if err != nil {
		t.Fatalf("zip failed: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid empty zip: %v", err)
	}
	if len(reader.File) != 0 {
		t.Fatalf("empty archive expected, got %v", reader.File)
	}
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(Generate(sampleEndpoints()))

	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Title != "Account API" {
		t.Fatalf("unexpected feature title: %s", s.Title)
	}
	if len(s.Scenarios) != 2 {
		t.Fatalf("expected two scenarios, got %d", len(s.Scenarios))
	}
	if s.Scenarios[0].Title != "get Account" {
		t.Fatalf("unexpected scenario title: %s", s.Scenarios[0].Title)
	}
	if len(s.Scenarios[0].Steps) != 4 {
		t.Fatalf("expected four steps, got %+v", s.Scenarios[0].Steps)
	}
	if s.Scenarios[0].Steps[0].Type != "Given" {
		t.Fatalf("unexpected first step: %+v", s.Scenarios[0].Steps[0])
	}
}
