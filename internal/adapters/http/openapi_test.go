package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates api/openapi.yaml by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return doc
}

func TestOpenAPIDocument(t *testing.T) {
	doc := loadOpenAPI(t)

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/providers/nearby",
		"/v1/providers/{id}",
		"/v1/providers/{id}/location",
		"/v1/providers/{id}/location/reports",
		"/v1/seekers/{id}/providers",
		"/v1/seekers/{id}/providers/{providerID}/distance",
		"/v1/distance",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := doc.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	expectedSchemas := []string{
		"GeoJSONPoint",
		"Location",
		"Provider",
		"RankedProvider",
		"LocationUpdate",
		"Distance",
		"Pagination",
		"APIError",
	}
	for _, name := range expectedSchemas {
		if doc.Components.Schemas[name] == nil {
			t.Errorf("expected schema %s not found", name)
		}
	}
}

func TestOpenAPIDistanceIsNullable(t *testing.T) {
	doc := loadOpenAPI(t)

	dist := doc.Components.Schemas["Distance"].Value.Properties["distance_km"]
	if dist == nil || !dist.Value.Nullable {
		t.Fatal("Distance.distance_km must be nullable")
	}
}

func TestOpenAPIInfo(t *testing.T) {
	doc := loadOpenAPI(t)

	if doc.Info.Title != "Proximity API" {
		t.Errorf("expected title 'Proximity API', got %q", doc.Info.Title)
	}
	if doc.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", doc.Info.Version)
	}
	if len(doc.Servers) == 0 {
		t.Error("expected at least one server")
	}
}
