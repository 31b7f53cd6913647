package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc failed: %v", err)
	}

	var parsed struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("Swagger document is not valid JSON: %v", err)
	}
	if parsed.BasePath != "/api/v1" {
		t.Errorf("Expected base path /api/v1, got %s", parsed.BasePath)
	}
	if _, ok := parsed.Paths["/relay"]["post"]; !ok {
		t.Error("Expected POST /relay to be documented")
	}
}
