package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect payload validation failures.
var ErrValidation = errors.New("validation failed")

// DecisionValidator validates draft-patch payloads against per-kind JSON
// schemas before they reach the task model. Unknown fields and wrong types are
// hard-rejected at the HTTP boundary; the invariant checks in recon only ever
// see well-formed patches.
type DecisionValidator struct {
	patchSchemas map[string]*jsonschema.Schema
}

// NewDecisionValidator loads all *.json schema files from schemaDir and
// compiles one patch schema per task kind. File names follow
// "<kind>.v1.json"; the version suffix is stripped.
func NewDecisionValidator(ctx context.Context, schemaDir string) (*DecisionValidator, error) {
	_ = ctx
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	patchSchemas := make(map[string]*jsonschema.Schema)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		kind := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		kind = strings.TrimSuffix(kind, ".v1")
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		id := "https://centrumkenaz.com/schemas/" + kind + ".patch"
		patchSchemas[kind], err = jsonschema.CompileString(id, string(data))
		if err != nil {
			return nil, fmt.Errorf("compile patch schema %q: %w", kind, err)
		}
	}
	if len(patchSchemas) == 0 {
		return nil, fmt.Errorf("no schemas found in %q", schemaDir)
	}

	return &DecisionValidator{patchSchemas: patchSchemas}, nil
}

// ValidatePatch hard-rejects payloads that do not match the kind's patch schema.
func (v *DecisionValidator) ValidatePatch(ctx context.Context, kind string, payload json.RawMessage) error {
	schema, ok := v.patchSchemas[kind]
	if !ok {
		return fmt.Errorf("unknown task kind %q", kind)
	}
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
