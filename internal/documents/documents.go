// Package documents reads the JSON files the CLI accepts, checking each
// against an embedded JSON Schema before decoding it.
package documents

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lockplane/schemaguard/internal/importer"
	"github.com/lockplane/schemaguard/internal/planner"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// SchemaError lists every JSON Schema violation in a document.
type SchemaError struct {
	Document string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match the expected format:\n  - %s", e.Document, strings.Join(e.Problems, "\n  - "))
}

func validate(schemaName, document string, data []byte) error {
	raw, err := schemaFS.ReadFile("schemas/" + schemaName)
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", document, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &SchemaError{Document: document, Problems: problems}
}

type changeSet struct {
	Changes []planner.ColumnChange `json:"changes"`
}

// ParseChanges validates and decodes a change set. Unknown operations and
// types are kept so the planner can report them per change.
func ParseChanges(document string, data []byte) ([]planner.ColumnChange, error) {
	if err := validate("changes.json", document, data); err != nil {
		return nil, err
	}
	var set changeSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", document, err)
	}
	return set.Changes, nil
}

func LoadChanges(path string) ([]planner.ColumnChange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseChanges(path, data)
}

// ParseImportSpec validates and decodes an import spec. Numbers in rows are
// kept as json.Number so large integers survive.
func ParseImportSpec(document string, data []byte) (*importer.ImportSpec, error) {
	if err := validate("import.json", document, data); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var spec importer.ImportSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", document, err)
	}
	return &spec, nil
}

func LoadImportSpec(path string) (*importer.ImportSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSpec(path, data)
}

// LoadPlan reads a plan previously written by "schemaguard plan --output".
func LoadPlan(path string) (*planner.MigrationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var plan planner.MigrationPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", path, err)
	}
	if plan.FactsFingerprint == "" || len(plan.Changes) == 0 {
		return nil, fmt.Errorf("%s is not a schemaguard plan", path)
	}
	return &plan, nil
}
