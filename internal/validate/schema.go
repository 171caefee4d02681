package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
)

// BuildSalesRecordSchema returns the JSON-Schema every record must satisfy
// before it reaches the store.
func BuildSalesRecordSchema() map[string]any {
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"report_date", "location", "item_name",
			"quantity_sold", "net_sales", "discount", "data_source",
		},
		"properties": map[string]any{
			"report_date": map[string]any{
				"type":    "string",
				"pattern": `^\d{4}-\d{2}-\d{2}$`,
			},
			"location": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"primary_category": map[string]any{
				"type": []string{"string", "null"},
			},
			"category": map[string]any{
				"type": []string{"string", "null"},
			},
			"item_name": map[string]any{
				"type":      "string",
				"minLength": 1,
				// The closed-day sentinel is control flow, never data.
				"not": map[string]any{"const": constants.ClosedDaySentinel},
			},
			"quantity_sold": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
			"net_sales": map[string]any{
				"type": "number",
			},
			"discount": map[string]any{
				"type":    "number",
				"minimum": 0,
			},
			"data_source": map[string]any{
				"type":    "string",
				"pattern": `^[a-z]+:`,
			},
		},
	}
}

// ValidateRecords checks every record against the schema. A failure here
// means the pipeline produced something the store must not see, so callers
// treat it as fatal for the file.
func ValidateRecords(records []entity.SalesRecord) error {
	schema, err := compileSchema(BuildSalesRecordSchema())
	if err != nil {
		return err
	}
	for i := range records {
		data, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("unmarshal record %d: %w", i, err)
		}
		if err := schema.Validate(v); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, records[i].ItemName, err)
		}
	}
	return nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("sales_record.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("sales_record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
