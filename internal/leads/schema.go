package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var requiredStringFields = []string{
	"import_job_id", "full_name", "email", "phone_number", "city", "platform", "lead_status",
}

var nullableStringFields = []string{
	"ad_id", "ad_name", "adset_id", "campaign_id", "campaign_name", "form_id", "page_id",
}

var timestampFields = []string{"timestamp_utc", "date", "created_time"}

// JSONSchema returns the JSON-Schema of one normalized lead as sent to bulk_insert_leads.
func JSONSchema() map[string]any {
	props := map[string]any{}
	for _, f := range requiredStringFields {
		props[f] = map[string]any{"type": "string"}
	}
	for _, f := range nullableStringFields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	for _, f := range timestampFields {
		props[f] = map[string]any{
			"anyOf": []any{
				map[string]any{"type": "null"},
				map[string]any{
					"type":    "string",
					"pattern": `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`,
				},
			},
		}
	}

	required := make([]string, 0, len(props))
	required = append(required, requiredStringFields...)
	required = append(required, nullableStringFields...)
	required = append(required, timestampFields...)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// BatchJSONSchema wraps JSONSchema into the array accepted as json_data.
func BatchJSONSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": JSONSchema(),
	}
}

var (
	batchSchemaOnce sync.Once
	batchSchema     *jsonschema.Schema
	batchSchemaErr  error
)

// ValidateBatchJSON validates an encoded batch against BatchJSONSchema.
func ValidateBatchJSON(data []byte) error {
	batchSchemaOnce.Do(func() {
		batchSchema, batchSchemaErr = compileSchema(BatchJSONSchema())
	})
	if batchSchemaErr != nil {
		return batchSchemaErr
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal batch: %w", err)
	}
	if err := batchSchema.Validate(v); err != nil {
		return fmt.Errorf("batch does not match lead schema: %w", err)
	}
	return nil
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("leads.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("leads.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
