package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/repertoire/internal/practice"
)

const reportSchemaURL = "schema://practice-session-report.json"

// reportSchema describes a JSON practice-session report. Numeric ranges are
// deliberately absent: out-of-range values are coerced, not rejected.
var reportSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"piece_id": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"duration_minutes": map[string]any{
			"type": "integer",
		},
		"confidence_rating": map[string]any{
			"type": "integer",
		},
		"notes": map[string]any{
			"type": "string",
		},
		"submitted_at": map[string]any{
			"type":   "string",
			"format": "date-time",
		},
	},
	"required":             []any{"piece_id", "duration_minutes", "confidence_rating"},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledReport *jsonschema.Schema
	compileErr     error
)

func reportValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler expects a parsed JSON value, not a Go map literal.
		raw, err := json.Marshal(reportSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal report schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("parse report schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		c.AssertFormat()
		if err := c.AddResource(reportSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledReport, compileErr = c.Compile(reportSchemaURL)
	})
	return compiledReport, compileErr
}

// DecodeReport parses and validates a JSON practice-session report.
// Structural problems are reported as *practice.ErrValidation.
func DecodeReport(raw []byte) (SessionInput, error) {
	schema, err := reportValidator()
	if err != nil {
		return SessionInput{}, fmt.Errorf("report schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return SessionInput{}, &practice.ErrValidation{Field: "report", Reason: "malformed JSON"}
	}
	if err := schema.Validate(doc); err != nil {
		return SessionInput{}, &practice.ErrValidation{Field: "report", Reason: validationReason(err)}
	}

	var in SessionInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return SessionInput{}, &practice.ErrValidation{Field: "report", Reason: err.Error()}
	}
	return in, nil
}

// validationReason reduces a schema error to its first leaf, which reads as
// "at '/field': reason".
func validationReason(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr.Error()
}
