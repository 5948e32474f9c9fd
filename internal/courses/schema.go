package courses

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// courseListSchema validates the LLM's course extraction output before it is
// decoded. Title is the only hard requirement; everything else degrades to
// an empty string.
const courseListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["title"],
    "properties": {
      "title":       {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "platform":    {"type": "string"},
      "rating":      {"type": "string"},
      "price":       {"type": "string"},
      "duration":    {"type": "string"},
      "instructor":  {"type": "string"},
      "url":         {"type": "string"}
    }
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(courseListSchema)

// validateCourseList checks raw JSON against the course list schema.
func validateCourseList(raw string) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("course list failed validation: %s", errs[0].String())
		}
		return fmt.Errorf("course list failed validation")
	}
	return nil
}
