package services

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

// educationJSON stores structured education as-is and wraps free text as
// {"summary": "..."}. Blank input clears the field.
func educationJSON(raw string) (datatypes.JSON, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if json.Valid([]byte(raw)) && (raw[0] == '{' || raw[0] == '[') {
		return datatypes.JSON(raw), nil
	}
	b, err := json.Marshal(map[string]string{"summary": raw})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
