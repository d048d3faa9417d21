package components

import (
	"encoding/json"
	"reflect"

	"e_mairie_go/logger"
)

// JSON encodes v for a data-* attribute read by the portal scripts.
// Nil slices encode as [] so scripts can iterate without a null check.
func JSON(v interface{}) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.IsNil() {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		logger.L().Warn("failed to encode template data", "error", err)
		return "null"
	}
	return string(b)
}
