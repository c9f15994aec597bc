package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps how much of a request body the decoders will read.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrUnknownField is returned by DecodeJSONStrict when the body names a
// field the target struct does not declare.
var ErrUnknownField = errors.New("unknown field")

// ErrTrailingData is returned by DecodeJSONStrict when the body holds more
// than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON object")

// DecodeJSON decodes the request body into v, ignoring undeclared fields.
func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// DecodeJSONStrict decodes a single JSON object into v. Keys must match a
// declared json tag exactly, case included, or ErrUnknownField is returned.
// An empty body leaves v untouched.
func DecodeJSONStrict(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	declared := jsonFieldNames(v)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if !declared[key] {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}
	return json.Unmarshal(data, v)
}

// jsonFieldNames lists the keys encoding/json would emit for v's struct type.
func jsonFieldNames(v any) map[string]bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	names := make(map[string]bool)
	if t == nil || t.Kind() != reflect.Struct {
		return names
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[name] = true
	}
	return names
}

// ValidateRequest runs v's own Validate method when it has one and the
// struct tag rules otherwise.
func ValidateRequest(v any) error {
	if self, ok := v.(interface{ Validate() error }); ok {
		return self.Validate()
	}
	return validate.Struct(v)
}
