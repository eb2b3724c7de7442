package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/geocoder89/marketlink/internal/validate"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the body into out and runs its `validate` tags; on
// failure it writes a 400 and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseDecodeError(err, out))
		return false
	}

	return validateRequest(ctx, out)
}

func validateRequest(ctx *gin.Context, v interface{}) bool {
	if err := validate.Struct(v); err != nil {
		fields, ok := validate.AsErrors(err)
		if !ok {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"reason": err.Error()})
			return false
		}
		RespondBadRequest(ctx, firstMessage(fields), gin.H{"fields": fields})
		return false
	}

	return true
}

// firstMessage turns the first field error into a readable sentence so
// clients that only show "message" still say something useful.
func firstMessage(fields validate.Errors) string {
	if len(fields) == 0 {
		return "Invalid request body"
	}
	f := fields[0]
	return strings.ToUpper(f.Field[:1]) + f.Field[1:] + " " + f.Message
}

func parseDecodeError(err error, out interface{}) interface{} {
	// in the event of bad json
	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	// in the event of a type mismatch
	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := jsonPathFromDotPath(baseStructType(out), unmatchedTypeError.Field)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []validate.FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	// final fallback if the error could not be deciphered
	return gin.H{"reason": err.Error()}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// json.UnmarshalTypeError.Field is a Go field path; map it back to JSON names.
func jsonPathFromDotPath(current reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	out := make([]string, 0, 4)

	for _, part := range strings.Split(dotPath, ".") {
		if part == "" {
			continue
		}

		jsonName := part
		var next reflect.Type

		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(part); ok {
				jsonName = jsonNameOf(sf)
				next = sf.Type
			}
		}

		out = append(out, jsonName)

		for next != nil && (next.Kind() == reflect.Pointer || next.Kind() == reflect.Slice) {
			next = next.Elem()
		}
		current = next
	}

	return strings.Join(out, ".")
}

func jsonNameOf(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}
