package validate_test

import (
	"errors"
	"testing"

	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	err := validate.Struct(user.SignupRequest{Email: "not-an-email", Password: "123"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	fields, ok := validate.AsErrors(err)
	if !ok {
		t.Fatalf("expected validate.Errors, got %T", err)
	}

	wantRules := map[string]string{
		"name":     "required",
		"email":    "email",
		"password": "min",
		"role":     "required",
	}

	found := fields.ByField()
	for field := range wantRules {
		if found[field] == "" {
			t.Fatalf("missing field error for %q: %+v", field, fields)
		}
	}

	for _, fe := range fields {
		if want, ok := wantRules[fe.Field]; ok && fe.Rule != want {
			t.Fatalf("field %q rule mismatch: got %q want %q", fe.Field, fe.Rule, want)
		}
	}
}

func TestStruct_RatingZeroRejected(t *testing.T) {
	err := validate.Struct(user.RateRequest{RaterID: "u1", RaterName: "Ada", Rating: 0})

	fields, ok := validate.AsErrors(err)
	if !ok {
		t.Fatalf("expected validate.Errors, got %v", err)
	}
	if fields.Field("rating") == "" {
		t.Fatalf("expected rating field error, got %+v", fields)
	}
}

func TestStruct_Valid(t *testing.T) {
	err := validate.Struct(user.VerifyCodeRequest{Email: "ada@example.com", Code: "482913"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVar(t *testing.T) {
	err := validate.Var("email", "nope", "required,email")
	var fields validate.Errors
	if !errors.As(err, &fields) {
		t.Fatalf("expected validate.Errors, got %v", err)
	}
	if fields[0].Field != "email" || fields[0].Rule != "email" {
		t.Fatalf("unexpected field error: %+v", fields[0])
	}

	if err := validate.Var("email", "ada@example.com", "required,email"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
