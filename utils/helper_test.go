package utils

import (
	"strings"
	"testing"
)

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name string `validate:"required"`
		Memo string `validate:"max=3"`
	}
	if err := ValidateStruct(input{Name: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ValidateStruct(input{Memo: "toolong"})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Name") || !strings.Contains(msg, "required") {
		t.Errorf("error should name the failing field and tag, got %q", msg)
	}
	if !strings.Contains(msg, "Memo") || !strings.Contains(msg, "max") {
		t.Errorf("error should report every failing field, got %q", msg)
	}
}

func TestParseDecimal(t *testing.T) {
	dec, err := ParseDecimal("  1200.005 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.String() != "1200.01" {
		t.Errorf("got %s, want 1200.01", dec)
	}

	if _, err := ParseDecimal(""); err == nil {
		t.Error("empty string should fail")
	}
	if _, err := ParseDecimal("12,00"); err == nil {
		t.Error("malformed number should fail")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Errorf("got %v", got)
	}
}

func TestMergeIntSlices(t *testing.T) {
	got := MergeIntSlices([]int{1, 2}, []int{2, 3})
	if len(got) != 3 {
		t.Errorf("got %v", got)
	}
}

func TestDereferencePtr(t *testing.T) {
	if DereferencePtr[int](nil) != 0 {
		t.Error("nil without default should give zero value")
	}
	if DereferencePtr(nil, 7) != 7 {
		t.Error("nil with default should give the default")
	}
	v := 5
	if DereferencePtr(&v, 7) != 5 {
		t.Error("non-nil should dereference")
	}
}
