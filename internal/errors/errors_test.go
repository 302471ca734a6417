package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(UnresolvedReference, "type Ns.Missing not found", cause)

	if err.Code != UnresolvedReference {
		t.Errorf("Code = %v, want %v", err.Code, UnresolvedReference)
	}
	if err.Message != "type Ns.Missing not found" {
		t.Errorf("Message = %q, want %q", err.Message, "type Ns.Missing not found")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestThinError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ModelInvalid,
			message:   "cannot read model",
			cause:     errors.New("unexpected EOF"),
			wantParts: []string{"MODEL_INVALID", "cannot read model", "unexpected EOF"},
		},
		{
			name:      "without cause",
			code:      DuplicateSignature,
			message:   "two members share Method : Foo",
			wantParts: []string{"DUPLICATE_SIGNATURE", "Method : Foo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestThinError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	if Newf(StatusMissing, "member %s", "Foo").Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct", Newf(DummyEntity, "dummy"), DummyEntity},
		{"wrapped", fmt.Errorf("closure: %w", Newf(BaseTypeHidden, "base")), BaseTypeHidden},
		{"plain", errors.New("plain"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := Newf(UnresolvedReference, "missing")
	outer := New(ModelInvalid, "bind failed", inner)

	if !HasCode(outer, ModelInvalid) {
		t.Error("HasCode(outer, ModelInvalid) = false, want true")
	}
	if !HasCode(outer, UnresolvedReference) {
		t.Error("HasCode(outer, UnresolvedReference) = false, want true")
	}
	if HasCode(outer, DummyEntity) {
		t.Error("HasCode(outer, DummyEntity) = true, want false")
	}
	if HasCode(nil, ModelInvalid) {
		t.Error("HasCode(nil) = true, want false")
	}
}

func TestWithDetails(t *testing.T) {
	err := Newf(HiddenInterfaceMember, "hidden").WithDetails(map[string]string{"member": "Method : Foo"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["member"] != "Method : Foo" {
		t.Errorf("Details = %v, want member detail", err.Details)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(HiddenInterfaceMember); len(fixes) == 0 {
		t.Error("expected fixes for HiddenInterfaceMember")
	}
	if fixes := GetSuggestedFixes(InternalError); fixes != nil {
		t.Errorf("GetSuggestedFixes(InternalError) = %v, want nil", fixes)
	}
}
