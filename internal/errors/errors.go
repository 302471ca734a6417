package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// UnresolvedReference indicates a reference with no canonical definition
	UnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	// DummyEntity indicates an attempt to retain a placeholder entity
	DummyEntity ErrorCode = "DUMMY_ENTITY"
	// HiddenInterfaceMember indicates a visible interface would expose a hidden member
	HiddenInterfaceMember ErrorCode = "HIDDEN_INTERFACE_MEMBER"
	// DuplicateSignature indicates two members share one signature key
	DuplicateSignature ErrorCode = "DUPLICATE_SIGNATURE"
	// BaseTypeHidden indicates a hidden base class under a visible derived type
	BaseTypeHidden ErrorCode = "BASE_TYPE_HIDDEN"
	// InconsistentStatus indicates an Api element nested under an Impl element
	InconsistentStatus ErrorCode = "INCONSISTENT_STATUS"
	// StatusMissing indicates a retained entity without an inclusion status
	StatusMissing ErrorCode = "STATUS_MISSING"
	// ModelInvalid indicates a malformed root model file
	ModelInvalid ErrorCode = "MODEL_INVALID"
	// CatalogInvalid indicates a malformed metadata catalog
	CatalogInvalid ErrorCode = "CATALOG_INVALID"
	// ConfigInvalid indicates invalid configuration values
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// StorageFailed indicates the run history database failed
	StorageFailed ErrorCode = "STORAGE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditModel suggests editing the root model file
	EditModel FixActionType = "edit-model"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// ThinError represents a thinner error with code, message, and suggestions
type ThinError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a ThinError carrying the default fixes for its code.
func New(code ErrorCode, message string, cause error) *ThinError {
	return &ThinError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *ThinError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *ThinError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ThinError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ThinError) WithDetails(details interface{}) *ThinError {
	e.Details = details
	return e
}

// CodeOf returns the code of the outermost ThinError in err's chain,
// or InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var te *ThinError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return InternalError
}

// HasCode reports whether any ThinError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var te *ThinError
		if !stderrors.As(err, &te) {
			return false
		}
		if te.Code == code {
			return true
		}
		err = te.cause
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	UnresolvedReference: {
		{
			Type:        RunCommand,
			Command:     "thinner catalog --check",
			Safe:        true,
			Description: "Verify that every referenced assembly is present in the catalog",
		},
	},
	HiddenInterfaceMember: {
		{
			Type:        EditModel,
			Description: "Add the missing property or event accessor to the root model",
		},
	},
	InconsistentStatus: {
		{
			Type:        EditModel,
			Description: "Api elements cannot be declared under an ImplRoot or ImplClosure parent",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "thinner config show",
			Safe:        true,
			Description: "Inspect the effective configuration",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
