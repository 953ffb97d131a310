package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// request is not acceptable as it is.
	ErrInvalid = errors.New("invalid")

	// request conflicts with what is already stored.
	ErrConflict = errors.New("conflict")

	// requested entity is not stored.
	ErrMissing = errors.New("missing")

	// the user is not allowed to change the entity.
	ErrForbidden = errors.New("forbidden")

	// the store can not reach its database for now.
	ErrUnavailable = errors.New("unavailable")
)

var (
	ErrNotFound = fmt.Errorf("%w: not found", ErrMissing)

	ErrInvalidTree             = fmt.Errorf("%w: invalid plugin tree", ErrInvalid)
	ErrDisconnectedTree        = fmt.Errorf("%w: plugin tree is not connected", ErrInvalid)
	ErrInvalidParameterDefault = fmt.Errorf("%w: invalid parameter default", ErrInvalid)
	ErrIncompleteDefaults      = fmt.Errorf("%w: parameter defaults are incomplete", ErrInvalid)

	ErrInvalidDescriptor     = fmt.Errorf("%w: invalid descriptor", ErrInvalid)
	ErrMissingDescriptor     = fmt.Errorf("%w: descriptor field is missing", ErrInvalidDescriptor)
	ErrInvalidDefaultValue   = fmt.Errorf("%w: default value does not match the parameter type", ErrInvalidDescriptor)
	ErrInvalidResourceLimits = fmt.Errorf("%w: invalid resource limits", ErrInvalidDescriptor)
	ErrInvalidParameterType  = fmt.Errorf("%w: invalid parameter type", ErrInvalidDescriptor)
	ErrMissingDefault        = fmt.Errorf("%w: optional parameter has no default", ErrInvalidDescriptor)
	ErrInvalidPluginMeta     = fmt.Errorf("%w: invalid plugin metadata", ErrInvalid)
	ErrInvalidPipeline       = fmt.Errorf("%w: invalid pipeline", ErrInvalid)

	ErrOwnershipConflict = fmt.Errorf("%w: plugin name is owned by other users", ErrConflict)
	ErrDuplicateVersion  = fmt.Errorf("%w: plugin version already exists", ErrConflict)
	ErrDuplicateImage    = fmt.Errorf("%w: docker image is already used by other version", ErrConflict)
	ErrDuplicatePipeline = fmt.Errorf("%w: pipeline name already exists", ErrConflict)
)

// Field keys of ValidationError.
const (
	FieldPluginTree     = "plugin_tree"
	FieldLocked         = "locked"
	FieldNonField       = "non_field_errors"
	FieldDescriptorFile = "descriptor_file"
	FieldName           = "name"
	FieldPublicRepo     = "public_repo"
	FieldDockImage      = "dock_image"
	FieldNewOwner       = "new_owner"
	FieldDefaults       = "plugin_parameter_defaults"
)

// ValidationError reports rejected input, keyed by the offending request field.
//
// It is errors.Is-equal to its kind (one of the Err* sentinels above).
type ValidationError struct {
	Field    string
	Messages []string
	kind     error
}

func NewValidationError(kind error, field string, messages ...string) *ValidationError {
	return &ValidationError{Field: field, Messages: messages, kind: kind}
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", v.kind, v.Field, strings.Join(v.Messages, "; "))
}

func (v *ValidationError) Unwrap() error {
	return v.kind
}

// Kind returns the sentinel this error is classified as.
func (v *ValidationError) Kind() error {
	return v.kind
}
