package hanconv

import "fmt"

// UnsupportedConversionError reports a mode/locale combination that
// resolves to no known variant. It is detected before any document is
// touched, so a run failing with it has written nothing.
type UnsupportedConversionError struct {
	Mode   Mode
	Input  Locale
	Output Locale
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("unsupported conversion: %s from %s to %s", e.Mode, e.Input, e.Output)
}

// TransformError reports a failure while rewriting a specific document.
// The run aborts; documents already written stay written.
type TransformError struct {
	Name    string // href or identifier of the failing document
	Message string
	Cause   error
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transform %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("transform %s: %s", e.Name, e.Message)
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}

// ContainerError reports a failure at the document-container boundary
// (read, write, metadata access).
type ContainerError struct {
	Op    string
	ID    string
	Cause error
}

func (e *ContainerError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("container %s %s: %v", e.Op, e.ID, e.Cause)
	}
	return fmt.Sprintf("container %s: %v", e.Op, e.Cause)
}

func (e *ContainerError) Unwrap() error {
	return e.Cause
}

// ConverterError indicates a Converter backend failure (missing
// dictionary, API error, ...).
type ConverterError struct {
	Message   string
	Cause     error
	Retryable bool // whether the operation may succeed on retry
}

func (e *ConverterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("converter error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("converter error: %s", e.Message)
}

func (e *ConverterError) Unwrap() error {
	return e.Cause
}
