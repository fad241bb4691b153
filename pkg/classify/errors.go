package classify

import "errors"

// Sentinel errors for classification failures.
var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("classify: model not found")

	// ErrModelLoad is returned when the model cannot be loaded.
	ErrModelLoad = errors.New("classify: model load failed")

	// ErrInvalidImage is returned when the input cannot be decoded.
	ErrInvalidImage = errors.New("classify: invalid image")

	// ErrLabelMismatch is returned when output size and label count differ.
	ErrLabelMismatch = errors.New("classify: output size does not match labels")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("classify: classifier closed")
)
