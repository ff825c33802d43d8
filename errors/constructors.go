package errors

import "fmt"

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ForgeError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ForgeError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// InvalidPath creates an error for a project root that does not exist or is
// not a directory.
func InvalidPath(path string, reason string) *ForgeError {
	return New(ErrCodeInvalidPath, fmt.Sprintf("invalid path '%s': %s", path, reason)).
		WithDetail("path", path)
}

// PathOutsideRoot creates a path traversal error.
func PathOutsideRoot(rel string) *ForgeError {
	return New(ErrCodePathOutsideRoot, fmt.Sprintf("path '%s' resolves outside the project root", rel)).
		WithDetail("path", rel)
}

// FileNotFound creates a missing file error.
func FileNotFound(rel string) *ForgeError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", rel)).
		WithDetail("path", rel)
}

// RootNotSet signals that an operation ran before /set_project_root.
func RootNotSet() *ForgeError {
	return New(ErrCodeRootNotSet, "project root not set")
}

// IO wraps a filesystem failure.
func IO(err error, op string, path string) *ForgeError {
	return Wrap(err, ErrCodeIO, fmt.Sprintf("could not %s %s", op, path)).
		WithDetail("path", path).
		WithDetail("op", op)
}

// Generation wraps an LLM failure or unusable reply.
func Generation(err error, reason string) *ForgeError {
	if err != nil {
		return Wrap(err, ErrCodeGeneration, reason)
	}
	return New(ErrCodeGeneration, reason)
}

// NoPendingModification signals confirm/cancel with nothing staged.
func NoPendingModification(rel string) *ForgeError {
	return New(ErrCodeNoPendingModification,
		fmt.Sprintf("no pending modification for '%s'; run modify first", rel)).
		WithDetail("path", rel)
}

// EditorFailed wraps an editor launch failure. Callers treat this as a
// warning, never as an operation failure.
func EditorFailed(err error, editor string, path string) *ForgeError {
	return Wrap(err, ErrCodeEditorFailed, fmt.Sprintf("editor '%s' failed for %s", editor, path)).
		WithDetail("editor", editor).
		WithDetail("path", path)
}
