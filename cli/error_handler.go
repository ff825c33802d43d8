package cli

import (
	"fmt"
	"os"

	"github.com/forgetools/forge/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeRootNotSet:
		fmt.Fprintf(os.Stderr, "❌ No project root set. Run 'forge root <path>' first.\n")
		return err

	case errors.ErrCodePathOutsideRoot:
		if forgeErr, ok := err.(*errors.ForgeError); ok {
			fmt.Fprintf(os.Stderr, "❌ Path '%s' escapes the project root\n", forgeErr.Details["path"])
		}
		return err

	case errors.ErrCodeFileNotFound:
		if forgeErr, ok := err.(*errors.ForgeError); ok {
			fmt.Fprintf(os.Stderr, "❌ File '%s' not found in the project\n", forgeErr.Details["path"])
			fmt.Fprintf(os.Stderr, "Run 'forge files' to see tracked files.\n")
		}
		return err

	case errors.ErrCodeNoPendingModification:
		fmt.Fprintf(os.Stderr, "❌ No modification is staged. Run 'forge modify' first.\n")
		return err

	case errors.ErrCodeGeneration:
		fmt.Fprintf(os.Stderr, "❌ The model failed to produce usable output. Try rephrasing the instruction.\n")
		return err

	case errors.ErrCodeEditorFailed:
		if forgeErr, ok := err.(*errors.ForgeError); ok {
			fmt.Fprintf(os.Stderr, "❌ Could not launch editor '%s'\n", forgeErr.Details["editor"])
			fmt.Fprintf(os.Stderr, "Set editor.command in forge.yml or the EDITOR environment variable.\n")
		}
		return err

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a forge.yml in your project root.\n")
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if forgeErr, ok := err.(*errors.ForgeError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", forgeErr.ToJSON())
			}
		}
		return err
	}
}
