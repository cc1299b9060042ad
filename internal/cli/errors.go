package cli

import (
	"fmt"
	"os"

	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// PrintError prints an error to stderr with appropriate formatting.
// Coded errors use their user-facing message; others print as-is.
func PrintError(err error) {
	if iskaErr := iskaerrors.AsError(err); iskaErr != nil {
		fmt.Fprintln(os.Stderr, iskaErr.UserMessage())
		if verbose {
			fmt.Fprintf(os.Stderr, "\nCode: %s\n", iskaErr.Code)
			if iskaErr.Cause != nil {
				fmt.Fprintf(os.Stderr, "Cause: %v\n", iskaErr.Cause)
			}
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
