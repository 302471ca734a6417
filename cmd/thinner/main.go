package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"thinner/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err and the suggested fixes of its code.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var te *errors.ThinError
	if !stderrors.As(err, &te) || len(te.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(w, "Suggested fixes:")
	for _, fix := range te.SuggestedFixes {
		fmt.Fprintf(w, "  - %s\n", fix.Description)
		if fix.Command != "" {
			fmt.Fprintf(w, "    $ %s\n", fix.Command)
		}
	}
}
