// Command seoscout crawls a site starting from one URL and reports the
// on-page SEO issues it finds, per spec.md.
package main

import (
	"errors"
	"fmt"
	"os"

	"seoscout/internal/apperr"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			os.Exit(appErr.ExitCode())
		}
		os.Exit(1)
	}
}
