package report

import (
	"fmt"
	"io"
)

// WriteText writes human-readable validation output to w: every
// retained message, then a one-line summary covering all four
// severity classes.
func (r *Report) WriteText(w io.Writer) {
	for _, m := range r.Messages {
		fmt.Fprintln(w, m.String())
	}
	if r.IsValid() {
		fmt.Fprintln(w, "No errors or warnings detected.")
		if n := r.UsageCount(); n > 0 {
			fmt.Fprintf(w, "Usage observations: %d\n", n)
		}
		return
	}
	fmt.Fprintf(w, "Check finished. Fatal: %d, Errors: %d, Warnings: %d, Usage: %d\n",
		r.FatalCount(), r.ErrorCount(), r.WarningCount(), r.UsageCount())
}
