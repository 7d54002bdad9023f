package metrics

import (
	"fmt"
	"io"
)

const summaryRule = "============================================================"
const summaryDivider = "------------------------------------------------------------"

// PrintTable writes a fixed-width results table in the reference tool's
// column layout: Sketch, Precision, Recall, F1-Score, Accuracy, ARE(%),
// AAE, WMRE(%).
func PrintTable(w io.Writer, title string, results []Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryRule)
	fmt.Fprintf(w, "%*s%s\n", (len(summaryRule)+len(title))/2, "", title)
	fmt.Fprintln(w, summaryRule)

	fmt.Fprintf(w, "%-20s%12s%12s%12s%12s%12s%12s%12s\n",
		"Sketch", "Precision", "Recall", "F1-Score", "Accuracy", "ARE(%)", "AAE", "WMRE(%)")
	fmt.Fprintln(w, summaryDivider)

	for _, r := range results {
		fmt.Fprintf(w, "%-20s%12.4f%12.4f%12.4f%12.4f%12.4f%12.4f%12.4f\n",
			r.SketchName,
			r.Precision()*100,
			r.Recall()*100,
			r.F1Score(),
			r.Accuracy()*100,
			r.Error.ARE*100,
			r.Error.AAE,
			r.Error.WMRE*100,
		)
	}

	fmt.Fprintln(w, summaryRule)
}
