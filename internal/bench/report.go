package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteTable renders results as an aligned comparison table. Decimal
// numbers are formatted for tag.
func WriteTable(w io.Writer, results []AlgorithmResult, tag language.Tag) error {
	p := message.NewPrinter(tag)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Algorithm\tAvg PSNR (dB)\tRuntime (s)\tRuntime\tAvg SP/MB\tSearch points")
	for _, r := range results {
		runtime := time.Duration(r.RuntimeSeconds * float64(time.Second))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Strategy,
			p.Sprintf("%.3f", r.AvgPSNR),
			p.Sprintf("%.3f", r.RuntimeSeconds),
			FormatDuration(runtime),
			p.Sprintf("%.2f", r.AvgSearchPointsPerBlock),
			humanize.Comma(r.TotalSearchPoints),
		)
	}
	return tw.Flush()
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []AlgorithmResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// FormatDuration renders d with its two most significant units, such as
// "1 minute 12 seconds". Sub-millisecond durations print as "0 seconds".
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "0 seconds"
	}
	return durafmt.Parse(d.Round(time.Millisecond)).LimitFirstN(2).String()
}
