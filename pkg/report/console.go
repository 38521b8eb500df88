package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"consumer360/pkg/models"
)

var (
	sep  = strings.Repeat("═", 64)
	thin = strings.Repeat("─", 64)
)

func header(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n", sep, title, thin)
}

// PrintRFMSample affiche les n premiers clients notés.
func PrintRFMSample(w io.Writer, records []models.RFMRecord, n int) {
	header(w, "Sample RFM segments")
	if len(records) == 0 {
		fmt.Fprintln(w, "  no rows")
		return
	}
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  customer_name\tR_score\tF_score\tM_score\tsegment")
	for _, r := range records {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%s\n", truncate(r.CustomerName, 32), r.RScore, r.FScore, r.MScore, r.Segment)
	}
	tw.Flush()
}

// PrintSegmentSummary affiche la dépense moyenne par segment.
func PrintSegmentSummary(w io.Writer, summary []models.SegmentSummary) {
	header(w, "Average Monetary by Segment (Validation)")
	if len(summary) == 0 {
		fmt.Fprintln(w, "  no rows")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  segment\tcustomers\tavg_monetary")
	for _, s := range summary {
		fmt.Fprintf(tw, "  %s\t%d\t%.2f\n", s.Segment, s.Customers, s.AvgMonetary)
	}
	tw.Flush()
}

// TopRules renvoie au plus n règles, triées par lift puis confiance puis support.
func TopRules(rules []models.Rule, n int) []models.Rule {
	sorted := append([]models.Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Lift != b.Lift {
			return a.Lift > b.Lift
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Support > b.Support
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// PrintRules affiche les n règles d'association les plus fortes.
func PrintRules(w io.Writer, res models.BasketResult, n int) {
	header(w, "Top Association Rules")
	fmt.Fprintf(w, "  orders=%d products=%d itemsets=%d rules=%d\n",
		res.Orders, res.Products, len(res.Itemsets), len(res.Rules))
	if len(res.Rules) == 0 {
		fmt.Fprintln(w, "  no rows")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  antecedents\tconsequents\tsupport\tconfidence\tlift")
	for _, r := range TopRules(res.Rules, n) {
		fmt.Fprintf(tw, "  %s\t%s\t%.4f\t%.4f\t%.4f\n",
			itemList(r.Antecedent), itemList(r.Consequent), r.Support, r.Confidence, r.Lift)
	}
	tw.Flush()
}

func itemList(items []string) string {
	return "{" + strings.Join(items, ", ") + "}"
}

func formatConviction(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", v)
}

// truncate coupe sur une frontière de rune pour rester en UTF-8 valide.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
