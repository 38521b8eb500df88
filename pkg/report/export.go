package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"consumer360/pkg/models"
)

// Summary : document JSON écrit à côté des exports CSV.
type Summary struct {
	RunID        string                  `json:"run_id"`
	GeneratedAt  string                  `json:"generated_at"`
	AnalysisDate string                  `json:"analysis_date,omitempty"`
	Customers    int                     `json:"customers"`
	Segments     []models.SegmentSummary `json:"segments,omitempty"`
	Orders       int                     `json:"orders"`
	Itemsets     []models.Itemset        `json:"itemsets,omitempty"`
	Rules        []RuleJSON              `json:"rules,omitempty"`
}

// RuleJSON reprend models.Rule ; une conviction infinie devient null.
type RuleJSON struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
	Leverage   float64  `json:"leverage"`
	Conviction *float64 `json:"conviction"`
}

// NewRuleJSON convertit les règles, encoding/json refuse +Inf.
func NewRuleJSON(rules []models.Rule) []RuleJSON {
	out := make([]RuleJSON, len(rules))
	for i, r := range rules {
		out[i] = RuleJSON{
			Antecedent: r.Antecedent,
			Consequent: r.Consequent,
			Support:    r.Support,
			Confidence: r.Confidence,
			Lift:       r.Lift,
			Leverage:   r.Leverage,
		}
		if !math.IsInf(r.Conviction, 0) && !math.IsNaN(r.Conviction) {
			c := r.Conviction
			out[i].Conviction = &c
		}
	}
	return out
}

// ExportJSON écrit data en JSON indenté et crée le dossier si besoin.
func ExportJSON(filename string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// WriteRFMCSV écrit la table RFM avec les colonnes de la table résultat.
func WriteRFMCSV(filename string, records []models.RFMRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CustomerID,
			r.CustomerName,
			strconv.Itoa(r.Recency),
			strconv.Itoa(r.Frequency),
			strconv.FormatFloat(r.Monetary, 'f', -1, 64),
			strconv.Itoa(r.RScore),
			strconv.Itoa(r.FScore),
			strconv.Itoa(r.MScore),
			r.RFMScore,
			string(r.Segment),
		})
	}
	return writeCSV(filename, []string{
		"customer_id", "customer_name", "recency", "frequency", "monetary",
		"R_score", "F_score", "M_score", "RFM_score", "segment",
	}, rows)
}

// WriteRulesCSV écrit toutes les règles avec leurs métriques.
func WriteRulesCSV(filename string, rules []models.Rule) error {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			itemList(r.Antecedent),
			itemList(r.Consequent),
			strconv.FormatFloat(r.AntecedentSupport, 'f', 6, 64),
			strconv.FormatFloat(r.ConsequentSupport, 'f', 6, 64),
			strconv.FormatFloat(r.Support, 'f', 6, 64),
			strconv.FormatFloat(r.Confidence, 'f', 6, 64),
			strconv.FormatFloat(r.Lift, 'f', 6, 64),
			strconv.FormatFloat(r.Leverage, 'f', 6, 64),
			formatConviction(r.Conviction),
		})
	}
	return writeCSV(filename, []string{
		"antecedents", "consequents", "antecedent_support", "consequent_support",
		"support", "confidence", "lift", "leverage", "conviction",
	}, rows)
}

func writeCSV(filename string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv: write rows: %w", err)
	}
	return f.Close()
}

// TimestampedFilename → <baseDir>/<name>_<YYYYMMDD_HHMMSS>.<ext>
func TimestampedFilename(baseDir, name, ext string, now time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), ext))
}
