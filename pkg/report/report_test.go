package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consumer360/pkg/models"
)

func sampleRules() []models.Rule {
	return []models.Rule{
		{Antecedent: []string{"Milk"}, Consequent: []string{"Bread"}, Support: 0.2, Confidence: 0.5, Lift: 1.3, Conviction: 1.2},
		{Antecedent: []string{"Eggs"}, Consequent: []string{"Bacon"}, Support: 0.1, Confidence: 1, Lift: 2.5, Conviction: math.Inf(1)},
		{Antecedent: []string{"Tea"}, Consequent: []string{"Cake"}, Support: 0.3, Confidence: 0.7, Lift: 1.3, Conviction: 2},
	}
}

func TestTopRules_OrderAndLimit(t *testing.T) {
	top := TopRules(sampleRules(), 2)
	require.Len(t, top, 2)
	assert.Equal(t, []string{"Eggs"}, top[0].Antecedent)
	assert.Equal(t, []string{"Tea"}, top[1].Antecedent, "equal lift falls back to confidence")
	assert.Len(t, TopRules(sampleRules(), 0), 3)
}

func TestPrint_ZeroRows(t *testing.T) {
	var buf bytes.Buffer
	PrintRFMSample(&buf, nil, 5)
	PrintSegmentSummary(&buf, nil)
	PrintRules(&buf, models.BasketResult{}, 5)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("no rows")))
}

func TestPrintRFMSample_LimitsRows(t *testing.T) {
	records := []models.RFMRecord{
		{CustomerName: "Alice", RScore: 5, FScore: 5, MScore: 5, Segment: models.SegmentChampions},
		{CustomerName: "Bob", RScore: 1, FScore: 1, MScore: 1, Segment: models.SegmentHibernating},
	}
	var buf bytes.Buffer
	PrintRFMSample(&buf, records, 1)
	assert.Contains(t, buf.String(), "Alice")
	assert.NotContains(t, buf.String(), "Bob")
	assert.Contains(t, buf.String(), "Champions")
}

func TestTruncate_KeepsValidUTF8(t *testing.T) {
	name := strings.Repeat("a", 28) + "éxxxx"
	got := truncate(name, 32)
	assert.True(t, utf8.ValidString(got), "%q", got)
	assert.Equal(t, strings.Repeat("a", 28)+"é...", got)
	assert.Equal(t, "Zoé", truncate("Zoé", 32))

	var buf bytes.Buffer
	PrintRFMSample(&buf, []models.RFMRecord{{CustomerName: strings.Repeat("é", 40)}}, 5)
	assert.True(t, utf8.Valid(buf.Bytes()))
}

func TestPrintRules(t *testing.T) {
	var buf bytes.Buffer
	PrintRules(&buf, models.BasketResult{Orders: 10, Rules: sampleRules()}, 5)
	out := buf.String()
	assert.Contains(t, out, "{Eggs}")
	assert.Contains(t, out, "2.5000")
}

func TestExportJSON_InfiniteConvictionIsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.json")
	err := ExportJSON(path, Summary{RunID: "r1", Rules: NewRuleJSON(sampleRules())})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Rules, 3)
	assert.Nil(t, got.Rules[1].Conviction)
	require.NotNil(t, got.Rules[0].Conviction)
	assert.Equal(t, 1.2, *got.Rules[0].Conviction)
}

func TestWriteRFMCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.csv")
	require.NoError(t, WriteRFMCSV(path, []models.RFMRecord{{
		CustomerID: "1", CustomerName: "Alice", Recency: 3, Frequency: 2, Monetary: 99.5,
		RScore: 5, FScore: 4, MScore: 3, RFMScore: "543", Segment: models.SegmentLoyal,
	}}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "R_score", rows[0][5])
	assert.Equal(t, []string{"1", "Alice", "3", "2", "99.5", "5", "4", "3", "543", "Loyal Customers"}, rows[1])
}

func TestWriteRulesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, WriteRulesCSV(path, sampleRules()))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "inf")
}

func TestTimestampedFilename(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	got := TimestampedFilename("out", "rfm_result", "csv", now)
	assert.Equal(t, filepath.Join("out", "rfm_result_20250304_050607.csv"), got)
}
