package calculator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/op/go-logging"

	"consumer360/pkg/models"
)

var log = logging.MustGetLogger("log")

// DefaultQuantileCount : nombre de groupes RFM.
const DefaultQuantileCount = 5

const day = 24 * time.Hour

type customerKey struct {
	id   string
	name string
}

type customerAgg struct {
	last     time.Time
	orders   map[string]struct{}
	monetary float64
}

// ComputeRFM agrège, note et segmente les clients à partir des lignes de commande.
// La date d'analyse vaut max(order_date) + 1 jour.
func ComputeRFM(lines []models.OrderLine, q int) (models.RFMResult, error) {
	if q < 1 || q > 9 {
		return models.RFMResult{}, fmt.Errorf("quantile_count hors bornes [1,9]: %d", q)
	}
	if len(lines) == 0 {
		return models.RFMResult{Records: []models.RFMRecord{}, Segments: []models.SegmentSummary{}}, nil
	}

	analysisDate := AnalysisDate(lines)
	records := Aggregate(lines, analysisDate)
	Score(records, q)
	for i := range records {
		r := &records[i]
		r.RFMScore = fmt.Sprintf("%d%d%d", r.RScore, r.FScore, r.MScore)
		r.Segment = SegmentFor(r.RScore, r.FScore, r.MScore)
	}

	log.Debugf("[rfm] analysis_date=%s customers=%d", analysisDate.Format("2006-01-02"), len(records))
	if len(records) < q {
		log.Warningf("[rfm] only %d customers for %d quantiles: scores use fewer bins", len(records), q)
	}

	return models.RFMResult{
		AnalysisDate: analysisDate,
		Records:      records,
		Segments:     SummarizeSegments(records),
	}, nil
}

// AnalysisDate : lendemain de la commande la plus récente.
func AnalysisDate(lines []models.OrderLine) time.Time {
	var latest time.Time
	for _, l := range lines {
		if l.OrderDate.After(latest) {
			latest = l.OrderDate
		}
	}
	return latest.Add(day)
}

// Aggregate regroupe par (customer_id, customer_name) : récence en jours
// entiers, nombre de commandes distinctes, somme des montants. Une ligne sans
// order_id compte dans le montant mais pas dans la fréquence. Le résultat est
// trié par identifiant client puis par nom.
func Aggregate(lines []models.OrderLine, analysisDate time.Time) []models.RFMRecord {
	aggs := make(map[customerKey]*customerAgg)
	for _, l := range lines {
		k := customerKey{id: l.CustomerID, name: l.CustomerName}
		a, ok := aggs[k]
		if !ok {
			a = &customerAgg{last: l.OrderDate, orders: make(map[string]struct{})}
			aggs[k] = a
		}
		if l.OrderDate.After(a.last) {
			a.last = l.OrderDate
		}
		if l.OrderID != "" {
			a.orders[l.OrderID] = struct{}{}
		}
		a.monetary += l.TotalAmount
	}

	keys := make([]customerKey, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := compareIDs(keys[i].id, keys[j].id); c != 0 {
			return c < 0
		}
		return keys[i].name < keys[j].name
	})

	records := make([]models.RFMRecord, len(keys))
	for i, k := range keys {
		a := aggs[k]
		records[i] = models.RFMRecord{
			CustomerID:   k.id,
			CustomerName: k.name,
			Recency:      int(analysisDate.Sub(a.last) / day),
			Frequency:    len(a.orders),
			Monetary:     a.monetary,
		}
	}
	return records
}

// Score attribue R, F et M dans [1, q]. La récence est inversée (plus récent →
// score le plus haut) ; la fréquence est d'abord classée (ex aequo par ordre
// d'apparition) pour garantir des bornes distinctes.
func Score(records []models.RFMRecord, q int) {
	recency := make([]float64, len(records))
	frequency := make([]float64, len(records))
	monetary := make([]float64, len(records))
	for i, r := range records {
		recency[i] = float64(r.Recency)
		frequency[i] = float64(r.Frequency)
		monetary[i] = r.Monetary
	}

	rBins := QuantileBins(recency, q)
	fBins := QuantileBins(RankFirst(frequency), q)
	mBins := QuantileBins(monetary, q)
	for i := range records {
		records[i].RScore = q + 1 - rBins[i]
		records[i].FScore = fBins[i]
		records[i].MScore = mBins[i]
	}
}

// compareIDs compare numériquement quand les deux identifiants sont entiers.
func compareIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		// "007" et "7" : même valeur, ordre textuel pour rester total
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
