package calculator

import (
	"sort"

	"consumer360/pkg/models"
)

// SegmentFor applique les règles dans l'ordre, la première qui correspond gagne.
func SegmentFor(r, f, m int) models.Segment {
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return models.SegmentChampions
	case f >= 4:
		return models.SegmentLoyal
	case r <= 2 && f >= 3:
		return models.SegmentAtRisk
	default:
		return models.SegmentHibernating
	}
}

// SummarizeSegments : dépense moyenne par segment, décroissante.
func SummarizeSegments(records []models.RFMRecord) []models.SegmentSummary {
	type acc struct {
		n   int
		sum float64
	}
	bySeg := make(map[models.Segment]*acc)
	for _, r := range records {
		a, ok := bySeg[r.Segment]
		if !ok {
			a = &acc{}
			bySeg[r.Segment] = a
		}
		a.n++
		a.sum += r.Monetary
	}

	out := make([]models.SegmentSummary, 0, len(bySeg))
	for seg, a := range bySeg {
		out = append(out, models.SegmentSummary{
			Segment:     seg,
			Customers:   a.n,
			AvgMonetary: a.sum / float64(a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMonetary != out[j].AvgMonetary {
			return out[i].AvgMonetary > out[j].AvgMonetary
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}
