package calculator

import (
	"math"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"consumer360/pkg/models"
)

// FrequentSet est un ensemble fréquent exprimé en index de produits (croissants).
type FrequentSet struct {
	Items   []int
	Count   int
	Support float64
	cover   *roaring.Bitmap
}

func (f FrequentSet) names(m *Incidence) []string {
	out := make([]string, len(f.Items))
	for i, p := range f.Items {
		out[i] = m.Products[p]
	}
	return out
}

// FrequentItemsets applique Apriori : génération niveau par niveau à partir
// des ensembles fréquents de taille k-1 partageant un préfixe, élagage des
// candidats dont un sous-ensemble n'est pas fréquent, puis comptage du support
// par intersection des bitmaps. Résultat trié par taille puis par index.
func FrequentItemsets(m *Incidence, minSupport float64) []FrequentSet {
	n := len(m.Orders)
	if n == 0 {
		return nil
	}

	var current []FrequentSet
	for p, col := range m.Columns {
		c := int(col.GetCardinality())
		if s := float64(c) / float64(n); s >= minSupport {
			current = append(current, FrequentSet{Items: []int{p}, Count: c, Support: s, cover: col})
		}
	}

	var all []FrequentSet
	for k := 2; len(current) > 0; k++ {
		all = append(all, current...)
		log.Debugf("[apriori] level=%d frequent=%d", k-1, len(current))

		known := make(map[string]struct{}, len(current))
		for _, f := range current {
			known[itemKey(f.Items)] = struct{}{}
		}

		var next []FrequentSet
		for i := 0; i < len(current); i++ {
			for j := i + 1; j < len(current) && samePrefix(current[i].Items, current[j].Items); j++ {
				a, b := current[i], current[j]
				cand := make([]int, k)
				copy(cand, a.Items)
				cand[k-1] = b.Items[k-2]
				if !allSubsetsKnown(cand, known) {
					continue
				}
				cover := roaring.And(a.cover, b.cover)
				c := int(cover.GetCardinality())
				if s := float64(c) / float64(n); s >= minSupport {
					next = append(next, FrequentSet{Items: cand, Count: c, Support: s, cover: cover})
				}
			}
		}
		current = next
	}
	return all
}

// AssociationRules dérive toutes les règles A → C (A, C non vides, disjoints,
// A ∪ C fréquent) et garde celles dont le lift atteint le seuil.
func AssociationRules(m *Incidence, frequent []FrequentSet, minLift float64) []models.Rule {
	rules := []models.Rule{}
	if len(m.Orders) == 0 {
		return rules
	}
	support := make(map[string]float64, len(frequent))
	for _, f := range frequent {
		support[itemKey(f.Items)] = f.Support
	}

	for _, f := range frequent {
		k := len(f.Items)
		if k < 2 {
			continue
		}
		for mask := 1; mask < (1<<k)-1; mask++ {
			var ante, cons []int
			for i, p := range f.Items {
				if mask&(1<<i) != 0 {
					ante = append(ante, p)
				} else {
					cons = append(cons, p)
				}
			}
			sA, okA := support[itemKey(ante)]
			sC, okC := support[itemKey(cons)]
			if !okA || !okC {
				continue
			}
			confidence := f.Support / sA
			lift := confidence / sC
			if lift < minLift {
				continue
			}
			conviction := math.Inf(1)
			if confidence < 1 {
				conviction = (1 - sC) / (1 - confidence)
			}
			rules = append(rules, models.Rule{
				Antecedent:        FrequentSet{Items: ante}.names(m),
				Consequent:        FrequentSet{Items: cons}.names(m),
				AntecedentSupport: sA,
				ConsequentSupport: sC,
				Support:           f.Support,
				Confidence:        confidence,
				Lift:              lift,
				Leverage:          f.Support - sA*sC,
				Conviction:        conviction,
			})
		}
	}
	return rules
}

func itemKey(items []int) string {
	parts := make([]string, len(items))
	for i, p := range items {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func samePrefix(a, b []int) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allSubsetsKnown vérifie l'anti-monotonie : chaque sous-ensemble de taille
// k-1 doit être fréquent.
func allSubsetsKnown(cand []int, known map[string]struct{}) bool {
	sub := make([]int, 0, len(cand)-1)
	for drop := range cand {
		sub = sub[:0]
		for i, p := range cand {
			if i != drop {
				sub = append(sub, p)
			}
		}
		if _, ok := known[itemKey(sub)]; !ok {
			return false
		}
	}
	return true
}
