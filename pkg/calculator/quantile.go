package calculator

import (
	"math"
	"sort"
)

// QuantileBins répartit values en q groupes d'effectif égal et renvoie pour
// chaque valeur un numéro de groupe dense dans [1, k], k <= q.
//
// Les bornes sont les quantiles empiriques i/q (interpolation linéaire). Les
// bornes dupliquées sont fusionnées : une métrique avec peu de valeurs
// distinctes, ou une population plus petite que q, produit moins de q groupes
// au lieu d'échouer. Les intervalles sont fermés à droite, la borne basse est
// incluse dans le premier. Seuls les groupes occupés sont numérotés.
func QuantileBins(values []float64, q int) []int {
	out := make([]int, len(values))
	if len(values) == 0 || q < 1 {
		return out
	}

	edges := uniqueEdges(quantileEdges(values, q))
	raw := make([]int, len(values))
	last := len(edges) - 2 // index du dernier intervalle
	for i, v := range values {
		if last < 0 {
			raw[i] = 0 // une seule borne : métrique constante
			continue
		}
		j := sort.SearchFloat64s(edges[1:], v)
		if j > last {
			j = last
		}
		raw[i] = j
	}

	// renumérotation dense des groupes occupés
	occupied := make(map[int]struct{}, q)
	for _, b := range raw {
		occupied[b] = struct{}{}
	}
	keys := make([]int, 0, len(occupied))
	for b := range occupied {
		keys = append(keys, b)
	}
	sort.Ints(keys)
	dense := make(map[int]int, len(keys))
	for i, b := range keys {
		dense[b] = i + 1
	}
	for i, b := range raw {
		out[i] = dense[b]
	}
	return out
}

// quantileEdges renvoie les q+1 quantiles empiriques aux niveaux i/q.
func quantileEdges(values []float64, q int) []float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	edges := make([]float64, q+1)
	for i := 0; i <= q; i++ {
		h := float64(i*(n-1)) / float64(q)
		lo := int(math.Floor(h))
		hi := lo + 1
		if hi > n-1 {
			hi = n - 1
		}
		edges[i] = s[lo] + (h-float64(lo))*(s[hi]-s[lo])
	}
	return edges
}

func uniqueEdges(edges []float64) []float64 {
	out := edges[:0:0]
	for i, e := range edges {
		if i == 0 || e != out[len(out)-1] {
			out = append(out, e)
		}
	}
	return out
}

// RankFirst classe les valeurs de 1 à n ; les ex aequo sont départagés par
// ordre d'apparition.
func RankFirst(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})
	ranks := make([]float64, len(values))
	for r, i := range idx {
		ranks[i] = float64(r + 1)
	}
	return ranks
}
