package calculator

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"consumer360/pkg/models"
)

const (
	DefaultMinSupport    = 0.03
	DefaultLiftThreshold = 1.2
)

// Incidence est la matrice booléenne commandes × produits. Chaque colonne
// produit est un bitmap des index de commandes qui la contiennent.
type Incidence struct {
	Orders   []string
	Products []string
	Columns  []*roaring.Bitmap
}

// BuildIncidence pivote les lignes panier ; commandes et produits sont triés.
func BuildIncidence(lines []models.BasketLine) *Incidence {
	orderSet := make(map[string]struct{})
	productSet := make(map[string]struct{})
	for _, l := range lines {
		orderSet[l.OrderID] = struct{}{}
		productSet[l.ProductName] = struct{}{}
	}
	m := &Incidence{Orders: sortedKeys(orderSet), Products: sortedKeys(productSet)}

	orderIdx := indexOf(m.Orders)
	productIdx := indexOf(m.Products)
	m.Columns = make([]*roaring.Bitmap, len(m.Products))
	for i := range m.Columns {
		m.Columns[i] = roaring.New()
	}
	for _, l := range lines {
		m.Columns[productIdx[l.ProductName]].Add(uint32(orderIdx[l.OrderID]))
	}
	for _, c := range m.Columns {
		c.RunOptimize()
	}
	return m
}

// Contains indique si la commande o contient le produit p.
func (m *Incidence) Contains(o, p int) bool {
	return m.Columns[p].Contains(uint32(o))
}

// MineBasket construit la matrice, extrait les ensembles fréquents puis les
// règles dont le lift atteint le seuil. Aucun résultat n'est pas une erreur.
func MineBasket(lines []models.BasketLine, minSupport, liftThreshold float64) (models.BasketResult, error) {
	if minSupport <= 0 || minSupport > 1 {
		return models.BasketResult{}, fmt.Errorf("min_support doit être dans ]0,1]: %g", minSupport)
	}
	if liftThreshold <= 0 {
		return models.BasketResult{}, fmt.Errorf("lift_threshold doit être > 0: %g", liftThreshold)
	}

	m := BuildIncidence(lines)
	frequent := FrequentItemsets(m, minSupport)
	rules := AssociationRules(m, frequent, liftThreshold)

	res := models.BasketResult{
		Orders:   len(m.Orders),
		Products: len(m.Products),
		Itemsets: make([]models.Itemset, len(frequent)),
		Rules:    rules,
	}
	for i, f := range frequent {
		res.Itemsets[i] = models.Itemset{Items: f.names(m), Support: f.Support, Count: f.Count}
	}
	log.Debugf("[basket] orders=%d products=%d itemsets=%d rules=%d",
		res.Orders, res.Products, len(res.Itemsets), len(res.Rules))
	return res, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(values []string) map[string]int {
	idx := make(map[string]int, len(values))
	for i, v := range values {
		idx[v] = i
	}
	return idx
}
