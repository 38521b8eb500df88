package calculator

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consumer360/pkg/models"
)

func basket(orders map[string][]string) []models.BasketLine {
	var lines []models.BasketLine
	for o, products := range orders {
		for _, p := range products {
			lines = append(lines, models.BasketLine{OrderID: o, ProductName: p})
		}
	}
	return lines
}

func findItemset(sets []models.Itemset, items ...string) (models.Itemset, bool) {
	key := strings.Join(items, "|")
	for _, s := range sets {
		if strings.Join(s.Items, "|") == key {
			return s, true
		}
	}
	return models.Itemset{}, false
}

func TestBuildIncidence(t *testing.T) {
	m := BuildIncidence(basket(map[string][]string{
		"o2": {"Milk", "Bread", "Milk"},
		"o1": {"Eggs"},
	}))
	assert.Equal(t, []string{"o1", "o2"}, m.Orders)
	assert.Equal(t, []string{"Bread", "Eggs", "Milk"}, m.Products)
	assert.True(t, m.Contains(1, 0))
	assert.True(t, m.Contains(1, 2))
	assert.False(t, m.Contains(0, 2))
	assert.Equal(t, uint64(1), m.Columns[2].GetCardinality(), "duplicate lines count once")
}

func TestMineBasket_MilkBread(t *testing.T) {
	res, err := MineBasket(basket(map[string][]string{
		"1": {"Milk", "Bread"},
		"2": {"Milk", "Bread", "Eggs"},
	}), 0.03, 1.2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Orders)
	assert.Equal(t, 3, res.Products)

	mb, ok := findItemset(res.Itemsets, "Bread", "Milk")
	require.True(t, ok, "itemset {Bread, Milk} missing: %+v", res.Itemsets)
	assert.Equal(t, 1.0, mb.Support)
	assert.Equal(t, 2, mb.Count)

	all, ok := findItemset(res.Itemsets, "Bread", "Eggs", "Milk")
	require.True(t, ok)
	assert.Equal(t, 0.5, all.Support)

	// every product is either in all orders or independent of the others
	assert.Empty(t, res.Rules)
}

func TestMineBasket_RulesAboveLift(t *testing.T) {
	res, err := MineBasket(basket(map[string][]string{
		"1": {"A", "B"},
		"2": {"A", "B"},
		"3": {"C"},
		"4": {"C", "D"},
	}), 0.2, 1.2)
	require.NoError(t, err)
	require.Len(t, res.Rules, 4)

	for _, r := range res.Rules {
		assert.InDelta(t, 2.0, r.Lift, 1e-9, "%v -> %v", r.Antecedent, r.Consequent)
	}
	var ab models.Rule
	for _, r := range res.Rules {
		if r.Antecedent[0] == "A" {
			ab = r
		}
	}
	assert.Equal(t, []string{"B"}, ab.Consequent)
	assert.InDelta(t, 0.5, ab.Support, 1e-9)
	assert.InDelta(t, 1.0, ab.Confidence, 1e-9)
	assert.InDelta(t, 0.25, ab.Leverage, 1e-9)
	assert.True(t, math.IsInf(ab.Conviction, 1))

	var cd models.Rule
	for _, r := range res.Rules {
		if r.Antecedent[0] == "C" {
			cd = r
		}
	}
	assert.InDelta(t, 0.5, cd.Confidence, 1e-9)
	assert.InDelta(t, 1.5, cd.Conviction, 1e-9)
}

func TestMineBasket_LevelThreeAndAntiMonotonicity(t *testing.T) {
	res, err := MineBasket(basket(map[string][]string{
		"1": {"A", "B", "C"},
		"2": {"A", "B", "C"},
		"3": {"A", "B", "C"},
		"4": {"A", "B"},
		"5": {"D"},
	}), 0.5, 1.0)
	require.NoError(t, err)

	abc, ok := findItemset(res.Itemsets, "A", "B", "C")
	require.True(t, ok)
	assert.InDelta(t, 0.6, abc.Support, 1e-9)
	_, ok = findItemset(res.Itemsets, "D")
	assert.False(t, ok, "D is below min_support")

	for _, s := range res.Itemsets {
		for drop := range s.Items {
			if len(s.Items) == 1 {
				break
			}
			sub := append(append([]string{}, s.Items[:drop]...), s.Items[drop+1:]...)
			sup, ok := findItemset(res.Itemsets, sub...)
			require.True(t, ok, "subset %v of %v not frequent", sub, s.Items)
			assert.GreaterOrEqual(t, sup.Support, s.Support)
		}
	}
	for i := 1; i < len(res.Itemsets); i++ {
		assert.LessOrEqual(t, len(res.Itemsets[i-1].Items), len(res.Itemsets[i].Items))
	}
}

func TestMineBasket_NothingFrequent(t *testing.T) {
	res, err := MineBasket(basket(map[string][]string{
		"1": {"A"}, "2": {"B"}, "3": {"C"},
	}), 0.9, 1.2)
	require.NoError(t, err)
	assert.NotNil(t, res.Itemsets)
	assert.Empty(t, res.Itemsets)
	assert.NotNil(t, res.Rules)
	assert.Empty(t, res.Rules)
}

func TestMineBasket_NoOrders(t *testing.T) {
	res, err := MineBasket(nil, DefaultMinSupport, DefaultLiftThreshold)
	require.NoError(t, err)
	assert.Zero(t, res.Orders)
	assert.Empty(t, res.Itemsets)
	assert.Empty(t, res.Rules)
}

func TestMineBasket_InvalidThresholds(t *testing.T) {
	_, err := MineBasket(nil, 0, 1.2)
	assert.Error(t, err)
	_, err = MineBasket(nil, 1.5, 1.2)
	assert.Error(t, err)
	_, err = MineBasket(nil, 0.1, 0)
	assert.Error(t, err)
}
