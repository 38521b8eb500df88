package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"consumer360/pkg/models"
)

// Loader exécute les deux requêtes de jointure et matérialise les lignes.
type Loader struct {
	db      *sql.DB
	queries models.Queries
}

// NewLoader : les requêtes vides retombent sur les jointures par défaut.
func NewLoader(db *sql.DB, queries models.Queries) *Loader {
	if strings.TrimSpace(queries.Orders) == "" {
		queries.Orders = QueryOrderLines
	}
	if strings.TrimSpace(queries.Basket) == "" {
		queries.Basket = QueryBasketLines
	}
	return &Loader{db: db, queries: queries}
}

// LoadOrderLines lit (customer_id, customer_name, order_id, order_date, total_amount).
func (l *Loader) LoadOrderLines(ctx context.Context) ([]models.OrderLine, error) {
	q := l.queries.Orders
	rows, err := l.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(err, ErrQuery, q)
	}
	defer rows.Close()

	var (
		out       []models.OrderLine
		skipped   int
		nullAmt   int
		nullOrder int
	)
	for rows.Next() {
		var (
			customerID, customerName, orderID sql.NullString
			orderDate                         any
			amount                            sql.NullFloat64
		)
		if err := rows.Scan(&customerID, &customerName, &orderID, &orderDate, &amount); err != nil {
			return nil, classify(err, ErrQuery, q)
		}
		if !customerID.Valid || !customerName.Valid || orderDate == nil {
			skipped++
			continue
		}
		if !orderID.Valid {
			nullOrder++
		}
		date, err := parseDate(orderDate)
		if err != nil {
			return nil, &Error{Kind: ErrQuery, Query: q, Err: fmt.Errorf("customer %s: %w", customerID.String, err)}
		}
		if !amount.Valid {
			nullAmt++
		}
		out = append(out, models.OrderLine{
			CustomerID:   customerID.String,
			CustomerName: customerName.String,
			OrderID:      orderID.String,
			OrderDate:    date,
			TotalAmount:  amount.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, ErrQuery, q)
	}

	if skipped > 0 {
		log.Warningf("[loader] %d order lines with null keys skipped", skipped)
	}
	if nullAmt > 0 {
		log.Warningf("[loader] %d order lines with null total_amount counted as 0", nullAmt)
	}
	if nullOrder > 0 {
		log.Warningf("[loader] %d order lines with null order_id kept for monetary only", nullOrder)
	}
	log.Debugf("[loader] order lines loaded=%d", len(out))
	return out, nil
}

// LoadBasketLines lit (order_id, product_name).
func (l *Loader) LoadBasketLines(ctx context.Context) ([]models.BasketLine, error) {
	q := l.queries.Basket
	rows, err := l.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(err, ErrQuery, q)
	}
	defer rows.Close()

	var (
		out     []models.BasketLine
		skipped int
	)
	for rows.Next() {
		var orderID, product sql.NullString
		if err := rows.Scan(&orderID, &product); err != nil {
			return nil, classify(err, ErrQuery, q)
		}
		if !orderID.Valid || !product.Valid {
			skipped++
			continue
		}
		out = append(out, models.BasketLine{OrderID: orderID.String, ProductName: product.String})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, ErrQuery, q)
	}

	if skipped > 0 {
		log.Warningf("[loader] %d basket lines with null keys skipped", skipped)
	}
	log.Debugf("[loader] basket lines loaded=%d", len(out))
	return out, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepte ce que renvoient les trois pilotes : time.Time, texte ou octets.
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), nil
	case []byte:
		return parseDateString(string(d))
	case string:
		return parseDateString(d)
	default:
		return time.Time{}, fmt.Errorf("order_date: type %T non supporté", v)
	}
}

func parseDateString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("order_date: format inconnu %q", s)
}
