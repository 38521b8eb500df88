package database

import "consumer360/pkg/models"

// QueryOrderLines : faits de vente joints à la dimension client.
const QueryOrderLines = `
SELECT
    f.customer_id,
    c.customer_name,
    f.order_id,
    f.order_date,
    f.total_amount
FROM fact_sales f
JOIN dim_customer c
  ON f.customer_id = c.customer_id
`

// QueryBasketLines : faits de vente joints à la dimension produit.
const QueryBasketLines = `
SELECT
    f.order_id,
    p.product_name
FROM fact_sales f
JOIN dim_product p
  ON f.product_id = p.product_id
`

// DefaultQueries renvoie les deux jointures fixes.
func DefaultQueries() models.Queries {
	return models.Queries{Orders: QueryOrderLines, Basket: QueryBasketLines}
}
