package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lherbier/vetiver/internal/domain"
)

const variantPricingSQL = `
SELECT v.id, p.id, p.name, v.name, COALESCE(p.image_url, ''), v.price
FROM product_variants v
JOIN products p ON p.id = v.product_id
WHERE v.id = ANY($1) AND v.active`

// CatalogStore implements domain.CatalogStore using PostgreSQL.
type CatalogStore struct {
	pool *pgxpool.Pool
}

var _ domain.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore creates a new PostgreSQL-backed catalog store.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// VariantPricing returns current pricing for the requested variant ids.
// Unknown or delisted variants are simply absent from the result.
func (s *CatalogStore) VariantPricing(ctx context.Context, variantIDs []string) ([]domain.VariantPricing, error) {
	rows, err := s.pool.Query(ctx, variantPricingSQL, variantIDs)
	if err != nil {
		return nil, domain.Internal(err, "catalog.variant_pricing", "failed to query variant pricing")
	}
	defer rows.Close()

	var pricing []domain.VariantPricing
	for rows.Next() {
		var p domain.VariantPricing
		if err := rows.Scan(&p.VariantID, &p.ProductID, &p.ProductName, &p.VariantName, &p.ImageURL, &p.UnitPrice); err != nil {
			return nil, domain.Internal(err, "catalog.variant_pricing", "failed to scan variant pricing")
		}
		pricing = append(pricing, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.variant_pricing", "failed to read variant pricing")
	}

	return pricing, nil
}
