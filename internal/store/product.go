// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"newagro/internal/models"
)

// ProductStore handles all product-related database operations. It serves
// both products and services through the unified products table.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new ProductStore with the given database connection.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// productColumns lists the columns selected in product queries.
const productColumns = `id, name, description, category, item_type, price, stock,
	images, specifications, is_active, sort_order, created_at, updated_at`

// scanProduct scans a product row, normalizing the raw jsonb images payload
// at this boundary so untyped data never leaves the store.
func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var (
		p         models.Product
		desc      sql.NullString
		category  sql.NullString
		price     sql.NullFloat64
		stock     sql.NullInt64
		rawImages []byte
		rawSpecs  []byte
	)
	err := scanner.Scan(
		&p.ID, &p.Name, &desc, &category, &p.ItemType, &price, &stock,
		&rawImages, &rawSpecs, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if desc.Valid {
		p.Description = &desc.String
	}
	if category.Valid {
		p.Category = &category.String
	}
	if price.Valid {
		p.Price = &price.Float64
	}
	if stock.Valid {
		s := int(stock.Int64)
		p.Stock = &s
	}
	p.Images = models.NormalizeImages(rawImages)
	if len(rawSpecs) > 0 {
		p.Specifications = json.RawMessage(rawSpecs)
	}
	return &p, nil
}

// ListActive returns the public catalog: active rows ordered by sort_order,
// then category, then name, all ascending.
func (s *ProductStore) ListActive() ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		ORDER BY sort_order ASC, category ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListAll returns every row for the admin panel, in catalog display order.
func (s *ProductStore) ListAll() ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT ` + productColumns + `
		FROM products
		ORDER BY sort_order ASC, category ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// FindByID retrieves a single product by its identifier. Returns nil if
// not found — zero rows is not an error.
func (s *ProductStore) FindByID(id int64) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// ListRelated returns up to limit active products other than excludeID,
// ordered by name. Used by the detail page's related-items strip.
func (s *ProductStore) ListRelated(excludeID int64, limit int) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+`
		FROM products
		WHERE is_active AND id <> $1
		ORDER BY name ASC
		LIMIT $2
	`, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Create inserts a new product and returns its generated identifier.
func (s *ProductStore) Create(p *models.Product) (int64, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return 0, fmt.Errorf("marshal images: %w", err)
	}

	var id int64
	err = s.db.QueryRow(`
		INSERT INTO products (name, description, category, item_type, price, stock,
			images, specifications, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, p.Name, p.Description, p.Category, p.ItemType, p.Price, p.Stock,
		images, specsArg(p.Specifications), p.IsActive, p.SortOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// Update replaces all editable fields of an existing product.
func (s *ProductStore) Update(p *models.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE products SET
			name = $1, description = $2, category = $3, item_type = $4,
			price = $5, stock = $6, images = $7, specifications = $8,
			is_active = $9, sort_order = $10, updated_at = NOW()
		WHERE id = $11
	`, p.Name, p.Description, p.Category, p.ItemType, p.Price, p.Stock,
		images, specsArg(p.Specifications), p.IsActive, p.SortOrder, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateImages persists only the image list of a product. The persisted
// list is the single source of truth after upload and delete operations.
func (s *ProductStore) UpdateImages(id int64, images []models.ProductImage) error {
	if images == nil {
		images = []models.ProductImage{}
	}
	payload, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE products SET images = $1, updated_at = NOW() WHERE id = $2
	`, payload, id)
	if err != nil {
		return fmt.Errorf("update product images: %w", err)
	}
	return nil
}

// Delete removes a product by its identifier.
func (s *ProductStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// Count returns the total number of products.
func (s *ProductStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// collectProducts drains a result set into a product slice.
func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var items []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// specsArg converts the optional specifications payload to a driver
// argument: nil stays NULL instead of becoming an empty jsonb string.
func specsArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
