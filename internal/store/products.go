package store

import (
	"database/sql"
	"fmt"
	"time"

	"pantry-monolith/internal/core"
)

const productColumns = `id, household_id, name, category, days_until_empty, remind_days_before,
	last_restocked_at, status, is_recurring, shop_url, is_active, created_at, updated_at`

func scanProduct(scan func(dest ...interface{}) error) (*core.Product, error) {
	product := &core.Product{}
	var category, shopURL sql.NullString
	var status string

	err := scan(
		&product.ID,
		&product.HouseholdID,
		&product.Name,
		&category,
		&product.DaysUntilEmpty,
		&product.RemindDaysBefore,
		&product.LastRestockedAt,
		&status,
		&product.IsRecurring,
		&shopURL,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Category = category.String
	product.ShopURL = shopURL.String
	product.Status = core.ProductStatus(status)
	return product, nil
}

// CreateProduct inserts a new product and returns the stored row
func (s *Store) CreateProduct(p *core.Product) (*core.Product, error) {
	result, err := s.DB.Exec(
		`INSERT INTO products (household_id, name, category, days_until_empty, remind_days_before,
			last_restocked_at, status, is_recurring, shop_url, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.HouseholdID, p.Name, nullable(p.Category), p.DaysUntilEmpty, p.RemindDaysBefore,
		p.LastRestockedAt, string(p.Status), p.IsRecurring, nullable(p.ShopURL), p.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetProductByID(id)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(id int64) (*core.Product, error) {
	row := s.DB.QueryRow("SELECT "+productColumns+" FROM products WHERE id = ?", id)

	product, err := scanProduct(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// GetActiveProductsByHousehold retrieves all active products of a household
// in creation order
func (s *Store) GetActiveProductsByHousehold(householdID int64) ([]*core.Product, error) {
	rows, err := s.DB.Query(
		"SELECT "+productColumns+" FROM products WHERE household_id = ? AND is_active = 1 ORDER BY created_at ASC, id ASC",
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// GetActiveStockedProducts retrieves every active, stocked product across
// all households, for the due-item scan
func (s *Store) GetActiveStockedProducts() ([]*core.Product, error) {
	rows, err := s.DB.Query(
		"SELECT " + productColumns + " FROM products WHERE is_active = 1 AND status = 'stocked' ORDER BY household_id ASC, created_at ASC, id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocked products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// SearchActiveProducts does a case-insensitive substring match on name,
// scoped to the household. Creation order makes the first-match tie-break
// stable.
func (s *Store) SearchActiveProducts(householdID int64, nameSubstring string) ([]*core.Product, error) {
	rows, err := s.DB.Query(
		`SELECT `+productColumns+` FROM products
		WHERE household_id = ? AND is_active = 1 AND LOWER(name) LIKE '%' || LOWER(?) || '%'
		ORDER BY created_at ASC, id ASC`,
		householdID, nameSubstring,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]*core.Product, error) {
	var products []*core.Product
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's editable attributes. Status and
// last_restocked_at are deliberately not part of an edit.
func (s *Store) UpdateProduct(id int64, name, category string, daysUntilEmpty, remindDaysBefore int, isRecurring bool, shopURL string, now time.Time) error {
	_, err := s.DB.Exec(
		`UPDATE products
		SET name = ?, category = ?, days_until_empty = ?, remind_days_before = ?, is_recurring = ?, shop_url = ?, updated_at = ?
		WHERE id = ?`,
		name, nullable(category), daysUntilEmpty, remindDaysBefore, isRecurring, nullable(shopURL), now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// SetProductStatus moves a product to the given lifecycle status
func (s *Store) SetProductStatus(id int64, status core.ProductStatus, now time.Time) error {
	_, err := s.DB.Exec(
		"UPDATE products SET status = ?, updated_at = ? WHERE id = ?",
		string(status), now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set product status: %w", err)
	}

	return nil
}

// RestockProduct resets the consumption timer and returns the product to stocked
func (s *Store) RestockProduct(id int64, now time.Time) error {
	_, err := s.DB.Exec(
		"UPDATE products SET status = 'stocked', last_restocked_at = ?, updated_at = ? WHERE id = ?",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to restock product: %w", err)
	}

	return nil
}

// DeactivateProduct soft-deletes a product; the row stays for the dispatch log
func (s *Store) DeactivateProduct(id int64, now time.Time) error {
	_, err := s.DB.Exec(
		"UPDATE products SET is_active = 0, updated_at = ? WHERE id = ?",
		now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
