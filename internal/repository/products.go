package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

const (
	tableDocuments = "documents"
	tableProducts  = "products"
)

// Counts is the number of stored rows per table.
type Counts struct {
	Documents int `json:"documents"`
	Products  int `json:"products"`
}

// Persist stores the document and its products in one transaction. It never
// returns an error: failures roll back and come back as outcome errors.
func (s *Store) Persist(ctx context.Context, data entity.ProcessedData) entity.StorageOutcome {
	doc := data.Document
	logger := s.logger.With("file", doc.Filename)

	if strings.TrimSpace(doc.Filename) == "" {
		return entity.StorageFailure("document filename is required")
	}
	for i, p := range data.Products {
		if strings.TrimSpace(p.Name) == "" {
			return entity.StorageFailure(fmt.Sprintf("product %d: name is required", i))
		}
	}

	if doc.ContentHash != "" {
		existing, err := s.documentByHash(ctx, doc.ContentHash)
		if err != nil {
			logger.Error("failed to look up document", "error", err)
			return entity.StorageFailure(err.Error())
		}
		if existing != "" {
			logger.Warn("document already stored", "document_id", existing)
			return entity.StorageFailure(fmt.Sprintf("duplicate key: content_hash already stored as document %s", existing))
		}
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		logger.Error("failed to begin transaction", "error", err)
		return entity.StorageFailure(err.Error())
	}
	fail := func(step string, err error) entity.StorageOutcome {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		msg := fmt.Sprintf("%s: %v", step, err)
		if isUniqueViolation(err) {
			msg = fmt.Sprintf("duplicate key: %s: %v", step, err)
		}
		logger.Error("persist failed", "step", step, "error", err)
		return entity.StorageFailure(msg)
	}

	b := entsql.Dialect(s.dialect)
	docID := uuid.NewString()
	processedAt := data.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}
	q, args := b.Insert(tableDocuments).
		Columns("id", "filename", "content_hash", "page_count", "requires_ocr", "product_count", "processed_at", "created_at").
		Values(docID, doc.Filename, nullString(doc.ContentHash), doc.PageCount, doc.RequiresOCR, len(data.Products), processedAt.UTC(), time.Now().UTC()).
		Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		return fail("insert document", err)
	}

	productIDs := make([]string, 0, len(data.Products))
	if len(data.Products) > 0 {
		ins := b.Insert(tableProducts).
			Columns("id", "document_id", "position", "name", "manufacturer", "sku", "price", "currency", "quantity", "attributes")
		for i, p := range data.Products {
			attrs, err := attributesJSON(p.Attributes)
			if err != nil {
				return fail("encode attributes", err)
			}
			qty := p.Quantity
			if qty <= 0 {
				qty = 1
			}
			id := uuid.NewString()
			productIDs = append(productIDs, id)
			ins.Values(id, docID, i, p.Name, nullString(p.Manufacturer), nullString(p.SKU),
				nullString(p.Price), nullString(p.Currency), qty, attrs)
		}
		q, args = ins.Query()
		var res sql.Result
		if err := tx.Exec(ctx, q, args, &res); err != nil {
			return fail("insert products", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fail("commit", err)
	}
	logger.Info("stored document", "document_id", docID, "products", len(productIDs))
	return entity.StorageOutcome{Success: true, DocumentID: docID, ProductIDs: productIDs}
}

func (s *Store) documentByHash(ctx context.Context, hash string) (string, error) {
	q, args := entsql.Dialect(s.dialect).
		Select("id").
		From(entsql.Table(tableDocuments)).
		Where(entsql.EQ("content_hash", hash)).
		Limit(1).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return "", err
	}
	defer rows.Close()
	var id string
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
	}
	return id, rows.Err()
}

// Counts returns the number of stored documents and products.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for table, dst := range map[string]*int{tableDocuments: &c.Documents, tableProducts: &c.Products} {
		n, err := s.count(ctx, table)
		if err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", table, err)
		}
		*dst = n
	}
	return c, nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	q, args := entsql.Dialect(s.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// Products returns the products stored for a document, in document order.
func (s *Store) Products(ctx context.Context, documentID string) ([]entity.Product, error) {
	q, args := entsql.Dialect(s.dialect).
		Select("name", "manufacturer", "sku", "price", "currency", "quantity", "attributes").
		From(entsql.Table(tableProducts)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("position").
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Product
	for rows.Next() {
		var (
			p                                    entity.Product
			manufacturer, sku, price, cur, attrs sql.NullString
		)
		if err := rows.Scan(&p.Name, &manufacturer, &sku, &price, &cur, &p.Quantity, &attrs); err != nil {
			return nil, err
		}
		p.Manufacturer, p.SKU, p.Price, p.Currency = manufacturer.String, sku.String, price.String, strings.TrimSpace(cur.String)
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &p.Attributes); err != nil {
				return nil, fmt.Errorf("decode attributes: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func attributesJSON(attrs map[string]string) (any, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
