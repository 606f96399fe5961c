package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xavierca1/quiz-funnel/internal/entity"
)

const uniqueViolation = "23505"

type PurchaseRepository struct {
	DB *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

const purchaseColumns = `
	id, email, hotmart_transaction_id, hotmart_order_date, hotmart_approved_date,
	product_id, product_name, value, currency,
	buyer_name, buyer_phone, buyer_document, buyer_address,
	payment_type, payment_installments, hotmart_status, hotmart_data,
	meta_event_id, meta_sent, meta_sent_at, meta_attempts, meta_last_error,
	created_at, updated_at`

func (r *PurchaseRepository) Create(ctx context.Context, p *entity.Purchase) error {
	query := `
		INSERT INTO purchases (
			id, email, hotmart_transaction_id, hotmart_order_date, hotmart_approved_date,
			product_id, product_name, value, currency,
			buyer_name, buyer_phone, buyer_document, buyer_address,
			payment_type, payment_installments, hotmart_status, hotmart_data,
			meta_event_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20
		)
	`

	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.Email,
		p.TransactionID,
		p.OrderDate,
		p.ApprovedDate,
		p.ProductID,
		p.ProductName,
		p.Value,
		p.Currency,
		p.BuyerName,
		nullString(p.BuyerPhone),
		nullString(p.BuyerDocument),
		nullJSON(p.BuyerAddress),
		p.PaymentType,
		p.PaymentInstallments,
		p.HotmartStatus,
		string(p.RawPayload),
		nullString(p.MetaEventID),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entity.ErrPurchaseAlreadyExists
		}
		return fmt.Errorf("erro ao salvar compra: %w", err)
	}

	return nil
}

func (r *PurchaseRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE hotmart_transaction_id = $1`

	p, err := scanPurchase(r.DB.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("erro ao buscar compra: %w", err)
	}
	return p, nil
}

// UpdateMetaStatus marca a compra como enviada para a Meta.
func (r *PurchaseRepository) UpdateMetaStatus(ctx context.Context, purchaseID, eventID string) error {
	if eventID == "" {
		return entity.ErrMissingMetaEventID
	}

	query := `
		UPDATE purchases
		SET meta_event_id = $2,
			meta_sent = TRUE,
			meta_sent_at = NOW(),
			meta_last_error = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, purchaseID, eventID)
	if err != nil {
		return fmt.Errorf("erro ao atualizar status meta da compra: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrPurchaseNotFound
	}
	return nil
}

func (r *PurchaseRepository) ReserveEventID(ctx context.Context, purchaseID, eventID string) (string, error) {
	if eventID == "" {
		return "", entity.ErrMissingMetaEventID
	}

	// updated_at fica intacto para não atrasar o sweeper.
	query := `
		UPDATE purchases
		SET meta_event_id = COALESCE(meta_event_id, $2)
		WHERE id = $1
		RETURNING meta_event_id
	`
	var stored string
	if err := r.DB.QueryRowContext(ctx, query, purchaseID, eventID).Scan(&stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", entity.ErrPurchaseNotFound
		}
		return "", fmt.Errorf("erro ao reservar event id da compra: %w", err)
	}
	return stored, nil
}

// RecordAttributionFailure incrementa as tentativas e devolve o total atual.
func (r *PurchaseRepository) RecordAttributionFailure(ctx context.Context, purchaseID, reason string) (int, error) {
	query := `
		UPDATE purchases
		SET meta_attempts = meta_attempts + 1,
			meta_last_error = $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING meta_attempts
	`
	var attempts int
	if err := r.DB.QueryRowContext(ctx, query, purchaseID, reason).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, entity.ErrPurchaseNotFound
		}
		return 0, fmt.Errorf("erro ao registrar falha de atribuição: %w", err)
	}
	return attempts, nil
}

func (r *PurchaseRepository) ListUnattributed(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*entity.Purchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE meta_sent = FALSE
			AND meta_attempts < $2
			AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, query, staleBefore, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar compras sem atribuição: %w", err)
	}
	defer rows.Close()

	var purchases []*entity.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear compra: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner) (*entity.Purchase, error) {
	var (
		p                                    entity.Purchase
		productID, productName, buyerName    sql.NullString
		buyerPhone, buyerDocument            sql.NullString
		paymentType, status, eventID, lastEr sql.NullString
		buyerAddress, raw                    []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.TransactionID,
		&p.OrderDate,
		&p.ApprovedDate,
		&productID,
		&productName,
		&p.Value,
		&p.Currency,
		&buyerName,
		&buyerPhone,
		&buyerDocument,
		&buyerAddress,
		&paymentType,
		&p.PaymentInstallments,
		&status,
		&raw,
		&eventID,
		&p.MetaSent,
		&p.MetaSentAt,
		&p.MetaAttempts,
		&lastEr,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ProductID = productID.String
	p.ProductName = productName.String
	p.BuyerName = buyerName.String
	p.BuyerPhone = buyerPhone.String
	p.BuyerDocument = buyerDocument.String
	p.BuyerAddress = buyerAddress
	p.PaymentType = paymentType.String
	p.HotmartStatus = status.String
	p.RawPayload = raw
	p.MetaEventID = eventID.String
	p.MetaLastError = lastEr.String

	return &p, nil
}

func nullJSON(b []byte) *string {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := string(b)
	return &s
}
