package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/worksquare/internal/model"
)

// PostgresServiceRepo はPostgreSQLを使用したサービス出品リポジトリ。
type PostgresServiceRepo struct {
	db *sql.DB
}

// NewPostgresServiceRepo はPostgresServiceRepoを生成する。
func NewPostgresServiceRepo(db *sql.DB) *PostgresServiceRepo {
	return &PostgresServiceRepo{db: db}
}

// serviceColumns はSELECT句で使用するカラムの並び。Scanの順序と一致させること。
const serviceColumns = `id, title, owner_email, owner_name, category, area, price, status, description, attrs, created_at, updated_at`

// Create は出品を作成する。IDが空の場合は新規採番する。
func (r *PostgresServiceRepo) Create(ctx context.Context, svc *model.Service) error {
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	now := time.Now()
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now

	attrs := svc.Attrs
	if len(attrs) == 0 {
		attrs = json.RawMessage("{}")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services (id, title, owner_email, owner_name, category, area, price, status, description, attrs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		svc.ID, svc.Title, svc.OwnerEmail, svc.OwnerName, svc.Category, svc.Area,
		svc.Price, svc.Status, svc.Description, []byte(attrs), svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
func (r *PostgresServiceRepo) FindByID(ctx context.Context, id string) (*model.Service, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)

	svc, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return svc, nil
}

// List は出品一覧を新着順で返す。queryが空でない場合はタイトルの部分一致で絞り込む。
func (r *PostgresServiceRepo) List(ctx context.Context, query string, limit int) ([]*model.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services
		 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	return collectServices(rows)
}

// ListByOwnerEmail は指定所有者の出品一覧を返す。
func (r *PostgresServiceRepo) ListByOwnerEmail(ctx context.Context, email string) ([]*model.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services
		 WHERE owner_email = $1
		 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services by owner: %w", err)
	}
	defer rows.Close()

	return collectServices(rows)
}

// UpdateStatus は出品の公開状態を更新する。last-write-wins。
func (r *PostgresServiceRepo) UpdateStatus(ctx context.Context, id string, status model.ServiceStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE services SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update service status: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの出品を削除する。
func (r *PostgresServiceRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanService は1行をmodel.Serviceにスキャンする。
func scanService(row rowScanner) (*model.Service, error) {
	svc := &model.Service{}
	var attrs []byte
	err := row.Scan(
		&svc.ID, &svc.Title, &svc.OwnerEmail, &svc.OwnerName, &svc.Category,
		&svc.Area, &svc.Price, &svc.Status, &svc.Description, &attrs,
		&svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	svc.Attrs = json.RawMessage(attrs)
	return svc, nil
}

// collectServices は全行をスキャンしてスライスにまとめる。
func collectServices(rows *sql.Rows) ([]*model.Service, error) {
	services := []*model.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return services, nil
}

// compile-time interface check
var _ ServiceRepository = (*PostgresServiceRepo)(nil)
