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

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

const bookingColumns = `id, service_id, service_title, client_email, host_email, status, scheduled_at, price, attrs, created_at, updated_at`

// Create は予約を作成する。IDが空の場合は新規採番する。
func (r *PostgresBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	attrs := booking.Attrs
	if len(attrs) == 0 {
		attrs = json.RawMessage("{}")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, service_id, service_title, client_email, host_email, status, scheduled_at, price, attrs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		booking.ID, booking.ServiceID, booking.ServiceTitle, booking.ClientEmail,
		booking.HostEmail, booking.Status, booking.ScheduledAt, booking.Price,
		[]byte(attrs), booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)

	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

// ListByClientEmail は依頼者視点の予約一覧を返す。
func (r *PostgresBookingRepo) ListByClientEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	return r.listByEmailColumn(ctx, "client_email", email)
}

// ListByHostEmail は出品者視点の予約依頼一覧を返す。
func (r *PostgresBookingRepo) ListByHostEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	return r.listByEmailColumn(ctx, "host_email", email)
}

// listByEmailColumn は指定した所有軸カラムで予約一覧を取得する。
// columnは定数（client_email / host_email）のみを渡すこと。
func (r *PostgresBookingRepo) listByEmailColumn(ctx context.Context, column, email string) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE `+column+` = $1
		 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by %s: %w", column, err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus は予約の進行状態を更新する。last-write-wins。
func (r *PostgresBookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの予約を削除する。
func (r *PostgresBookingRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

// scanBooking は1行をmodel.Bookingにスキャンする。
func scanBooking(row rowScanner) (*model.Booking, error) {
	booking := &model.Booking{}
	var attrs []byte
	err := row.Scan(
		&booking.ID, &booking.ServiceID, &booking.ServiceTitle, &booking.ClientEmail,
		&booking.HostEmail, &booking.Status, &booking.ScheduledAt, &booking.Price,
		&attrs, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.Attrs = json.RawMessage(attrs)
	return booking, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
