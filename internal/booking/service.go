// Package booking は予約のドメインロジックを提供する。
package booking

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/worksquare/internal/model"
	"github.com/hitoshi/worksquare/internal/repository"
)

// DefaultStoreTimeout はストア操作のデフォルトタイムアウト。
const DefaultStoreTimeout = 5 * time.Second

// StoreMetrics はストア操作のメトリクスを記録するインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。nil可。
type StoreMetrics interface {
	RecordStoreLatency(operation string, duration time.Duration)
	RecordStoreUnavailable()
}

// Service は予約のサービス層。
// 予約は1つのレコードに2つの所有軸（依頼者・出品者）を持ち、
// それぞれ独立したクエリ経路として公開される。
type Service struct {
	repo         repository.BookingRepository
	serviceRepo  repository.ServiceRepository
	storeTimeout time.Duration
	storeMetrics StoreMetrics
}

// NewService はServiceの新しいインスタンスを生成する。
// storeTimeoutが0以下の場合はDefaultStoreTimeoutを使用する。
func NewService(
	repo repository.BookingRepository,
	serviceRepo repository.ServiceRepository,
	storeTimeout time.Duration,
	storeMetrics StoreMetrics,
) *Service {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Service{
		repo:         repo,
		serviceRepo:  serviceRepo,
		storeTimeout: storeTimeout,
		storeMetrics: storeMetrics,
	}
}

// CreateBooking は予約を作成する。
// HostEmailまたはServiceTitleが未指定の場合、対象出品から補完する。
// 進行状態が未指定の場合はpendingになる。
func (s *Service) CreateBooking(ctx context.Context, booking *model.Booking) error {
	if booking.ClientEmail == "" {
		return fmt.Errorf("client email is required")
	}
	if booking.Status == "" {
		booking.Status = model.BookingStatusPending
	}
	if !booking.Status.Valid() {
		return fmt.Errorf("invalid booking status: %q", booking.Status)
	}

	if booking.ServiceID != "" && (booking.HostEmail == "" || booking.ServiceTitle == "") {
		if err := s.fillFromService(ctx, booking); err != nil {
			return err
		}
	}
	if booking.HostEmail == "" {
		return fmt.Errorf("host email is required")
	}

	return s.withStore(ctx, "create_booking", func(ctx context.Context) error {
		return s.repo.Create(ctx, booking)
	})
}

// fillFromService は対象出品からHostEmailとServiceTitleを補完する。
func (s *Service) fillFromService(ctx context.Context, booking *model.Booking) error {
	var svc *model.Service
	err := s.withStore(ctx, "find_service", func(ctx context.Context) error {
		var err error
		svc, err = s.serviceRepo.FindByID(ctx, booking.ServiceID)
		return err
	})
	if err != nil {
		return err
	}
	if svc == nil {
		return fmt.Errorf("service %s: %w", booking.ServiceID, model.ErrNotFound)
	}
	if booking.HostEmail == "" {
		booking.HostEmail = svc.OwnerEmail
	}
	if booking.ServiceTitle == "" {
		booking.ServiceTitle = svc.Title
	}
	return nil
}

// GetBooking は指定IDの予約を取得する。
// 存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var booking *model.Booking
	err := s.withStore(ctx, "find_booking", func(ctx context.Context) error {
		var err error
		booking, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, model.ErrNotFound
	}
	return booking, nil
}

// ListClientBookings は依頼者視点の予約一覧を返す。
// 所有権チェックはミドルウェアで完了している前提。
func (s *Service) ListClientBookings(ctx context.Context, email string) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := s.withStore(ctx, "list_bookings_by_client", func(ctx context.Context) error {
		var err error
		bookings, err = s.repo.ListByClientEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListHostBookings は出品者視点の予約依頼一覧を返す。
// 所有権チェックはミドルウェアで完了している前提。
func (s *Service) ListHostBookings(ctx context.Context, email string) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := s.withStore(ctx, "list_bookings_by_host", func(ctx context.Context) error {
		var err error
		bookings, err = s.repo.ListByHostEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus は予約の進行状態を更新する。last-write-wins。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid booking status: %q", status)
	}
	return s.withStore(ctx, "update_booking_status", func(ctx context.Context) error {
		return s.repo.UpdateStatus(ctx, id, status)
	})
}

// DeleteOwnedBooking はリクエスト主体がどちらかの所有軸に一致する場合のみ予約を削除する。
// 依頼者（ClientEmail）と出品者（HostEmail）のいずれでも削除できる。
// 対象が存在しない場合はmodel.ErrNotFound、
// どちらの軸にも一致しない場合はmodel.ErrNotOwnerを返す。
func (s *Service) DeleteOwnedBooking(ctx context.Context, id, requesterEmail string) error {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.ClientEmail != requesterEmail && booking.HostEmail != requesterEmail {
		return model.ErrNotOwner
	}
	return s.withStore(ctx, "delete_booking", func(ctx context.Context) error {
		return s.repo.DeleteByID(ctx, id)
	})
}

// withStore はストア操作にタイムアウトを適用し、レイテンシを記録する。
// タイムアウトまたは接続断はmodel.ErrStoreUnavailableに変換する。
func (s *Service) withStore(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)

	if s.storeMetrics != nil {
		s.storeMetrics.RecordStoreLatency(op, time.Since(start))
	}

	if err != nil && isStoreUnavailable(err) {
		if s.storeMetrics != nil {
			s.storeMetrics.RecordStoreUnavailable()
		}
		return fmt.Errorf("%s: %w", op, model.ErrStoreUnavailable)
	}
	return err
}

// isStoreUnavailable はストア到達不能とみなすエラーを判定する。
func isStoreUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn)
}
