// Package listing はサービス出品のドメインロジックを提供する。
package listing

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/worksquare/internal/model"
	"github.com/hitoshi/worksquare/internal/repository"
	"github.com/hitoshi/worksquare/internal/security"
)

// DefaultListLimit は一覧取得のデフォルト上限件数。
const DefaultListLimit = 50

// MaxListLimit は一覧取得の最大上限件数。
const MaxListLimit = 200

// DefaultStoreTimeout はストア操作のデフォルトタイムアウト。
const DefaultStoreTimeout = 5 * time.Second

// StoreMetrics はストア操作のメトリクスを記録するインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。nil可。
type StoreMetrics interface {
	RecordStoreLatency(operation string, duration time.Duration)
	RecordStoreUnavailable()
}

// Service はサービス出品のサービス層。
// 説明文のサニタイズ、ストアタイムアウトの適用、所有権付き削除を統括する。
type Service struct {
	repo         repository.ServiceRepository
	sanitizer    security.DescriptionSanitizerService
	storeTimeout time.Duration
	storeMetrics StoreMetrics
}

// NewService はServiceの新しいインスタンスを生成する。
// storeTimeoutが0以下の場合はDefaultStoreTimeoutを使用する。
func NewService(
	repo repository.ServiceRepository,
	sanitizer security.DescriptionSanitizerService,
	storeTimeout time.Duration,
	storeMetrics StoreMetrics,
) *Service {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Service{
		repo:         repo,
		sanitizer:    sanitizer,
		storeTimeout: storeTimeout,
		storeMetrics: storeMetrics,
	}
}

// CreateService は出品を作成する。
// 説明文は保存前にサニタイズされ、公開状態が未指定の場合はactiveになる。
func (s *Service) CreateService(ctx context.Context, svc *model.Service) error {
	if svc.Title == "" {
		return fmt.Errorf("title is required")
	}
	if svc.OwnerEmail == "" {
		return fmt.Errorf("owner email is required")
	}
	if svc.Status == "" {
		svc.Status = model.ServiceStatusActive
	}
	if !svc.Status.Valid() {
		return fmt.Errorf("invalid service status: %q", svc.Status)
	}
	if s.sanitizer != nil {
		svc.Description = s.sanitizer.Sanitize(svc.Description)
	}

	return s.withStore(ctx, "create_service", func(ctx context.Context) error {
		return s.repo.Create(ctx, svc)
	})
}

// GetService は指定IDの出品を取得する。
// 存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) GetService(ctx context.Context, id string) (*model.Service, error) {
	var svc *model.Service
	err := s.withStore(ctx, "find_service", func(ctx context.Context) error {
		var err error
		svc, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, model.ErrNotFound
	}
	return svc, nil
}

// ListServices は出品一覧を返す。queryはタイトルの部分一致フィルタ。
// limitが0以下の場合はDefaultListLimit、MaxListLimit超はMaxListLimitに丸める。
func (s *Service) ListServices(ctx context.Context, query string, limit int) ([]*model.Service, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var services []*model.Service
	err := s.withStore(ctx, "list_services", func(ctx context.Context) error {
		var err error
		services, err = s.repo.List(ctx, query, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return services, nil
}

// ListOwnedServices は指定所有者の出品一覧を返す。
// 所有権チェックはミドルウェアで完了している前提。
func (s *Service) ListOwnedServices(ctx context.Context, email string) ([]*model.Service, error) {
	var services []*model.Service
	err := s.withStore(ctx, "list_services_by_owner", func(ctx context.Context) error {
		var err error
		services, err = s.repo.ListByOwnerEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return services, nil
}

// UpdateStatus は出品の公開状態を更新する。last-write-wins。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.ServiceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid service status: %q", status)
	}
	return s.withStore(ctx, "update_service_status", func(ctx context.Context) error {
		return s.repo.UpdateStatus(ctx, id, status)
	})
}

// DeleteOwnedService はリクエスト主体が所有者である場合のみ出品を削除する。
// 対象が存在しない場合はmodel.ErrNotFound、
// 所有者でない場合はmodel.ErrNotOwnerを返す。
func (s *Service) DeleteOwnedService(ctx context.Context, id, requesterEmail string) error {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return err
	}
	if svc.OwnerEmail != requesterEmail {
		return model.ErrNotOwner
	}
	return s.withStore(ctx, "delete_service", func(ctx context.Context) error {
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
