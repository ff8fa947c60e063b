// Package repository はドキュメントストアへの永続化インターフェースを定義する。
//
// ストアはフィルタベースのinsert/find/update/deleteを提供する外部コラボレーターであり、
// 同一レコードへの同時更新はlast-write-winsで解決される。
// トランザクションやドキュメント間の整合性保証は提供しない。
package repository

import (
	"context"

	"github.com/hitoshi/worksquare/internal/model"
)

// ServiceRepository はサービス出品データの永続化インターフェース。
type ServiceRepository interface {
	// Create は出品を作成する。IDが空の場合は新規採番する。
	Create(ctx context.Context, svc *model.Service) error

	// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Service, error)

	// List は出品一覧を新着順で返す。queryが空でない場合はタイトルの部分一致で絞り込む。
	List(ctx context.Context, query string, limit int) ([]*model.Service, error)

	// ListByOwnerEmail は指定所有者の出品一覧を返す。
	// 呼び出し元で所有権チェックを通過した後にのみ使用すること。
	ListByOwnerEmail(ctx context.Context, email string) ([]*model.Service, error)

	// UpdateStatus は出品の公開状態を更新する。last-write-wins。
	// 対象が存在しない場合もエラーにはならない。
	UpdateStatus(ctx context.Context, id string, status model.ServiceStatus) error

	// DeleteByID は指定IDの出品を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// BookingRepository は予約データの永続化インターフェース。
// 予約は1つのレコードに2つの所有軸（client_email / host_email）を持ち、
// それぞれ独立したクエリ経路として公開する。
type BookingRepository interface {
	// Create は予約を作成する。IDが空の場合は新規採番する。
	Create(ctx context.Context, booking *model.Booking) error

	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// ListByClientEmail は依頼者視点の予約一覧を返す。
	ListByClientEmail(ctx context.Context, email string) ([]*model.Booking, error)

	// ListByHostEmail は出品者視点の予約依頼一覧を返す。
	ListByHostEmail(ctx context.Context, email string) ([]*model.Booking, error)

	// UpdateStatus は予約の進行状態を更新する。last-write-wins。
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error

	// DeleteByID は指定IDの予約を削除する。
	DeleteByID(ctx context.Context, id string) error
}
