package model

import (
	"encoding/json"
	"time"
)

// BookingStatus は予約の進行状態を表す。
type BookingStatus string

const (
	// BookingStatusPending は出品者の確認待ちの状態。
	BookingStatusPending BookingStatus = "pending"
	// BookingStatusConfirmed は出品者が承諾した状態。
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusCompleted はサービス提供が完了した状態。
	BookingStatusCompleted BookingStatus = "completed"
	// BookingStatusCancelled は依頼者または出品者が取り消した状態。
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid は既知の進行状態かどうかを返す。
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking はサービスに対する予約を表す。
// 所有軸は2つあり、依頼者にはClientEmailで、出品者にはHostEmailで見える。
// 1つのクエリ経路はどちらか一方の軸でのみ認可・絞り込みを行う。
type Booking struct {
	ID           string
	ServiceID    string
	ServiceTitle string
	ClientEmail  string
	HostEmail    string
	Status       BookingStatus
	ScheduledAt  time.Time
	Price        int64

	// Attrs は予約ごとに異なる自由形式のフィールドを保持する。
	Attrs json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}
