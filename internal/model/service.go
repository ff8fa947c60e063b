package model

import (
	"encoding/json"
	"time"
)

// ServiceStatus はサービス出品の公開状態を表す。
type ServiceStatus string

const (
	// ServiceStatusActive は予約を受け付けている状態。
	ServiceStatusActive ServiceStatus = "active"
	// ServiceStatusPaused は出品者が一時的に受付を停止した状態。
	ServiceStatusPaused ServiceStatus = "paused"
)

// Valid は既知の公開状態かどうかを返す。
func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceStatusActive, ServiceStatusPaused:
		return true
	}
	return false
}

// Service はマーケットプレイス上のサービス出品を表す。
// OwnerEmailが所有者のアイデンティティであり、所有者スコープのクエリは
// このフィールドで絞り込む。
type Service struct {
	ID          string
	Title       string
	OwnerEmail  string
	OwnerName   string
	Category    string
	Area        string
	Price       int64
	Status      ServiceStatus
	Description string // サニタイズ済みHTML

	// Attrs は出品ごとに異なる自由形式のフィールドを保持する。
	// スキーマを持たず、ストアにはJSONBとしてそのまま保存される。
	Attrs json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}
