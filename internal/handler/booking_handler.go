package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worksquare/internal/middleware"
	"github.com/hitoshi/worksquare/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListClientBookings(ctx context.Context, email string) ([]*model.Booking, error)
	ListHostBookings(ctx context.Context, email string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error
	DeleteOwnedBooking(ctx context.Context, id, requesterEmail string) error
}

// BookingHandler は予約のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// bookingRequest は予約作成リクエストのボディ。
type bookingRequest struct {
	ServiceID    string          `json:"service_id"`
	ServiceTitle string          `json:"service_title"`
	ClientEmail  string          `json:"client_email"`
	HostEmail    string          `json:"host_email"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	Price        int64           `json:"price"`
	Attrs        json.RawMessage `json:"attrs,omitempty"`
}

// bookingResponse は予約のレスポンス。
type bookingResponse struct {
	ID           string          `json:"id"`
	ServiceID    string          `json:"service_id"`
	ServiceTitle string          `json:"service_title"`
	ClientEmail  string          `json:"client_email"`
	HostEmail    string          `json:"host_email"`
	Status       string          `json:"status"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	Price        int64           `json:"price"`
	Attrs        json.RawMessage `json:"attrs,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toBookingResponse(booking *model.Booking) bookingResponse {
	return bookingResponse{
		ID:           booking.ID,
		ServiceID:    booking.ServiceID,
		ServiceTitle: booking.ServiceTitle,
		ClientEmail:  booking.ClientEmail,
		HostEmail:    booking.HostEmail,
		Status:       string(booking.Status),
		ScheduledAt:  booking.ScheduledAt,
		Price:        booking.Price,
		Attrs:        booking.Attrs,
		CreatedAt:    booking.CreatedAt,
		UpdatedAt:    booking.UpdatedAt,
	}
}

func toBookingListResponse(bookings []*model.Booking) []bookingResponse {
	resp := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		resp = append(resp, toBookingResponse(booking))
	}
	return resp
}

// CreateBooking は予約を作成する。認証不要（契約どおりの開放エンドポイント）。
// POST /bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}
	if req.ClientEmail == "" {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}

	booking := &model.Booking{
		ServiceID:    req.ServiceID,
		ServiceTitle: req.ServiceTitle,
		ClientEmail:  req.ClientEmail,
		HostEmail:    req.HostEmail,
		ScheduledAt:  req.ScheduledAt,
		Price:        req.Price,
		Attrs:        req.Attrs,
	}
	if err := h.service.CreateBooking(r.Context(), booking); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBookingResponse(booking))
}

// ListClientBookings は依頼者視点の予約一覧を取得する。
// セッション＋所有権ミドルウェアの通過が前提。
// GET /bookings/{email}
func (h *BookingHandler) ListClientBookings(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	bookings, err := h.service.ListClientBookings(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookingListResponse(bookings))
}

// ListHostBookings は出品者視点の予約依頼一覧を取得する。
// セッション＋所有権ミドルウェアの通過が前提。
// GET /bookings-request/{email}
func (h *BookingHandler) ListHostBookings(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	bookings, err := h.service.ListHostBookings(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookingListResponse(bookings))
}

// UpdateStatus は予約の進行状態を更新する。認証不要（契約どおり）。last-write-wins。
// PATCH /booking/{id}
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}

	status := model.BookingStatus(req.Status)
	if !status.Valid() {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, status); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(successResponse{Success: true})
}

// DeleteBooking は依頼者または出品者本人のみ予約を削除できる。
// セッションミドルウェアの通過が前提。レコードの両所有軸と
// 認証済みメールアドレスを照合する。
// DELETE /booking/{id}
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.DeleteOwnedBooking(r.Context(), id, email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(successResponse{Success: true})
}
