package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worksquare/internal/middleware"
	"github.com/hitoshi/worksquare/internal/model"
)

// ListingServiceInterface はサービス出品ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	CreateService(ctx context.Context, svc *model.Service) error
	GetService(ctx context.Context, id string) (*model.Service, error)
	ListServices(ctx context.Context, query string, limit int) ([]*model.Service, error)
	ListOwnedServices(ctx context.Context, email string) ([]*model.Service, error)
	UpdateStatus(ctx context.Context, id string, status model.ServiceStatus) error
	DeleteOwnedService(ctx context.Context, id, requesterEmail string) error
}

// ServiceHandler はサービス出品のHTTPハンドラー。
type ServiceHandler struct {
	service ListingServiceInterface
}

// NewServiceHandler はServiceHandlerを生成する。
func NewServiceHandler(service ListingServiceInterface) *ServiceHandler {
	return &ServiceHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// serviceRequest は出品作成リクエストのボディ。
type serviceRequest struct {
	Title       string          `json:"title"`
	OwnerEmail  string          `json:"owner_email"`
	OwnerName   string          `json:"owner_name"`
	Category    string          `json:"category"`
	Area        string          `json:"area"`
	Price       int64           `json:"price"`
	Description string          `json:"description"`
	Attrs       json.RawMessage `json:"attrs,omitempty"`
}

// serviceResponse は出品のレスポンス。
type serviceResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	OwnerEmail  string          `json:"owner_email"`
	OwnerName   string          `json:"owner_name"`
	Category    string          `json:"category"`
	Area        string          `json:"area"`
	Price       int64           `json:"price"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	Attrs       json.RawMessage `json:"attrs,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// statusUpdateRequest は公開状態更新リクエストのボディ。
type statusUpdateRequest struct {
	Status string `json:"status"`
}

func toServiceResponse(svc *model.Service) serviceResponse {
	return serviceResponse{
		ID:          svc.ID,
		Title:       svc.Title,
		OwnerEmail:  svc.OwnerEmail,
		OwnerName:   svc.OwnerName,
		Category:    svc.Category,
		Area:        svc.Area,
		Price:       svc.Price,
		Status:      string(svc.Status),
		Description: svc.Description,
		Attrs:       svc.Attrs,
		CreatedAt:   svc.CreatedAt,
		UpdatedAt:   svc.UpdatedAt,
	}
}

func toServiceListResponse(services []*model.Service) []serviceResponse {
	resp := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		resp = append(resp, toServiceResponse(svc))
	}
	return resp
}

// ListServices は出品一覧を取得する。認証不要。
// GET /services?q=xxx&limit=50
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
			return
		}
		limit = parsed
	}

	services, err := h.service.ListServices(r.Context(), query, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toServiceListResponse(services))
}

// CreateService は出品を作成する。認証不要（契約どおりの開放エンドポイント）。
// POST /services
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}
	if req.Title == "" || req.OwnerEmail == "" {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}

	svc := &model.Service{
		Title:       req.Title,
		OwnerEmail:  req.OwnerEmail,
		OwnerName:   req.OwnerName,
		Category:    req.Category,
		Area:        req.Area,
		Price:       req.Price,
		Description: req.Description,
		Attrs:       req.Attrs,
	}
	if err := h.service.CreateService(r.Context(), svc); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toServiceResponse(svc))
}

// GetService は出品詳細を取得する。認証不要。
// GET /service/{id}
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	svc, err := h.service.GetService(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toServiceResponse(svc))
}

// ListOwnedServices は所有者の出品一覧を取得する。
// セッション＋所有権ミドルウェアの通過が前提。
// GET /services/{email}
func (h *ServiceHandler) ListOwnedServices(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	services, err := h.service.ListOwnedServices(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toServiceListResponse(services))
}

// UpdateStatus は出品の公開状態を更新する。認証不要（契約どおり）。last-write-wins。
// PATCH /service/{id}
func (h *ServiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}

	status := model.ServiceStatus(req.Status)
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

// DeleteService は所有者本人のみ出品を削除できる。
// セッションミドルウェアの通過が前提。レコードの所有者フィールドと
// 認証済みメールアドレスを照合する。
// DELETE /service/{id}
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.DeleteOwnedService(r.Context(), id, email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(successResponse{Success: true})
}
