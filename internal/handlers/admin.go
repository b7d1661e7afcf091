package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/services"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// AdminUserServiceInterface defines the interface for admin user listing
type AdminUserServiceInterface interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
}

// SecurityLogReader reads the audit trail for the admin surface
type SecurityLogReader interface {
	List(ctx context.Context, limit, offset int) ([]*models.SecurityEvent, error)
}

// AdminHandler serves admin-only endpoints
type AdminHandler struct {
	users  AdminUserServiceInterface
	events SecurityLogReader
}

func NewAdminHandler(users AdminUserServiceInterface, events SecurityLogReader) *AdminHandler {
	return &AdminHandler{
		users:  users,
		events: events,
	}
}

// ListUsers returns a page of accounts
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	users, err := h.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   users,
		"limit":  limit,
		"offset": offset,
	})
}

// ListSecurityLogs returns recent security events, newest first
func (h *AdminHandler) ListSecurityLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	events, err := h.events.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   events,
		"limit":  limit,
		"offset": offset,
	})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
