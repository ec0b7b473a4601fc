package pkg

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/akinalp/pastane/pkg/logger"
)

// APIResponse, tüm JSON yanıtlarının zarfı.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON, başarılı yanıt yazar.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

// Error, domain error'ını HTTP status'a çevirip yazar.
//
// 500'e düşen error'ların mesajı istemciye gösterilmez; sadece loglanır.
// Repository katmanının SQL hata metinleri böylece dışarı sızmaz.
func Error(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Named("http").Error("internal error", zap.Error(err))
		msg = ErrInternal.Error()
	}

	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// ErrorWithMessage, sabit mesajlı hata yanıtı yazar.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Named("http").Warn("failed to encode response", zap.Error(err))
	}
}

// StatusOf, error'ın karşılık geldiği HTTP status kodunu döner.
// HTML sayfaları da aynı eşlemeyi kullanır.
func StatusOf(err error) int {
	return mapErrorToStatus(err)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
