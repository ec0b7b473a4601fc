// Package handlers, HTTP request/response katmanı.
//
// Handler ince olmalı: body'yi parse et, service'i çağır, sonucu yaz.
// İş mantığı service'te, veri erişimi repository'dedir. JSON API yanıtları
// pkg.JSON / pkg.Error ile, vitrin sayfaları StorefrontHandler'ın
// şablonlarıyla yazılır.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/ratelimit"
)

// maxJSONBody, JSON istek gövdesinin üst sınırı.
const maxJSONBody = 1 << 20

// decodeJSON, body'yi dst'ye okur. Hata durumunda 400 yazar ve false döner.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// queryInt, sayısal query parametresi. Yoksa veya bozuksa fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func clientMeta(r *http.Request) models.ClientMeta {
	return models.ClientMeta{IP: ratelimit.ClientIP(r), UserAgent: r.UserAgent()}
}

func reportRange(r *http.Request) models.ReportRange {
	q := r.URL.Query()
	return models.ReportRange{From: q.Get("from"), To: q.Get("to")}
}

type messageResponse struct {
	Message string `json:"message"`
}
