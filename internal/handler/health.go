package handler

import (
	"net/http"
	"time"
)

// serviceName はヘルスチェックレスポンスで名乗るサービス名。
const serviceName = "gameswipe-backend"

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	OK      bool      `json:"ok"`
	Service string    `json:"service"`
	Time    time.Time `json:"time"`
}

// Health はヘルスチェックを処理する。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:      true,
		Service: serviceName,
		Time:    time.Now(),
	})
}
