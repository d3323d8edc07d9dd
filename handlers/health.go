package handlers

import (
	"net/http"

	"github.com/kova98/yars/models"
)

type HealthHandler struct {
	storage bool
	proxies func() map[string]models.ProxyStats
}

// NewHealthHandler reports whether storage is configured and, when proxies
// is not nil, the per proxy counters it returns.
func NewHealthHandler(storage bool, proxies func() map[string]models.ProxyStats) *HealthHandler {
	return &HealthHandler{storage: storage, proxies: proxies}
}

func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) Result {
	res := models.HealthResponse{Status: "ok", Storage: h.storage}
	if h.proxies != nil {
		res.Proxies = h.proxies()
	}
	return Ok(res)
}
