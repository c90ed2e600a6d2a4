package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

const (
	statsCacheKey = "helpdesk:dashboard-stats"
	statsCacheTTL = 30 * time.Second
)

// DashboardHandler serves aggregated ticket counters. Counters are cached in
// Redis briefly so dashboard polling does not hammer the tickets table.
type DashboardHandler struct {
	service *service.TicketService
	cache   *redis.Client
}

// NewDashboardHandler constructs handler. A nil cache disables caching.
func NewDashboardHandler(ticketService *service.TicketService, cache *redis.Client) *DashboardHandler {
	return &DashboardHandler{service: ticketService, cache: cache}
}

// GetStats GET /dashboard/stats.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Context(), statsCacheKey).Bytes(); err == nil {
			var stats service.DashboardStats
			if json.Unmarshal(cached, &stats) == nil {
				return c.JSON(fiber.Map{"data": stats, "cached": true})
			}
		}
	}

	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return err
	}

	if h.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			_ = h.cache.Set(c.Context(), statsCacheKey, payload, statsCacheTTL).Err()
		}
	}
	return c.JSON(fiber.Map{"data": stats})
}
