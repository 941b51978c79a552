package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mara/billdesk/internal/app"
)

type dashboardHandler struct {
	app *app.App
}

func newDashboardHandler(application *app.App) *dashboardHandler {
	return &dashboardHandler{app: application}
}

func (h *dashboardHandler) registerRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.summary)
	router.GET("/dashboard/revenue", h.revenue)
}

func (h *dashboardHandler) summary(c *gin.Context) {
	summary, err := h.app.DashboardService.GetSummary(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	recent := make([]invoiceResponse, 0, len(summary.RecentInvoices))
	for _, inv := range summary.RecentInvoices {
		recent = append(recent, toInvoiceResponse(inv))
	}

	c.JSON(http.StatusOK, gin.H{
		"currency":         summary.Currency,
		"outstandingTotal": summary.OutstandingTotal,
		"overdueTotal":     summary.OverdueTotal,
		"paidThisMonth":    summary.PaidThisMonth,
		"activeClients":    summary.ActiveClients,
		"recentInvoices":   recent,
	})
}

func (h *dashboardHandler) revenue(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := parseID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = int(parsed)
	}

	revenue, err := h.app.DashboardService.GetRevenueByMonth(c.Request.Context(), currentUserID(c), year)
	if err != nil {
		writeError(c, err)
		return
	}

	months := make(map[string]float64, len(revenue))
	for month, total := range revenue {
		months[month.String()] = total
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "revenue": months})
}
