package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haramapp/lottery-backend/internal/middleware"
	"github.com/haramapp/lottery-backend/internal/models"
	"github.com/haramapp/lottery-backend/internal/services"
	"github.com/haramapp/lottery-backend/internal/timewindow"
)

// LotteryHandler handles lottery HTTP requests
type LotteryHandler struct {
	lotteryService services.LotteryService
	cal            *timewindow.Calendar
}

// NewLotteryHandler creates a new LotteryHandler
func NewLotteryHandler(lotteryService services.LotteryService, cal *timewindow.Calendar) *LotteryHandler {
	return &LotteryHandler{
		lotteryService: lotteryService,
		cal:            cal,
	}
}

// Status handles GET /lottery/status
func (h *LotteryHandler) Status(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"registrationOpen": h.cal.IsRegistrationOpen(now),
		"weekStart":        h.cal.WeekStart(now),
	})
}

// Participate handles POST /lottery/participate
func (h *LotteryHandler) Participate(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ticket, err := h.lotteryService.Participate(c, userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// WinnerTicket handles GET /lottery/winner
func (h *LotteryHandler) WinnerTicket(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ticket, err := h.lotteryService.WinnerTicket(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket":   ticket,
		"deadline": h.cal.CompletionDeadline(ticket.CreatedAt),
	})
}

// CompleteWinnerInfo handles PUT /lottery/winner/info
func (h *LotteryHandler) CompleteWinnerInfo(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.WinnerInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.lotteryService.CompleteWinnerInfo(c, userID, &req, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// CurrentWeekWinners handles GET /lottery/winners. Any authenticated user
// may view the week's winning tickets.
func (h *LotteryHandler) CurrentWeekWinners(c *gin.Context) {
	tickets, err := h.lotteryService.CurrentWeekWinners(c, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"winners": tickets,
		"count":   len(tickets),
	})
}

// TicketHistory handles GET /lottery/tickets
func (h *LotteryHandler) TicketHistory(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	tickets, err := h.lotteryService.TicketHistory(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}
