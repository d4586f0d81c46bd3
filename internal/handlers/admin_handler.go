package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haramapp/lottery-backend/internal/services"
)

// AdminHandler handles operational HTTP requests guarded by the admin key
type AdminHandler struct {
	lotteryService services.LotteryService
	otpService     services.OTPService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(lotteryService services.LotteryService, otpService services.OTPService) *AdminHandler {
	return &AdminHandler{
		lotteryService: lotteryService,
		otpService:     otpService,
	}
}

// RunDraw handles POST /admin/lottery/draw. It is the manual counterpart
// of the scheduled weekly draw.
func (h *AdminHandler) RunDraw(c *gin.Context) {
	winners, err := h.lotteryService.RunDraw(c, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"winners": winners,
		"count":   len(winners),
	})
}

// PendingTickets handles GET /admin/lottery/pending
func (h *AdminHandler) PendingTickets(c *gin.Context) {
	tickets, err := h.lotteryService.CurrentWeekPendingTickets(c, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": tickets,
		"count":   len(tickets),
	})
}

// Winners handles GET /admin/lottery/winners
func (h *AdminHandler) Winners(c *gin.Context) {
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

// SweepWinners handles POST /admin/lottery/sweep
func (h *AdminHandler) SweepWinners(c *gin.Context) {
	cancelled, err := h.lotteryService.SweepIncompleteWinners(c, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// CleanupOTP handles POST /admin/otp/cleanup
func (h *AdminHandler) CleanupOTP(c *gin.Context) {
	removed, err := h.otpService.CleanupExpired(c, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
