package handler

import (
	"net/http"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type CreatePaymentRequest struct {
	ReservationID uint    `json:"reservation_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"gte=0"`
	PaymentMethod string  `json:"payment_method" binding:"required,max=50"`
}

type ProcessPaymentRequest struct {
	ReservationID uint `json:"reservation_id" binding:"required"`
}

// Create charges the amount through the configured gateway. A declined charge
// answers 201 with status "failed".
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.payments.Create(c.Request.Context(), actorFrom(c), service.CreatePaymentInput{
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		Method:        req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Payment processed successfully"
	if p.Status == models.PaymentFailed {
		message = "Payment was declined"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"payment": p,
	})
}

func (h *PaymentHandler) Process(c *gin.Context) {
	var req ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.payments.Process(c.Request.Context(), actorFrom(c), req.ReservationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment processed successfully",
		"payment": p,
	})
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	page, err := h.payments.ListMine(c.Request.Context(), actorFrom(c),
		models.PaymentStatus(c.Query("status")), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *PaymentHandler) ListAll(c *gin.Context) {
	page, err := h.payments.ListAll(c.Request.Context(), actorFrom(c),
		models.PaymentStatus(c.Query("status")), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.payments.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.payments.Refund(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment refunded successfully",
		"payment": p,
	})
}
