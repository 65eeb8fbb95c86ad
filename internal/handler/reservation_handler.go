package handler

import (
	"net/http"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type CreateReservationRequest struct {
	ApartmentID uint   `json:"apartment_id" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
}

type UpdateStatusRequest struct {
	Status models.ReservationStatus `json:"status" binding:"required"`
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var req CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		respondError(c, err)
		return
	}

	actor := actorFrom(c)
	logger.Log.Debug("Reservation request",
		zap.Uint("user_id", actor.UserID),
		zap.Uint("apartment_id", req.ApartmentID),
		zap.Time("start_time", start),
		zap.Time("end_time", end),
	)

	res, err := h.reservations.Create(c.Request.Context(), actor, service.CreateReservationInput{
		ApartmentID: req.ApartmentID,
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) ListMine(c *gin.Context) {
	page, err := h.reservations.ListMine(c.Request.Context(), actorFrom(c),
		models.ReservationStatus(c.Query("status")), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *ReservationHandler) ListAll(c *gin.Context) {
	page, err := h.reservations.ListAll(c.Request.Context(), actorFrom(c),
		models.ReservationStatus(c.Query("status")), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.reservations.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.reservations.Cancel(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Reservation cancelled successfully",
		"reservation": res,
	})
}

func (h *ReservationHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.reservations.UpdateStatus(c.Request.Context(), actorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Reservation status updated successfully",
		"reservation": res,
	})
}

func (h *ReservationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.reservations.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted successfully"})
}
