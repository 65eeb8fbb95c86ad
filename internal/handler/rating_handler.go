package handler

import (
	"net/http"

	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratings *service.RatingService
}

func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type ReservationRatingRequest struct {
	ReservationID uint   `json:"reservation_id" binding:"required"`
	ApartmentID   uint   `json:"apartment_id"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment"`
}

type DirectRatingRequest struct {
	ApartmentID uint   `json:"apartment_id" binding:"required"`
	Rating      int    `json:"rating" binding:"required,min=1,max=5"`
	Comment     string `json:"comment"`
}

type UpdateRatingRequest struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment"`
}

func (h *RatingHandler) SubmitForReservation(c *gin.Context) {
	var req ReservationRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := h.ratings.SubmitForReservation(c.Request.Context(), actorFrom(c), service.ReservationRatingInput{
		ReservationID: req.ReservationID,
		ApartmentID:   req.ApartmentID,
		Value:         req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Rating submitted successfully",
		"rating":  rating,
	})
}

func (h *RatingHandler) SubmitDirect(c *gin.Context) {
	var req DirectRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := h.ratings.SubmitDirect(c.Request.Context(), actorFrom(c), service.DirectRatingInput{
		ApartmentID: req.ApartmentID,
		Value:       req.Rating,
		Comment:     req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Rating submitted successfully",
		"rating":  rating,
	})
}

func (h *RatingHandler) ListForApartment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, err := h.ratings.ListForApartment(c.Request.Context(), id, parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *RatingHandler) Average(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stats, err := h.ratings.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *RatingHandler) ListMine(c *gin.Context) {
	page, err := h.ratings.ListMine(c.Request.Context(), actorFrom(c), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *RatingHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := h.ratings.Update(c.Request.Context(), actorFrom(c), id, service.UpdateRatingInput{
		Value:   req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Rating updated successfully",
		"rating":  rating,
	})
}

func (h *RatingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ratings.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully"})
}
