package handler

import (
	"net/http"

	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	favorites *service.FavoriteService
}

func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

type AddFavoriteRequest struct {
	ApartmentID uint `json:"apartment_id" binding:"required"`
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	var req AddFavoriteRequest
	if !bindJSON(c, &req) {
		return
	}
	fav, err := h.favorites.Add(c.Request.Context(), actorFrom(c), req.ApartmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Added to favorites",
		"favorite": fav,
	})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	id, ok := parseID(c, "apartment_id")
	if !ok {
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

func (h *FavoriteHandler) List(c *gin.Context) {
	page, err := h.favorites.List(c.Request.Context(), actorFrom(c), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *FavoriteHandler) Check(c *gin.Context) {
	id, ok := parseID(c, "apartment_id")
	if !ok {
		return
	}
	isFavorite, err := h.favorites.IsFavorite(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apartment_id": id,
		"is_favorite":  isFavorite,
	})
}
