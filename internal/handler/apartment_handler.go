package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/gin-gonic/gin"
)

type ApartmentHandler struct {
	apartments   *service.ApartmentService
	availability *service.AvailabilityChecker
}

func NewApartmentHandler(apartments *service.ApartmentService, availability *service.AvailabilityChecker) *ApartmentHandler {
	return &ApartmentHandler{
		apartments:   apartments,
		availability: availability,
	}
}

type ApartmentRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"required"`
	Location    string   `json:"location" binding:"required,max=200"`
	Category    string   `json:"category" binding:"required,max=100"`
	Price       float64  `json:"price" binding:"gte=0"`
	Capacity    int      `json:"capacity" binding:"required,gte=1"`
	Amenities   string   `json:"amenities"`
	Images      []string `json:"images"`
}

type ApartmentPatchRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Description *string   `json:"description"`
	Location    *string   `json:"location" binding:"omitempty,max=200"`
	Category    *string   `json:"category" binding:"omitempty,max=100"`
	Price       *float64  `json:"price" binding:"omitempty,gte=0"`
	Capacity    *int      `json:"capacity" binding:"omitempty,gte=1"`
	Amenities   *string   `json:"amenities"`
	Images      *[]string `json:"images"`
}

// List serves GET /api/apartments with optional filters.
func (h *ApartmentHandler) List(c *gin.Context) {
	filter := repository.ApartmentFilter{
		Category: c.Query("category"),
		Location: c.Query("location"),
		Search:   c.Query("search"),
	}

	var fields []apperr.FieldError
	for _, p := range []struct {
		name string
		dst  **float64
	}{{"minPrice", &filter.MinPrice}, {"maxPrice", &filter.MaxPrice}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			fields = append(fields, apperr.FieldError{Field: p.name, Message: p.name + " must be a non-negative number"})
			continue
		}
		*p.dst = &v
	}
	if raw := c.Query("capacity"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			fields = append(fields, apperr.FieldError{Field: "capacity", Message: "capacity must be a positive integer"})
		} else {
			filter.MinCapacity = v
		}
	}
	if len(fields) > 0 {
		respondError(c, apperr.Validation("invalid filter", fields...))
		return
	}

	page, err := h.apartments.List(c.Request.Context(), filter, parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *ApartmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	apt, err := h.apartments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *ApartmentHandler) Categories(c *gin.Context) {
	values, err := h.apartments.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": values})
}

func (h *ApartmentHandler) Locations(c *gin.Context) {
	values, err := h.apartments.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": values})
}

// Availability serves GET /api/apartments/:id/availability?start_time=&end_time=.
func (h *ApartmentHandler) Availability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	start, end, err := parseWindow(c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		respondError(c, err)
		return
	}

	available, err := h.availability.IsAvailable(c.Request.Context(), id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apartment_id": id,
		"start_time":   start,
		"end_time":     end,
		"available":    available,
	})
}

func (h *ApartmentHandler) Create(c *gin.Context) {
	var req ApartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	apt, err := h.apartments.Create(c.Request.Context(), actorFrom(c), service.ApartmentInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Amenities:   req.Amenities,
		Images:      req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

func (h *ApartmentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ApartmentPatchRequest
	if !bindJSON(c, &req) {
		return
	}

	apt, err := h.apartments.Update(c.Request.Context(), actorFrom(c), id, service.ApartmentPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Amenities:   req.Amenities,
		Images:      req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *ApartmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.apartments.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Apartment deleted successfully"})
}

// UploadImage accepts a multipart "image" field.
func (h *ApartmentHandler) UploadImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxImageSize+1<<20)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Validation("image file is required",
			apperr.FieldError{Field: "image", Message: "multipart field image is required"},
		))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()

	apt, err := h.apartments.UploadImage(c.Request.Context(), actorFrom(c), id, service.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Image uploaded successfully",
		"images":  apt.ImageList(),
	})
}
