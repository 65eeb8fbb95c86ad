package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func init() {
	// Report JSON field names in validation errors instead of Go field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// Pagination is the metadata attached to every list response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

func respondPage[T any](c *gin.Context, page *service.PageResult[T]) {
	c.JSON(http.StatusOK, gin.H{
		"items": page.Items,
		"pagination": Pagination{
			CurrentPage:  page.Page,
			TotalPages:   page.TotalPages,
			TotalItems:   page.Total,
			ItemsPerPage: page.PageSize,
		},
	})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError translates an error into the JSON error body and aborts the request.
// Internal causes are only shown outside release mode.
func respondError(c *gin.Context, err error) {
	var ae *apperr.AppError
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err, "internal server error")
	}

	body := gin.H{
		"error": ae.Message,
		"code":  ae.Code,
	}
	if len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}

	if ae.Code == apperr.CodeInternal {
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		if gin.Mode() != gin.ReleaseMode && ae.Err != nil {
			body["details"] = ae.Err.Error()
		}
	}

	c.AbortWithStatusJSON(statusFor(ae.Code), body)
}

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid request body")
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return apperr.Validation("invalid request body", fields...)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// parsePage reads page/limit query parameters. Bad values fall back to defaults.
func parsePage(c *gin.Context) repository.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("limit"))
	return repository.Page{Number: number, Size: size}.Normalize()
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation("invalid id",
			apperr.FieldError{Field: param, Message: param + " must be a positive integer"},
		))
		return 0, false
	}
	return uint(id), true
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimestamp accepts RFC3339 and zone-less forms; zone-less values are UTC.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unsupported timestamp format")
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	var fields []apperr.FieldError
	startTime, err := parseTimestamp(start)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "start_time", Message: "start_time must be an ISO-8601 timestamp"})
	}
	endTime, err := parseTimestamp(end)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "end_time", Message: "end_time must be an ISO-8601 timestamp"})
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, apperr.Validation("invalid reservation window", fields...)
	}
	return startTime, endTime, nil
}

// actorFrom reads the authenticated caller set by the auth middleware.
func actorFrom(c *gin.Context) service.Actor {
	role, _ := c.Get("user_role")
	r, _ := role.(models.Role)
	return service.Actor{UserID: c.GetUint("user_id"), Role: r}
}
