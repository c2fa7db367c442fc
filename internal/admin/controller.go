package admin

import (
	"errors"
	"net/http"

	"hallbook/internal/seats"
	"hallbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPassphrase):
		return http.StatusUnauthorized
	case errors.Is(err, seats.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, seats.ErrConflictLost):
		return http.StatusConflict
	case errors.Is(err, seats.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	login, err := c.service.Login(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Login failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", login, nil)
}

func (c *Controller) ListSeats(ctx *gin.Context) {
	status := ctx.Query("status")
	query := ctx.Query("q")

	list, err := c.service.ListSeats(ctx.Request.Context(), status, query)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to list seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", list, nil)
}

func (c *Controller) Approve(ctx *gin.Context) {
	seatID := ctx.Param("id")
	if err := c.service.Approve(ctx.Request.Context(), seatID); err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to approve registration", nil, err.Error())
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Registration approved", nil, nil)
}

func (c *Controller) Decline(ctx *gin.Context) {
	seatID := ctx.Param("id")
	if err := c.service.Decline(ctx.Request.Context(), seatID); err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to decline registration", nil, err.Error())
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Registration declined", nil, nil)
}

func (c *Controller) Reset(ctx *gin.Context) {
	seatID := ctx.Param("id")
	if err := c.service.Reset(ctx.Request.Context(), seatID); err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to reset seat", nil, err.Error())
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Seat reset", nil, nil)
}

func (c *Controller) GetReceipt(ctx *gin.Context) {
	seatID := ctx.Param("id")
	receipt, err := c.service.GetReceipt(ctx.Request.Context(), seatID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to get receipt", nil, err.Error())
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Receipt retrieved successfully", receipt, nil)
}

func (c *Controller) Stats(ctx *gin.Context) {
	stats, err := c.service.Stats(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to compute stats", nil, err.Error())
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Stats computed successfully", stats, nil)
}

func (c *Controller) Export(ctx *gin.Context) {
	data, err := c.service.ExportCSV(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to export seats", nil, err.Error())
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="seats.csv"`)
	ctx.Data(http.StatusOK, "text/csv", data)
}
