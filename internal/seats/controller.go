package seats

import (
	"errors"
	"io"
	"net/http"

	"hallbook/internal/shared/middleware"
	"hallbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// statusForError maps booking-flow errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflictLost):
		return http.StatusConflict
	case errors.Is(err, ErrExpiredLock):
		return http.StatusGone
	case errors.Is(err, ErrNotHolder):
		return http.StatusForbidden
	case errors.Is(err, ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// SESSIONS

func (c *Controller) NewSession(ctx *gin.Context) {
	session := c.service.NewSession(ctx.Request.Context())
	response.RespondJSON(ctx, "success", http.StatusCreated, "Session created successfully", session, nil)
}

// SEAT MAP

func (c *Controller) GetSeatMap(ctx *gin.Context) {
	seatMap, err := c.service.GetSeatMap(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to load seat map", nil, err.Error())
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Seat map retrieved successfully", seatMap, nil)
}

// StreamSeatMap pushes full snapshots over server-sent events. The first
// event arrives immediately; one more follows every seat change until the
// client disconnects.
func (c *Controller) StreamSeatMap(ctx *gin.Context) {
	snapshots, unsubscribe, err := c.service.Subscribe(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to subscribe to seat map", nil, err.Error())
		return
	}
	defer unsubscribe()

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	ctx.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return false
			}
			ctx.SSEvent("seats", ToSeatMapResponse(snapshot))
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

// CHECKOUT FLOW

func (c *Controller) Checkout(ctx *gin.Context) {
	var req CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	session := middleware.GetSessionToken(ctx)
	checkout, err := c.service.Checkout(ctx.Request.Context(), session, req)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to hold seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats held successfully", checkout, nil)
}

func (c *Controller) CancelCheckout(ctx *gin.Context) {
	var req CancelCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	session := middleware.GetSessionToken(ctx)
	if err := c.service.CancelCheckout(ctx.Request.Context(), session, req); err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to cancel checkout", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Checkout cancelled successfully", nil, nil)
}

func (c *Controller) SubmitRegistration(ctx *gin.Context) {
	var req SubmitRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	session := middleware.GetSessionToken(ctx)
	result, err := c.service.SubmitRegistration(ctx.Request.Context(), session, req)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to submit registration", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Registration submitted successfully", result, nil)
}

func (c *Controller) GetSessionHolds(ctx *gin.Context) {
	session := middleware.GetSessionToken(ctx)
	holds, err := c.service.GetSessionHolds(ctx.Request.Context(), session)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to get session holds", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session holds retrieved successfully", holds, nil)
}
