package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/Domenick1991/travelbook/internal/middleware"
	"github.com/Domenick1991/travelbook/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TravelID         string          `json:"travel_id"`
	Seats            int             `json:"seats"`
	PassengerDetails json.RawMessage `json:"passenger_details"`
}

type bookingResponse struct {
	BookingID        string          `json:"booking_id"`
	TravelID         string          `json:"travel_id"`
	Seats            int             `json:"seats"`
	TotalPriceCents  int64           `json:"total_price_cents"`
	Status           string          `json:"status"`
	PassengerDetails json.RawMessage `json:"passenger_details,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID:        b.BookingID,
		TravelID:         b.TravelID,
		Seats:            b.Seats,
		TotalPriceCents:  b.TotalPriceCents,
		Status:           string(b.Status),
		PassengerDetails: b.PassengerDetails,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.DELETE("/bookings/:booking_id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		TravelID:         req.TravelID,
		UserID:           userID,
		Email:            middleware.Email(c),
		Seats:            req.Seats,
		PassengerDetails: req.PassengerDetails,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), booking.CancelBookingInput{
		BookingID: c.Param("booking_id"),
		UserID:    userID,
		Email:     middleware.Email(c),
	})
	if err != nil {
		// a repeat cancel is a no-op outcome, not a failure
		if errors.Is(err, domain.ErrAlreadyCancelled) {
			c.JSON(http.StatusOK, gin.H{
				"booking": toBookingResponse(cancelled),
				"message": "already cancelled",
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": toBookingResponse(cancelled)})
}
