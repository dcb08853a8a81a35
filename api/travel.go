package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/Domenick1991/travelbook/internal/service/travel"
	"github.com/gin-gonic/gin"
)

type TravelHandler struct {
	service travel.TravelUseCase
}

func NewTravelHandler(service travel.TravelUseCase) *TravelHandler {
	return &TravelHandler{service: service}
}

func (h *TravelHandler) Register(router *gin.RouterGroup) {
	router.GET("/travel", h.search)
	router.GET("/travel/:travel_id", h.get)
	router.GET("/cities", h.cities)
}

func (h *TravelHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("/travel", h.create)
}

type travelOptionResponse struct {
	TravelID       string `json:"travel_id"`
	Kind           string `json:"kind"`
	Source         string `json:"source"`
	Destination    string `json:"destination"`
	DepartureAt    string `json:"departure_at"`
	ArrivalAt      string `json:"arrival_at"`
	PriceCents     int64  `json:"price_cents"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
}

func toTravelOptionResponse(t *domain.TravelOption) travelOptionResponse {
	return travelOptionResponse{
		TravelID:       t.TravelID,
		Kind:           string(t.Kind),
		Source:         t.Source,
		Destination:    t.Destination,
		DepartureAt:    t.DepartureAt.Format(time.RFC3339),
		ArrivalAt:      t.ArrivalAt.Format(time.RFC3339),
		PriceCents:     t.PriceCents,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
	}
}

func toTravelOptionResponses(options []domain.TravelOption) []travelOptionResponse {
	out := make([]travelOptionResponse, 0, len(options))
	for i := range options {
		out = append(out, toTravelOptionResponse(&options[i]))
	}
	return out
}

func (h *TravelHandler) search(c *gin.Context) {
	filters, err := parseSearchFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options, err := h.service.Search(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toTravelOptionResponses(options), "count": len(options)})
}

func (h *TravelHandler) get(c *gin.Context) {
	travelID := c.Param("travel_id")

	option, err := h.service.GetByTravelID(c.Request.Context(), travelID)
	if err != nil {
		respondError(c, err)
		return
	}
	similar, err := h.service.Similar(c.Request.Context(), travelID, 5)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"travel_option": toTravelOptionResponse(option),
		"similar":       toTravelOptionResponses(similar),
	})
}

func (h *TravelHandler) cities(c *gin.Context) {
	cities, err := h.service.Cities(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

type createTravelOptionRequest struct {
	TravelID       string `json:"travel_id"`
	Kind           string `json:"kind"`
	Source         string `json:"source"`
	Destination    string `json:"destination"`
	DepartureAt    string `json:"departure_at"`
	ArrivalAt      string `json:"arrival_at"`
	PriceCents     int64  `json:"price_cents"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats *int   `json:"available_seats"`
}

func (h *TravelHandler) create(c *gin.Context) {
	var req createTravelOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure_at must be RFC3339"})
		return
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrival_at must be RFC3339"})
		return
	}

	available := req.TotalSeats
	if req.AvailableSeats != nil {
		available = *req.AvailableSeats
	}

	option := &domain.TravelOption{
		TravelID:       req.TravelID,
		Kind:           domain.TravelKind(req.Kind),
		Source:         req.Source,
		Destination:    req.Destination,
		DepartureAt:    departure,
		ArrivalAt:      arrival,
		PriceCents:     req.PriceCents,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: available,
	}
	if err := h.service.Create(c.Request.Context(), option); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTravelOptionResponse(option))
}

func parseSearchFilters(c *gin.Context) (domain.TravelSearchFilters, error) {
	var filters domain.TravelSearchFilters
	filters.Source = c.Query("source")
	filters.Destination = c.Query("destination")
	filters.Kind = domain.TravelKind(c.Query("kind"))

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filters, domain.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
		}
		filters.Date = &date
	}
	if raw := c.Query("min_price_cents"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, domain.ValidationError{Field: "min_price_cents", Msg: "must be an integer"}
		}
		filters.MinPriceCents = &v
	}
	if raw := c.Query("max_price_cents"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, domain.ValidationError{Field: "max_price_cents", Msg: "must be an integer"}
		}
		filters.MaxPriceCents = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return filters, domain.ValidationError{Field: "limit", Msg: "must be a non-negative integer"}
		}
		filters.Limit = v
	}
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return filters, domain.ValidationError{Field: "offset", Msg: "must be a non-negative integer"}
		}
		filters.Offset = v
	}
	return filters, nil
}
