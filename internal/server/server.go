package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/genrefreq/internal/core/model"
	"github.com/agenthands/genrefreq/internal/driver"
	"github.com/agenthands/genrefreq/internal/logging"
	"github.com/agenthands/genrefreq/internal/metrics"
)

// Querier is the part of core.QueryClient the HTTP layer needs.
type Querier interface {
	RunAggregationQuery(ctx context.Context, state string) ([]model.GenreFrequency, error)
	Ping(ctx context.Context) error
}

type Server struct {
	Client Querier
}

func NewServer(client Querier) *Server {
	return &Server{Client: client}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.POST("/genres", s.QueryGenres)
	r.GET("/genres/:state", s.GetGenres)
	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

type GenreRequest struct {
	State string `json:"state" binding:"required"`
}

type GenreResponse struct {
	State   string                 `json:"state"`
	Results []model.GenreFrequency `json:"results"`
}

func (s *Server) QueryGenres(c *gin.Context) {
	var req GenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.respond(c, req.State)
}

func (s *Server) GetGenres(c *gin.Context) {
	s.respond(c, c.Param("state"))
}

func (s *Server) respond(c *gin.Context, state string) {
	rows, err := s.Client.RunAggregationQuery(c.Request.Context(), state)
	if err != nil {
		logging.Op().Error("genre query failed",
			"request_id", c.GetString("request_id"),
			"state", state,
			"error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenreResponse{State: state, Results: rows})
}

func (s *Server) Health(c *gin.Context) {
	if err := s.Client.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	var connErr *driver.ConnectionError
	var queryErr *driver.QueryExecutionError
	switch {
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &queryErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
