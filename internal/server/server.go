// Package server exposes the question answering pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bookshield/internal/domain"
)

// Service is the part of the application layer the server needs.
type Service interface {
	Ingest(ctx context.Context, bookID, text string) (int, error)
	Ask(ctx context.Context, req domain.QueryRequest) (domain.AnswerResponse, error)
	Recap(ctx context.Context, bookID string, maxChapter int) (domain.AnswerResponse, error)
}

type Server struct {
	echo    *echo.Echo
	service Service
}

func New(service Service, allowOrigin string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if allowOrigin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{allowOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodPost},
		}))
	}

	s := &Server{echo: e, service: service}

	api := e.Group("/api")
	api.GET("/health", s.health)
	api.POST("/ask", s.ask)
	api.POST("/books/:book_id", s.ingest)
	api.GET("/books/:book_id/recap", s.recap)

	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type askRequest struct {
	UserID     string `json:"user_id"`
	BookID     string `json:"book_id"`
	Query      string `json:"query"`
	MaxChapter *int   `json:"max_chapter"`
}

type answerResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Warning string   `json:"warning,omitempty"`
}

type ingestResponse struct {
	BookID string `json:"book_id"`
	Chunks int    `json:"chunks"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	if req.MaxChapter == nil {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Message: "max_chapter: must be provided"})
	}
	resp, err := s.service.Ask(c.Request().Context(), domain.QueryRequest{
		UserID:     req.UserID,
		BookID:     req.BookID,
		Query:      req.Query,
		MaxChapter: *req.MaxChapter,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, answerResponse{Answer: resp.Answer, Sources: resp.Sources, Warning: resp.Warning})
}

func (s *Server) ingest(c echo.Context) error {
	bookID := c.Param("book_id")
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "could not read body"})
	}
	n, err := s.service.Ingest(c.Request().Context(), bookID, string(body))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ingestResponse{BookID: bookID, Chunks: n})
}

func (s *Server) recap(c echo.Context) error {
	bookID := c.Param("book_id")
	var maxChapter int
	if err := echo.QueryParamsBinder(c).MustInt("max_chapter", &maxChapter).BindError(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Message: "max_chapter: must be an integer"})
	}
	resp, err := s.service.Recap(c.Request().Context(), bookID, maxChapter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, answerResponse{Answer: resp.Answer, Sources: resp.Sources, Warning: resp.Warning})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(c echo.Context, err error) error {
	var inputErr *domain.ClientInputError
	if errors.As(err, &inputErr) {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Message: inputErr.Error()})
	}
	if errors.Is(err, domain.ErrBookNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Message: err.Error()})
	}
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return c.JSON(http.StatusBadGateway, errorResponse{Message: upstreamErr.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
}
