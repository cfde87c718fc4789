package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"othello/internal/core"
	"othello/internal/processor"
	"othello/internal/service"
)

const (
	rateLimitRate  = 10 // req/sec
	newGameTimeout = 10 * time.Second
)

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: service.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		// long-poll reads keep a connection open and do not count
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet && c.Query("wait") == "true"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.CodeRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Get("/games/current", h.GetCurrentGame)
	api.Get("/games/history", h.GetHistory)
	api.Get("/games/:gameId/board", h.GetBoard)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Post("/games/:gameId/undo", h.Undo)
	api.Post("/games/:gameId/redo", h.Redo)
	api.Post("/games/:gameId/resume", h.Resume)

	api.Get("/engine", h.GetEngine)
	api.Post("/engine/stop", h.Stop)
	api.Put("/players", h.ConfigurePlayers)
	api.Put("/options", h.SetOptions)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.CodeInvalidRequest,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.CodeInternalError,
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.CodeGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.CodeInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.CodeRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps a domain error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case core.CodeGameNotFound:
		return fiber.StatusNotFound
	case core.CodeStaleGame, core.CodeNotAwaitingInput:
		return fiber.StatusConflict
	case core.CodeInvalidMove, core.CodeInvalidRequest, core.CodeInvalidConfig:
		return fiber.StatusBadRequest
	case core.CodeEngineUnavailable:
		return fiber.StatusServiceUnavailable
	case core.CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// sendError writes err with the status its code maps to
func sendError(c *fiber.Ctx, err error) error {
	code := core.Code(err)
	return c.Status(statusFor(code)).JSON(core.ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// Health check endpoint with engine and storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"engine":  h.proc.EngineState().String(),
		"storage": h.svc.GetStorageHealth(),
	})
}
