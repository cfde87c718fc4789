// Package webserver serves the browser board, which talks to the API server
package webserver

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

//go:embed web
var webFS embed.FS

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
}

type Server struct {
	app *fiber.App
}

// New builds the UI app; apiURL is handed to the page through /config
func New(apiURL string) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           30 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(logger.New(logger.Config{
		Format: "${time} WEB ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())

	content, err := fs.Sub(webFS, "web")
	if err != nil {
		// the embedded tree always has web/
		panic(err)
	}

	app.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"apiUrl": apiURL})
	})

	app.Get("*", func(c *fiber.Ctx) error {
		name := strings.TrimPrefix(c.Path(), "/")
		if name == "" {
			name = "index.html"
		}

		data, err := fs.ReadFile(content, name)
		if err != nil {
			// unknown paths get the page itself
			name = "index.html"
			if data, err = fs.ReadFile(content, name); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("index.html not found")
			}
		}

		contentType, ok := contentTypes[path.Ext(name)]
		if !ok {
			contentType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	})

	return &Server{app: app}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
