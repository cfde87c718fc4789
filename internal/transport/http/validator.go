package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"othello/internal/core"
)

var validate = validator.New()

// validationMiddleware parses and validates JSON bodies, storing the result
// for the handler under "validatedBody"
func validationMiddleware(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	path := c.Path()
	var requestType interface{}

	switch {
	case strings.HasSuffix(path, "/games") && method == fiber.MethodPost:
		requestType = &core.NewGameRequest{}
	case strings.HasSuffix(path, "/moves") && method == fiber.MethodPost:
		requestType = &core.MoveRequest{}
	case strings.HasSuffix(path, "/engine/stop") && method == fiber.MethodPost:
		requestType = &core.StopRequest{}
	case strings.HasSuffix(path, "/players") && method == fiber.MethodPut:
		requestType = &core.ConfigurePlayersRequest{}
	case strings.HasSuffix(path, "/options") && method == fiber.MethodPut:
		requestType = &core.OptionsRequest{}
	default:
		return c.Next() // No body for the other endpoints
	}

	// An empty body stands for the zero request
	if len(c.Body()) > 0 {
		if err := c.BodyParser(requestType); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid request body",
				Code:    core.CodeInvalidRequest,
				Details: err.Error(),
			})
		}
	}

	if errs := validate.Struct(requestType); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.CodeInvalidRequest,
			Details: describe(errs),
		})
	}

	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)

	return c.Next()
}

func describe(errs error) string {
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return errs.Error()
	}

	var details strings.Builder
	for _, err := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
		case "len":
			details.WriteString(fmt.Sprintf("%s must be %s characters", err.Field(), err.Param()))
		case "min":
			if err.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
			}
		case "max":
			if err.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return details.String()
}

// validatedBody returns the request stored by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) (*T, error) {
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return nil, fmt.Errorf("validation bypass detected")
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return nil, fmt.Errorf("validation data missing")
	}
	return body, nil
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
