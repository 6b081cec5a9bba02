package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	return app
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestErrorMiddlewareTranslatesDomainErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	assert.Equal(t, "ticket not found", envelope.Error.Message)
}

func TestErrorMiddlewareIncludesDetails(t *testing.T) {
	app := newTestApp()
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("bad input", map[string]any{"field": "title"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var envelope errorEnvelope
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)
	assert.Equal(t, "title", envelope.Error.Details["field"])
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app := newTestApp()
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("unexpected")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var envelope errorEnvelope
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
}

func TestSuccessPassesThrough(t *testing.T) {
	app := newTestApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
