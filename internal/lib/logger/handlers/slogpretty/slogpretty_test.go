package slogpretty

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandler_PrintsMessageAndAttrs(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug}}
	log := slog.New(opts.NewPrettyHandler(&buf)).With(slog.String("op", "service.CheckoutService.PlaceOrder"))

	log.Error("checkout failed", slog.Any("error", errors.New("cart is empty")), slog.Int("orders", 2))

	out := buf.String()
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, "checkout failed")
	assert.Contains(t, out, `"op": "service.CheckoutService.PlaceOrder"`)
	assert.Contains(t, out, `"error": "cart is empty"`)
	assert.Contains(t, out, `"orders": 2`)
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelInfo}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}
