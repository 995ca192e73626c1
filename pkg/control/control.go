// Package control applies controller requests to the shared section state.
//
// Every operation is a single write to the watch.Cell and therefore wakes every
// subscribed viewer exactly once, even when the value does not change.
package control

import (
	"context"
	"log/slog"

	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/watch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation names, used for logs, spans and metrics.
const (
	OpSetCategory = "set_category"
	OpSetNumber   = "set_number"
	OpClear       = "clear"
)

const tracerName = "github.com/vango-dev/songdirector/pkg/control"

// Recorder receives one call per applied mutation.
type Recorder interface {
	RecordMutation(op string)
}

// Controller mutates the shared section state.
type Controller struct {
	cell     *watch.Cell[section.State]
	recorder Recorder
	tracer   trace.Tracer
	logger   *slog.Logger
}

// New creates a Controller for cell. recorder may be nil; a nil logger logs
// to slog.Default().
func New(cell *watch.Cell[section.State], recorder Recorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default().With("component", "control")
	}
	return &Controller{
		cell:     cell,
		recorder: recorder,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// Current returns the current section state.
func (c *Controller) Current() section.State {
	return c.cell.Read()
}

// SetCategory starts a new, unnumbered section.
func (c *Controller) SetCategory(ctx context.Context, letter rune) error {
	if letter == 0 {
		return section.ErrInvalidCategory
	}
	c.logger.Debug("setting section type", "section_type", string(letter))
	return c.apply(ctx, OpSetCategory, func(section.State) section.State {
		return section.State{Category: letter}
	}, attribute.String("section.type", string(letter)))
}

// SetNumber numbers the current section, keeping its category.
func (c *Controller) SetNumber(ctx context.Context, n uint) error {
	if n == 0 {
		return section.ErrInvalidNumber
	}
	c.logger.Debug("setting section number", "section_number", n)
	return c.apply(ctx, OpSetNumber, func(st section.State) section.State {
		return st.WithNumber(n)
	}, attribute.Int64("section.number", int64(n)))
}

// Clear removes the active section.
func (c *Controller) Clear(ctx context.Context) error {
	c.logger.Debug("clearing section")
	return c.apply(ctx, OpClear, func(section.State) section.State {
		return section.State{}
	})
}

func (c *Controller) apply(ctx context.Context, op string, fn func(section.State) section.State, attrs ...attribute.KeyValue) error {
	_, span := c.tracer.Start(ctx, "section."+op, trace.WithAttributes(attrs...))
	defer span.End()

	if err := c.cell.Modify(fn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("section state unavailable", "op", op, "error", err)
		return err
	}

	if c.recorder != nil {
		c.recorder.RecordMutation(op)
	}
	return nil
}
