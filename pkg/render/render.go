package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-dev/songdirector/pkg/section"
)

// View names served by the application.
const (
	ViewController     = "controller"
	ViewViewer         = "viewer"
	ViewSectionDisplay = "fragments/section-display"
)

// RequiredViews are the views the server needs at startup.
var RequiredViews = []string{ViewController, ViewViewer, ViewSectionDisplay}

// ErrUnknownView is returned when no view is registered under a name.
var ErrUnknownView = errors.New("render: unknown view")

// Renderer renders a named view of a section state.
type Renderer interface {
	Render(ctx context.Context, view string, st section.State) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, view string, st section.State) (string, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, view string, st section.State) (string, error) {
	return f(ctx, view, st)
}

// Error reports a failed render.
type Error struct {
	View string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.View, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Require returns an error naming the first missing view. Renderers that
// cannot report their views (no Has method) are assumed complete.
func Require(r Renderer, views ...string) error {
	h, ok := r.(interface{ Has(string) bool })
	if !ok {
		return nil
	}
	for _, v := range views {
		if !h.Has(v) {
			return &Error{View: v, Err: ErrUnknownView}
		}
	}
	return nil
}
