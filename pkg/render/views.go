package render

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/a-h/templ"
	"github.com/vango-dev/songdirector/pkg/section"
)

// Category is a section kind offered on the controller page.
type Category struct {
	Letter rune
	Label  string
}

// Options configures the built-in views.
type Options struct {
	// Title is the document title.
	Title string

	// SocketPath is the WebSocket endpoint viewers connect to.
	SocketPath string

	// AssetPrefix is prepended to script and stylesheet paths.
	AssetPrefix string

	// Categories are the category buttons on the controller page.
	Categories []Category

	// MaxNumber is the highest number button on the controller page.
	MaxNumber uint
}

// DefaultOptions returns the options used by the server.
func DefaultOptions() Options {
	return Options{
		Title:       "Song Director",
		SocketPath:  "/section",
		AssetPrefix: "/",
		Categories: []Category{
			{Letter: 'I', Label: "Intro"},
			{Letter: 'V', Label: "Verse"},
			{Letter: 'P', Label: "Pre-chorus"},
			{Letter: 'C', Label: "Chorus"},
			{Letter: 'B', Label: "Bridge"},
			{Letter: 'S', Label: "Solo"},
			{Letter: 'O', Label: "Outro"},
		},
		MaxNumber: 6,
	}
}

// Page is the model handed to every view.
type Page struct {
	Options
	State section.State
}

// Display returns the section text shown in the page.
func (p Page) Display() string {
	return p.State.Display()
}

// ViewFunc builds the component for a page.
type ViewFunc func(Page) templ.Component

// Views is a Renderer backed by templ components.
type Views struct {
	opts Options

	mu    sync.RWMutex
	views map[string]ViewFunc
}

// NewViews creates a view set with the controller, viewer and section display
// views registered.
func NewViews(opts Options) *Views {
	v := &Views{
		opts:  opts,
		views: make(map[string]ViewFunc),
	}
	v.Register(ViewController, controllerPage)
	v.Register(ViewViewer, viewerPage)
	v.Register(ViewSectionDisplay, sectionDisplay)
	return v
}

// Register adds or replaces a view.
func (v *Views) Register(name string, fn ViewFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views[name] = fn
}

// Has reports whether a view is registered under name.
func (v *Views) Has(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.views[name]
	return ok
}

// Render renders the named view for st.
func (v *Views) Render(ctx context.Context, view string, st section.State) (string, error) {
	v.mu.RLock()
	fn, ok := v.views[view]
	v.mu.RUnlock()
	if !ok {
		return "", &Error{View: view, Err: ErrUnknownView}
	}

	var buf bytes.Buffer
	if err := fn(Page{Options: v.opts, State: st}).Render(ctx, &buf); err != nil {
		return "", &Error{View: view, Err: err}
	}
	return buf.String(), nil
}

// text is an escaped text node.
func text(s string) templ.Component {
	return templ.Raw(templ.EscapeString(s))
}

// withChildren renders parent with children available through
// templ.GetChildren.
func withChildren(parent, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return parent.Render(templ.WithChildren(ctx, children), w)
	})
}

// layout is the shared document shell around its children.
func layout(p Page, class string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)
		return templ.Join(
			templ.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`),
			templ.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`),
			templ.Raw(`<title>`), text(p.Title), templ.Raw(`</title>`),
			templ.Raw(`<link rel="stylesheet" href="`), text(p.AssetPrefix), templ.Raw(`style.css">`),
			templ.Raw(`<script src="`), text(p.AssetPrefix), templ.Raw(`client.js" defer></script>`),
			templ.Raw(`</head><body class="`), text(class), templ.Raw(`">`),
			children,
			templ.Raw(`</body></html>`),
		).Render(ctx, w)
	})
}

// sectionDisplay is the fragment pushed to live viewers. Clients swap it in by
// id; hx-swap-oob lets htmx-based pages do the same.
func sectionDisplay(p Page) templ.Component {
	return templ.Join(
		templ.Raw(`<div id="section-display" class="section-display" hx-swap-oob="true">`),
		text(p.Display()),
		templ.Raw(`</div>`),
	)
}

// liveDisplay connects to the socket and shows the current section until the
// first push replaces it.
func liveDisplay(p Page) templ.Component {
	return templ.Join(
		templ.Raw(`<div class="live" data-socket="`), text(p.SocketPath), templ.Raw(`">`),
		sectionDisplay(p),
		templ.Raw(`</div>`),
	)
}

func categoryButton(c Category) templ.Component {
	letter := string(c.Letter)
	return templ.Join(
		templ.Raw(`<button data-method="PUT" data-action="/section/type" data-field="section_type" data-value="`),
		text(letter), templ.Raw(`" title="`), text(c.Label), templ.Raw(`">`),
		text(letter),
		templ.Raw(`</button>`),
	)
}

func numberButton(n uint) templ.Component {
	num := strconv.FormatUint(uint64(n), 10)
	return templ.Join(
		templ.Raw(`<button data-method="PUT" data-action="/section/number" data-field="section_number" data-value="`),
		text(num), templ.Raw(`">`),
		text(num),
		templ.Raw(`</button>`),
	)
}

func clearButton() templ.Component {
	return templ.Raw(`<button class="clear" data-method="DELETE" data-action="/section">Clear</button>`)
}

// nav wraps items in a nav element of the given class.
func nav(class string, items []templ.Component) templ.Component {
	parts := make([]templ.Component, 0, len(items)+2)
	parts = append(parts, templ.Join(templ.Raw(`<nav class="`), text(class), templ.Raw(`">`)))
	parts = append(parts, items...)
	parts = append(parts, templ.Raw(`</nav>`))
	return templ.Join(parts...)
}

func viewerPage(p Page) templ.Component {
	return withChildren(layout(p, "viewer"), liveDisplay(p))
}

func controllerPage(p Page) templ.Component {
	categories := make([]templ.Component, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, categoryButton(c))
	}
	numbers := make([]templ.Component, 0, p.MaxNumber)
	for n := uint(1); n <= p.MaxNumber; n++ {
		numbers = append(numbers, numberButton(n))
	}
	return withChildren(layout(p, "controller"), templ.Join(
		liveDisplay(p),
		nav("categories", categories),
		nav("numbers", numbers),
		clearButton(),
	))
}
