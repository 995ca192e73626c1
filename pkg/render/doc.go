// Package render turns a section.State into HTML.
//
// A Renderer maps a view name and a state snapshot to an HTML string. The
// server needs three views:
//
//   - "controller": the full page the performer uses to set the section
//   - "viewer": the full page the audience-facing display shows
//   - "fragments/section-display": the out-of-band fragment pushed to every
//     live viewer when the state changes
//
// Views is the built-in Renderer. Its pages are templ components, so a view
// can be replaced with Register without touching the server:
//
//	views := render.NewViews(render.DefaultOptions())
//	views.Register(render.ViewViewer, func(p render.Page) templ.Component {
//		return myViewer(p)
//	})
//
// Rendering is a pure function of the state: the same state always yields
// the same bytes, and every user-visible value is HTML-escaped.
package render
