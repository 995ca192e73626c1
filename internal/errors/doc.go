// Package errors provides structured, actionable errors for the song director
// server and CLI.
//
// Each registered error has a code (e.g. "S001") that maps to a category, a
// short message and a longer explanation. Errors can carry a suggestion and
// wrap an underlying cause:
//
//	err := errors.New("C002").
//	    WithDetail(`address "::1" is missing a port`).
//	    WithSuggestion("Use host:port, for example 0.0.0.0:3000")
//
//	err.Fprint(os.Stderr)
//	// ERROR C002: Invalid listen address
//	//
//	//   address "::1" is missing a port
//	//
//	//   Hint: Use host:port, for example 0.0.0.0:3000
//
// Fprint colors its output only when the writer is a terminal and NO_COLOR is
// unset.
package errors
