package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Startup (S001-S099)
	"S001": {
		Category:   CategoryStartup,
		Message:    "Failed to load views",
		Detail:     "One or more views required by the server are not registered with the renderer.",
		Suggestion: "Register the controller, viewer and fragments/section-display views.",
	},
	"S002": {
		Category:   CategoryStartup,
		Message:    "Failed to start web server",
		Detail:     "The HTTP listener could not be opened or stopped unexpectedly.",
		Suggestion: "Check that the address is free and that you may bind to it.",
	},
	"S003": {
		Category: CategoryStartup,
		Message:  "Server shutdown did not complete",
		Detail:   "Live sessions or in-flight requests did not finish within the shutdown timeout.",
	},

	// Configuration (C001-C099)
	"C001": {
		Category:   CategoryConfig,
		Message:    "Failed to read configuration file",
		Suggestion: "Check that the file exists and contains valid JSON.",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Invalid listen address",
		Suggestion: "Use host:port, for example 0.0.0.0:3000.",
	},
	"C003": {
		Category:   CategoryConfig,
		Message:    "Invalid environment configuration",
		Suggestion: "Check the SONG_DIRECTOR_* environment variables.",
	},
	"C004": {
		Category:   CategoryConfig,
		Message:    "Invalid log level",
		Suggestion: "Use one of debug, info, warn or error.",
	},
	"C005": {
		Category:   CategoryConfig,
		Message:    "Invalid timeout",
		Suggestion: "Timeouts must be positive durations such as 10s.",
	},
	"C006": {
		Category:   CategoryConfig,
		Message:    "Invalid log format",
		Suggestion: "Use text or json.",
	},
	"C007": {
		Category:   CategoryConfig,
		Message:    "Invalid metrics path",
		Suggestion: "Metrics paths must start with / and must not collide with application routes.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
