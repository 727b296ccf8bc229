package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Contract violations (E100-E119)
	// ============================================

	"E100": {
		Category:   CategoryContract,
		Message:    "Node kind mismatch",
		Suggestion: "Keep the sequence of Element/Text/ForEach/RenderIf calls identical on every pass; use RenderIf for optional content.",
	},
	"E101": {
		Category:   CategoryContract,
		Message:    "Attribute name mismatch",
		Suggestion: "Set the same attributes in the same order on every pass; pass an empty value instead of skipping an attribute.",
	},
	"E102": {
		Category:   CategoryContract,
		Message:    "Duplicate list key",
		Suggestion: "Return a key that is unique within one ForEach call.",
	},
	"E103": {
		Category: CategoryContract,
		Message:  "Host handle cannot be resolved",
	},
	"E104": {
		Category: CategoryContract,
		Message:  "Conditional state set on a non-conditional node",
	},
	"E105": {
		Category:   CategoryContract,
		Message:    "Element name mismatch",
		Suggestion: "Use RenderIf to switch between different elements.",
	},
	"E106": {
		Category:   CategoryContract,
		Message:    "Event name mismatch",
		Suggestion: "Register the same events in the same order on every pass.",
	},
	"E107": {
		Category:   CategoryContract,
		Message:    "Cursor used outside its render pass",
		Suggestion: "Do not keep cursors after the render function returns.",
	},
	"E108": {
		Category: CategoryContract,
		Message:  "Re-entrant render",
	},

	// ============================================
	// Runtime Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryRuntime,
		Message:  "Engine aborted",
	},
	"E121": {
		Category: CategoryRuntime,
		Message:  "Re-entrant dispatch",
	},
	"E122": {
		Category: CategoryRuntime,
		Message:  "Dispatch before first render",
	},

	// ============================================
	// Protocol Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
	},
	"E141": {
		Category: CategoryProtocol,
		Message:  "Unknown host operation",
	},
	"E142": {
		Category: CategoryProtocol,
		Message:  "Unknown node id",
	},
	"E143": {
		Category: CategoryProtocol,
		Message:  "Invalid event payload",
	},

	// ============================================
	// Config Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryConfig,
		Message:  "Config file not readable",
	},
	"E161": {
		Category: CategoryConfig,
		Message:  "Config file is not valid YAML",
	},
	"E162": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},

	// ============================================
	// Storage Errors (E180-E199)
	// ============================================

	"E180": {
		Category: CategoryStorage,
		Message:  "Snapshot not found",
	},
	"E181": {
		Category: CategoryStorage,
		Message:  "Snapshot write failed",
	},
}

// Codes returns all registered error codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
