package vanilla

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

func labelID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return trimmed + "-label"
}

// flashPolicy allows light inline emphasis in flash messages and strips
// everything else.
func flashPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("strong", "em", "code", "br")
	return policy
}

func flashClass(level string) string {
	switch strings.TrimSpace(level) {
	case "error":
		return "fd-flash fd-flash-error"
	case "info":
		return "fd-flash fd-flash-info"
	default:
		return "fd-flash fd-flash-success"
	}
}
