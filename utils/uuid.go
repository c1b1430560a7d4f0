package utils

import (
	"strings"

	uuid "github.com/satori/go.uuid"
)

func UUID() string {
	return uuid.NewV4().String()
}

// TraceID returns a short id used to correlate one invocation across hops
func TraceID() string {
	return strings.ReplaceAll(UUID(), "-", "")
}
