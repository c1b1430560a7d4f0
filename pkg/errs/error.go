package errs

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateError describes the fields that failed structural validation
type ValidateError struct {
	err     error
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
}

func NewValidateError(err error) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  make(map[string]interface{}),
	}
}

func (e *ValidateError) Unwrap() error {
	return e.err
}

func (e *ValidateError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	flatten("", e.Fields, &parts)
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, ", "))
}

func flatten(prefix string, fields map[string]interface{}, parts *[]string) {
	for name, v := range fields {
		if prefix != "" {
			name = prefix + "." + name
		}
		switch v := v.(type) {
		case map[string]interface{}:
			flatten(name, v, parts)
		default:
			*parts = append(*parts, fmt.Sprintf("%s: %v", name, v))
		}
	}
}
