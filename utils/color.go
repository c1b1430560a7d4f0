package utils

import (
	"os"
	"strconv"
)

// Color is an ANSI SGR foreground code
type Color int

const (
	ColorDarkGray Color = 90
)

// Colorize wraps s in the escape sequence of c. NO_COLOR in the environment
// disables it.
func Colorize(s string, c Color, enabled bool) string {
	if !enabled || c == 0 || os.Getenv("NO_COLOR") != "" {
		return s
	}
	return "\x1b[" + strconv.Itoa(int(c)) + "m" + s + "\x1b[0m"
}
