package local

import (
	"strings"

	"github.com/gobwas/glob"
)

// compilePattern compiles a Redis-style glob. Redis negates classes with "[^";
// gobwas/glob uses "[!".
func compilePattern(pattern string) (glob.Glob, error) {
	return glob.Compile(strings.ReplaceAll(pattern, "[^", "[!"))
}
