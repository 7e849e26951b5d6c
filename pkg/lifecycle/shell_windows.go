//go:build windows

package lifecycle

import "strings"

// shellWrap routes the command through cmd.exe on Windows, matching how
// the configured command string (which may contain shell built-ins or
// shims like npm.cmd) is expected to resolve.
func shellWrap(argv []string) []string {
	if len(argv) == 0 {
		return argv
	}
	return []string{"cmd", "/C", strings.Join(argv, " ")}
}
