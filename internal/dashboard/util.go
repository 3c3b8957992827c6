package dashboard

import (
	"os/exec"
	"runtime"
	"strings"
)

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// wrapParagraphs wraps each line of text separately so list items and
// blank-line breaks survive.
func wrapParagraphs(text string, width int) string {
	src := strings.Split(text, "\n")
	out := make([]string, 0, len(src))
	for _, l := range src {
		indent := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if strings.TrimSpace(l) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, indent+wordWrap(l, max(width-len(indent), 10)))
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}
