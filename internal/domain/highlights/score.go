package highlights

import (
	"regexp"
	"strings"
)

var (
	reNum     = regexp.MustCompile(`\b\d+(?:[\.,]\d+)?%?`)
	reHook    = regexp.MustCompile(`(?i)\b(important|key|secret|mistake|never|always|here\s+is\s+why|remember|nobody|truth)\b`)
	reHow     = regexp.MustCompile(`(?i)\b(how\s+to|step\s+\d+|first|second|third|do\s+this|the\s+trick)\b`)
	reStepNum = regexp.MustCompile(`(?i)\bstep\s+\d+\b`)
	reFiller  = regexp.MustCompile(`(?i)\b(um+|uh+|erm|hmm+)\b`)
)

// Score returns (info, hook), each in [0, 10]. Filler-heavy text loses
// hook points since it makes for a weak opening.
func Score(text string) (info, hook float64) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, 0
	}
	lower := strings.ToLower(t)

	info = float64(len(reNum.FindAllStringIndex(t, -1))) * 0.4
	if reHow.MatchString(lower) {
		info += 1.2
	}
	info -= 0.0006 * float64(len([]rune(t)))

	hook = float64(len(reHook.FindAllStringIndex(lower, -1))) * 0.9
	hook += float64(len(reStepNum.FindAllStringIndex(lower, -1))) * 0.4
	hook += float64(strings.Count(t, "?")) * 0.7
	hook += float64(strings.Count(t, "!")) * 0.3
	hook -= float64(len(reFiller.FindAllStringIndex(lower, -1))) * 0.3

	return min(max(info, 0), 10), min(max(hook, 0), 10)
}
