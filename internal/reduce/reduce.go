// Package reduce shrinks raw log text into a bounded excerpt that keeps
// diagnostic signal: priority lines survive, head/tail context fills the
// remaining budget, and hard caps on line and character counts always hold.
package reduce

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultPriorityKeywords are matched case-insensitively as substrings.
var DefaultPriorityKeywords = []string{"exception", "error", "panic", "fatal", "nullpointer", "npe"}

const (
	// DefaultMaxLines caps the number of retained lines.
	DefaultMaxLines = 2000
	// DefaultMaxChars caps the joined output length.
	DefaultMaxChars = 120000
)

// Config controls a reduction pass.
type Config struct {
	IncludePatterns  []string `yaml:"include_patterns"`
	ExcludePatterns  []string `yaml:"exclude_patterns"`
	PriorityKeywords []string `yaml:"priority_keywords"`
	MaxLines         int      `yaml:"max_lines"`
	MaxChars         int      `yaml:"max_chars"`
}

// DefaultConfig returns a Config with the standard keywords and caps.
func DefaultConfig() Config {
	return Config{
		PriorityKeywords: DefaultPriorityKeywords,
		MaxLines:         DefaultMaxLines,
		MaxChars:         DefaultMaxChars,
	}
}

// Log is the bounded output of a reduction pass.
type Log struct {
	Text         string
	TotalLines   int
	KeptLines    int
	DroppedLines int
	Truncated    bool // character cap forced a final truncation
}

// Reduce filters, prioritizes, and caps raw log text. It is deterministic
// and performs no I/O. An empty input yields a zero-value Log, not an
// error; non-positive caps are a configuration error.
func Reduce(raw string, cfg Config) (Log, error) {
	if cfg.MaxLines <= 0 {
		return Log{}, fmt.Errorf("reduce: max_lines must be positive, got %d", cfg.MaxLines)
	}
	if cfg.MaxChars <= 0 {
		return Log{}, fmt.Errorf("reduce: max_chars must be positive, got %d", cfg.MaxChars)
	}
	if strings.TrimSpace(raw) == "" {
		return Log{}, nil
	}

	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")
	total := len(lines)

	include := compilePatterns(cfg.IncludePatterns)
	exclude := compilePatterns(cfg.ExcludePatterns)
	if len(include) > 0 || len(exclude) > 0 {
		lines = filterLines(lines, include, exclude)
	}

	kept := selectLines(lines, cfg)

	text := strings.Join(kept, "\n")
	truncated := false
	if len(text) > cfg.MaxChars {
		// Back the cut off to a rune boundary so the tail stays valid
		// UTF-8.
		cut := cfg.MaxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
		truncated = true
	}

	return Log{
		Text:         text,
		TotalLines:   total,
		KeptLines:    len(kept),
		DroppedLines: total - len(kept),
		Truncated:    truncated,
	}, nil
}

// compilePatterns compiles each pattern case-insensitively. Patterns that
// fail to compile as regexes are matched as literal substrings instead,
// so a user typo never aborts a reduction.
func compilePatterns(patterns []string) []*regexp.Regexp {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(p))
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// filterLines drops excluded lines, then keeps only included lines when an
// include set is configured.
func filterLines(lines []string, include, exclude []*regexp.Regexp) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if matchesAny(line, exclude) {
			continue
		}
		if len(include) > 0 && !matchesAny(line, include) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func matchesAny(line string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// selectLines applies the retention policy: priority lines first, then the
// remaining budget split between the head and tail of the ordinary lines
// (odd remainder to the head). Kept lines come back in original order.
func selectLines(lines []string, cfg Config) []string {
	if len(lines) <= cfg.MaxLines {
		return lines
	}

	keywords := make([]string, len(cfg.PriorityKeywords))
	for i, k := range cfg.PriorityKeywords {
		keywords[i] = strings.ToLower(k)
	}

	priority := make([]bool, len(lines))
	priorityCount := 0
	ordinaryCount := 0
	for i, line := range lines {
		if isPriority(line, keywords) {
			priority[i] = true
			priorityCount++
		} else {
			ordinaryCount++
		}
	}

	keep := make([]bool, len(lines))

	if priorityCount >= cfg.MaxLines {
		// Earliest priority lines win; nothing ordinary fits.
		remaining := cfg.MaxLines
		for i := range lines {
			if priority[i] && remaining > 0 {
				keep[i] = true
				remaining--
			}
		}
		return collect(lines, keep)
	}

	for i := range lines {
		if priority[i] {
			keep[i] = true
		}
	}

	budget := cfg.MaxLines - priorityCount
	headN := budget - budget/2 // odd remainder goes to the head
	tailN := budget / 2
	if headN+tailN > ordinaryCount {
		headN = ordinaryCount
		tailN = 0
	}

	seen := 0
	for i := range lines {
		if priority[i] {
			continue
		}
		if seen < headN || seen >= ordinaryCount-tailN {
			keep[i] = true
		}
		seen++
	}
	return collect(lines, keep)
}

func isPriority(line string, lowerKeywords []string) bool {
	lower := strings.ToLower(line)
	for _, k := range lowerKeywords {
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func collect(lines []string, keep []bool) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if keep[i] {
			out = append(out, line)
		}
	}
	return out
}
