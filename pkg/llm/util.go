package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// WordWrap wraps text at the specified width, counted in characters.
func WordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLineLength := 0
		for j, word := range words {
			n := utf8.RuneCountInString(word)
			if j > 0 {
				if currentLineLength+n+1 > width {
					result.WriteString("\n")
					currentLineLength = 0
				} else {
					result.WriteString(" ")
					currentLineLength++
				}
			}
			result.WriteString(word)
			currentLineLength += n
		}
	}

	return result.String()
}

// HistoryLog appends prompt/response pairs to a file. A nil or path-less log is a no-op.
type HistoryLog struct {
	path string
	mu   sync.Mutex
}

// NewHistoryLog creates a history log writing to path.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path}
}

// Record appends one exchange. Failures to write are ignored.
func (h *HistoryLog) Record(name, prompt, response string) {
	if h == nil || h.path == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	entry := fmt.Sprintf("[%s] PROMPT: %s\nPROMPT_TEXT:\n%s\n\nRESPONSE:\n%s\n%s\n",
		timestamp, name, prompt, WordWrap(response, 80), strings.Repeat("-", 80))
	_, _ = f.WriteString(entry)
}
