package report

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxNoteLines     = 4
	MaxNoteLineChars = 40
)

// ValidateWeeklyNote enforces the size of the protected note region.
// Blank content is always accepted and clears the region on render.
func ValidateWeeklyNote(content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) > MaxNoteLines {
		return &ValidationError{
			Message: fmt.Sprintf("주간 정보 사항은 최대 %d줄까지만 입력 가능합니다.", MaxNoteLines),
		}
	}
	for i, line := range lines {
		if utf8.RuneCountInString(line) > MaxNoteLineChars {
			return &ValidationError{
				Message: fmt.Sprintf("주간 정보 사항의 각 줄은 최대 %d자까지 입력 가능합니다. (%d번째 줄 초과)", MaxNoteLineChars, i+1),
				Line:    i + 1,
			}
		}
	}
	return nil
}

// noteLines returns the trimmed, non-empty lines to print.
func noteLines(content string) []string {
	return splitLines(content)
}
