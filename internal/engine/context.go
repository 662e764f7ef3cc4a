package engine

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ayusman/mudra/internal/interpret"
)

// ellipsis marks context that was cut to its trailing words.
const ellipsis = "..."

// Context is the rolling text handed to the interpreter for continuity.
type Context struct {
	staleAfter time.Duration
	maxWords   int
	text       string
	updatedAt  time.Time
}

// NewContext creates an empty context.
func NewContext(staleAfter time.Duration, maxWords int) Context {
	return Context{staleAfter: staleAfter, maxWords: maxWords}
}

// Prepare returns the context to send with the next dispatch. Text older
// than the staleness window is discarded; long text is cut to the last
// maxWords words behind an ellipsis.
func (c *Context) Prepare(now time.Time) string {
	if c.text == "" {
		return ""
	}
	if now.Sub(c.updatedAt) > c.staleAfter {
		c.text = ""
		c.updatedAt = time.Time{}
		return ""
	}

	words := strings.Fields(c.text)
	if len(words) > c.maxWords {
		return ellipsis + strings.Join(words[len(words)-c.maxWords:], " ")
	}
	return c.text
}

// Merge stores result if it is real text, at least as long as what it was
// prepared against, and different from it. It reports whether it stored.
func (c *Context) Merge(result, prepared string, now time.Time) bool {
	cleanNew := strings.TrimSpace(result)
	if cleanNew == "" || cleanNew == interpret.Placeholder {
		return false
	}
	cleanOld := strings.TrimSpace(strings.Replace(prepared, ellipsis, "", 1))

	if utf8.RuneCountInString(cleanNew) < utf8.RuneCountInString(cleanOld) || cleanNew == cleanOld {
		return false
	}
	c.text = cleanNew
	c.updatedAt = now
	return true
}

// Text returns the stored context.
func (c *Context) Text() string { return c.text }

// Reset empties the context.
func (c *Context) Reset() {
	c.text = ""
	c.updatedAt = time.Time{}
}
