package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names for a prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over the given names.
func NewCompleter(names ...string) *Completer {
	cmds := append([]string(nil), names...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the sorted names starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Suggest returns names close to a mistyped word: prefix matches first,
// then names sharing the word's first letter when nothing else matches.
func (c *Completer) Suggest(word string) []string {
	if word == "" {
		return nil
	}
	if s := c.Complete(word); len(s) > 0 {
		return s
	}
	for n := len(word) - 1; n > 0; n-- {
		if s := c.Complete(word[:n]); len(s) > 0 {
			return s
		}
	}
	return nil
}
