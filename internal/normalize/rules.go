package normalize

import (
	"fmt"
	"strings"
)

const recursiveRemove = "rm -rf"

// ArgPolicy controls how the text after a matched phrase becomes arguments.
type ArgPolicy int

const (
	// ArgTail appends the remainder unchanged.
	ArgTail ArgPolicy = iota
	// ArgRecursiveTail appends the remainder behind a recursive-remove flag.
	ArgRecursiveTail
)

// Rule is one phrase-prefix entry of the normalization table.
type Rule struct {
	Phrase string
	Verb   string
	Args   ArgPolicy
}

// Render builds the canonical command for a matched phrase and its tail.
func (r Rule) Render(tail string) string {
	if tail == "" {
		return r.Verb
	}
	if r.Args == ArgRecursiveTail {
		return recursiveRemove + " " + tail
	}
	return r.Verb + " " + tail
}

// rules is scanned in order and the first match wins. A phrase must never
// follow a shorter phrase that is a word-prefix of it; init enforces this.
var rules = []Rule{
	{Phrase: "create folder", Verb: "mkdir"},
	{Phrase: "make folder", Verb: "mkdir"},
	{Phrase: "new folder", Verb: "mkdir"},
	{Phrase: "delete folder", Verb: "rm", Args: ArgRecursiveTail},
	{Phrase: "remove folder", Verb: "rm", Args: ArgRecursiveTail},
	{Phrase: "list folders", Verb: "ls"},
	{Phrase: "list files", Verb: "ls"},
	{Phrase: "show files", Verb: "ls"},
	{Phrase: "show folders", Verb: "ls"},
	{Phrase: "list directory", Verb: "ls"},
	{Phrase: "show directory", Verb: "ls"},

	{Phrase: "delete file", Verb: "rm"},
	{Phrase: "remove file", Verb: "rm"},
	{Phrase: "erase file", Verb: "rm"},

	{Phrase: "go to", Verb: "cd"},
	{Phrase: "change to", Verb: "cd"},
	{Phrase: "navigate to", Verb: "cd"},
	{Phrase: "enter", Verb: "cd"},
	{Phrase: "show current directory", Verb: "pwd"},
	{Phrase: "where am i", Verb: "pwd"},
	{Phrase: "current location", Verb: "pwd"},

	{Phrase: "system info", Verb: "sysinfo"},
	{Phrase: "show system", Verb: "sysinfo"},
	{Phrase: "computer info", Verb: "sysinfo"},
	{Phrase: "system status", Verb: "sysinfo"},

	{Phrase: "close", Verb: "exit"},
	{Phrase: "end", Verb: "exit"},
	{Phrase: "stop", Verb: "exit"},
	{Phrase: "finish", Verb: "exit"},
}

func init() {
	if err := validateRules(rules); err != nil {
		panic(fmt.Sprintf("normalize: %v", err))
	}
}

func validateRules(table []Rule) error {
	for i, earlier := range table {
		if earlier.Phrase == "" || earlier.Phrase != strings.ToLower(strings.TrimSpace(earlier.Phrase)) {
			return fmt.Errorf("rule %d: phrase %q must be trimmed lower-case text", i, earlier.Phrase)
		}
		if strings.TrimSpace(earlier.Verb) == "" {
			return fmt.Errorf("rule %d: phrase %q has no verb", i, earlier.Phrase)
		}
		for _, later := range table[i+1:] {
			if later.Phrase == earlier.Phrase {
				return fmt.Errorf("duplicate phrase %q", later.Phrase)
			}
			if strings.HasPrefix(later.Phrase, earlier.Phrase+" ") {
				return fmt.Errorf("phrase %q shadows later phrase %q", earlier.Phrase, later.Phrase)
			}
		}
	}
	return nil
}

// Rules returns a copy of the phrase table in match order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Phrases lists every natural-language trigger phrase in match order.
func Phrases() []string {
	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule.Phrase)
	}
	return out
}
