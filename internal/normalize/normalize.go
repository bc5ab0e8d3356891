// Package normalize maps loosely-structured natural language onto the fixed
// canonical command grammar (verb followed by whitespace-separated arguments).
//
// Normalization is pure and total. Input that matches no rule comes back
// unchanged, which callers read as "not normalized".
//
// Phrases match on a word boundary rather than as a raw string prefix, so
// "ending" stays "ending" instead of becoming "exit ing", and "entertain"
// is not read as "enter tain".
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize rewrites input into a canonical command. Matching ignores case;
// extracted arguments keep the casing of the original input.
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return input
	}
	if canonical, ok := matchPhrase(trimmed); ok {
		return canonical
	}
	if canonical, ok := matchWords(trimmed); ok {
		return canonical
	}
	return input
}

func matchPhrase(trimmed string) (string, bool) {
	for _, rule := range rules {
		tail, ok := cutPhrase(trimmed, rule.Phrase)
		if !ok {
			continue
		}
		return rule.Render(tail), true
	}
	return "", false
}

// cutPhrase reports whether text starts with phrase on a word boundary and
// returns the trimmed remainder in its original casing.
func cutPhrase(text, phrase string) (string, bool) {
	if len(text) < len(phrase) || !strings.EqualFold(text[:len(phrase)], phrase) {
		return "", false
	}
	rest := text[len(phrase):]
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsSpace(r) {
			return "", false
		}
	}
	return strings.TrimSpace(rest), true
}

var (
	folderWords = []string{"folder", "directory", "dir"}
	deleteWords = []string{"delete", "remove", "erase"}
	listWords   = []string{"list", "show", "display"}
	goWords     = []string{"go", "navigate", "change"}
)

// matchWords is the positional fallback used when no phrase matched. Tokens are
// compared lower-cased; arguments are rebuilt from the original tokens joined
// by single spaces.
func matchWords(trimmed string) (string, bool) {
	original := strings.Fields(trimmed)
	words := make([]string, len(original))
	for i, token := range original {
		words[i] = strings.ToLower(token)
	}

	if len(words) >= 2 && words[0] == "create" {
		switch {
		case oneOf(words[1], folderWords):
			return join("mkdir", original[2:]), true
		case words[1] == "file":
			return join("touch", original[2:]), true
		}
	}

	if len(words) >= 2 && oneOf(words[0], deleteWords) {
		switch {
		case oneOf(words[1], folderWords):
			return joinRecursive(original[2:]), true
		case words[1] == "file":
			return join("rm", original[2:]), true
		default:
			// No type word: the dispatcher decides file vs directory at run time.
			return join("rm", original[1:]), true
		}
	}

	if len(words) >= 1 && oneOf(words[0], listWords) {
		return join("ls", original[1:]), true
	}

	if len(words) >= 2 && oneOf(words[0], goWords) {
		if words[1] == "to" && len(words) > 2 {
			return join("cd", original[2:]), true
		}
		return join("cd", original[1:]), true
	}
	return "", false
}

func join(verb string, args []string) string {
	if len(args) == 0 {
		return verb
	}
	return verb + " " + strings.Join(args, " ")
}

func joinRecursive(args []string) string {
	if len(args) == 0 {
		return "rm"
	}
	return recursiveRemove + " " + strings.Join(args, " ")
}

func oneOf(word string, set []string) bool {
	for _, candidate := range set {
		if word == candidate {
			return true
		}
	}
	return false
}
