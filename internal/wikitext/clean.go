// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wikitext reduces raw wiki markup to plain prose.
// Implements: prd002-cleanup (R1, R2);
//
//	docs/ARCHITECTURE § Cleanup.
//
// Cleaning is a fixed sequence of named transform stages. Each stage runs
// exactly once, in order, and the whole pipeline is total: any input string
// produces some output string, never an error.
package wikitext

import (
	"regexp"
	"strings"
)

// stage is one named transform in the cleaning pipeline.
type stage struct {
	name string
	fn   func(string) string
}

// stages lists the transforms in application order. Templates run first so
// later stages never see template bodies; entities run last so decoded
// characters cannot be re-interpreted as markup.
var stages = []stage{
	{"templates", stripTemplates},
	{"tags", reStage(`<[^>]+>`, "")},
	{"fileLinks", reStage(`\[\[(?:File|Image|Category):[^\]]*\]\]`, "")},
	{"pipedLinks", reStage(`\[\[[^|\]]*\|([^\]]*)\]\]`, "$1")},
	{"links", reStage(`\[\[([^\]]*)\]\]`, "$1")},
	{"externalLinks", reStage(`\[[^\]]*\]`, "")},
	{"bold", reStage(`'''`, "")},
	{"italic", reStage(`''`, "")},
	{"headers", reStage(`={2,}\s*([^=]*?)\s*={2,}`, "$1")},
	{"tableBlocks", reStage(`(?s)\{\|.*?\|\}`, "")},
	{"tableRows", reStage(`(?m)^[|!][^\n]*$`, "")},
	{"comments", reStage(`(?s)<!--.*?-->`, "")},
	{"entities", decodeEntities},
}

func reStage(pattern, repl string) func(string) string {
	re := regexp.MustCompile(pattern)
	return func(s string) string {
		return re.ReplaceAllString(s, repl)
	}
}

// Clean converts raw wikitext into plain prose suitable for segmentation.
// Markup that carries no prose (templates, tables, file links, comments) is
// removed; markup that wraps prose (links, emphasis, headers) is unwrapped.
func Clean(wikitext string) string {
	s := wikitext
	for _, st := range stages {
		s = st.fn(s)
	}
	return collapseWhitespace(s)
}

// cleanStage applies a single named stage. Used by tests to exercise
// stages in isolation.
func cleanStage(name, s string) string {
	for _, st := range stages {
		if st.name == name {
			return st.fn(s)
		}
	}
	return s
}

// stripTemplates removes {{...}} constructs, including nested ones, in a
// single left-to-right scan with a depth counter. An unclosed {{ drops the
// remainder of the input from that point; a stray }} at depth zero is kept
// as literal text. Braces are ASCII, so a byte scan is UTF-8 safe.
func stripTemplates(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for i := 0; i < len(s); i++ {
		if i+1 < len(s) {
			if s[i] == '{' && s[i+1] == '{' {
				depth++
				i++
				continue
			}
			if s[i] == '}' && s[i+1] == '}' && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

var entityRe = regexp.MustCompile(`&#?[0-9A-Za-z]+;`)

// entities maps the references that decode to displayable text. Everything
// else (&ndash;, &hellip;, numeric references) is dropped.
var entities = map[string]string{
	"&nbsp;": " ",
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
}

func decodeEntities(s string) string {
	return entityRe.ReplaceAllStringFunc(s, func(m string) string {
		return entities[m]
	})
}

// collapseWhitespace normalizes the cleaned text line by line: horizontal
// whitespace runs collapse to one space, lines of leftover markup
// punctuation are dropped, and blank-line runs collapse to a single
// paragraph break. The result has no leading or trailing whitespace.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || residueLine(line) {
			if !blank {
				out = append(out, "")
				blank = true
			}
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// residueLine reports whether a trimmed, non-empty line consists only of
// markup punctuation left behind by earlier stages.
func residueLine(line string) bool {
	for _, r := range line {
		switch r {
		case '{', '}', '|', '!', '=', '-', ' ':
		default:
			return false
		}
	}
	return true
}
