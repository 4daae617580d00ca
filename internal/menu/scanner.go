// Package menu extracts the list of selectable boot entries from the
// generated bootloader config. The file is a nested, brace-delimited script;
// the scanner only understands the handful of directives needed to rebuild
// the menu structure, and never writes the file.
package menu

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Choice is one selectable boot entry.
type Choice struct {
	// ID is the positional identifier: zero-based sibling indices joined
	// with '>', e.g. "1>0" for the first child of the second top-level
	// entry. Unique and stable for a given config generation.
	ID string
	// Title is the display string; entries nested in submenus carry their
	// ancestor submenu titles joined with " > ".
	Title string
	// EntryID is the identifier declared in the source via --id or
	// $menuentry_id_option. May be empty.
	EntryID string
	// Source names the generating sub-script section, or "unknown" when no
	// section marker preceded the entry.
	Source string
}

var (
	reSectionBegin = regexp.MustCompile(`^### BEGIN (.+) ###`)
	reMenuEntry    = regexp.MustCompile(`^\s*menuentry\s+(?:'([^']*)'|"([^"]*)")`)
	reSubmenu      = regexp.MustCompile(`^\s*submenu\s+(?:'([^']*)'|"([^"]*)")`)
	reIDFlag       = regexp.MustCompile(`--id[= ]+(?:'([^']*)'|"([^"]*)"|([^\s{'"]+))`)
	reIDOption     = regexp.MustCompile(`\$menuentry_id_option\s+'([^']*)'`)
)

// scope is one nesting level opened by a submenu declaration. It closes
// implicitly once the running brace balance falls back to startDepth.
type scope struct {
	prefix     []int
	titles     []string
	next       int
	startDepth int
}

// Scan tries each candidate path in order and returns the entries of the
// first one that is readable and yields at least one entry, together with
// the path used. If every readable candidate is empty, it returns an empty
// list and the first readable path, so callers can tell "readable but empty"
// from "nothing readable", which returns no entries and an empty path.
// Duplicate candidates are tried once.
func Scan(candidates []string) ([]Choice, string) {
	seen := make(map[string]struct{}, len(candidates))
	firstReadable := ""
	for _, path := range candidates {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if firstReadable == "" {
			firstReadable = path
		}
		if choices := ScanText(string(data)); len(choices) > 0 {
			return choices, path
		}
	}
	return nil, firstReadable
}

// ScanText runs the line scan over generated config text. It never fails:
// unrecognized lines only contribute their brace characters.
func ScanText(text string) []Choice {
	var choices []Choice
	source := "unknown"
	depth := 0
	stack := []*scope{{}}

	for _, line := range strings.Split(text, "\n") {
		if m := reSectionBegin.FindStringSubmatch(line); m != nil {
			source = m[1]
			continue
		}

		opened := strings.Count(line, "{")
		closed := strings.Count(line, "}")
		top := stack[len(stack)-1]

		if title, _, ok := matchTitle(reSubmenu, line); ok {
			index := top.next
			top.next++
			startDepth := depth
			depth += opened - closed
			stack = append(stack, &scope{
				prefix:     append(append([]int{}, top.prefix...), index),
				titles:     append(append([]string{}, top.titles...), title),
				startDepth: startDepth,
			})
		} else if title, rest, ok := matchTitle(reMenuEntry, line); ok {
			index := top.next
			top.next++
			choices = append(choices, Choice{
				ID:      joinID(top.prefix, index),
				Title:   joinTitle(top.titles, title),
				EntryID: extractEntryID(rest),
				Source:  source,
			})
			depth += opened - closed
		} else {
			depth += opened - closed
		}

		// Close every submenu whose brace balance has returned to (or
		// fallen below) the depth recorded when it was opened.
		for len(stack) > 1 && depth <= stack[len(stack)-1].startDepth {
			stack = stack[:len(stack)-1]
		}
	}
	return choices
}

// matchTitle returns the quoted title if re matches the line, for either
// quote style, together with the remainder of the line after the match.
// Declared ids are extracted from that remainder only, so title text that
// happens to look like an --id flag is never mistaken for one.
func matchTitle(re *regexp.Regexp, line string) (title, rest string, ok bool) {
	m := re.FindStringSubmatchIndex(line)
	if m == nil {
		return "", "", false
	}
	rest = line[m[1]:]
	if m[2] >= 0 {
		return line[m[2]:m[3]], rest, true
	}
	return line[m[4]:m[5]], rest, true
}

// extractEntryID pulls the declared id off the part of an entry line that
// follows the title. An explicit --id flag wins over the $menuentry_id_option
// substitution pattern; both absent means no declared id.
func extractEntryID(line string) string {
	if m := reIDFlag.FindStringSubmatch(line); m != nil {
		for _, group := range m[1:] {
			if group != "" {
				return group
			}
		}
	}
	if m := reIDOption.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func joinID(prefix []int, index int) string {
	var b strings.Builder
	for _, p := range prefix {
		b.WriteString(strconv.Itoa(p))
		b.WriteByte('>')
	}
	b.WriteString(strconv.Itoa(index))
	return b.String()
}

func joinTitle(ancestors []string, title string) string {
	if len(ancestors) == 0 {
		return title
	}
	return strings.Join(ancestors, " > ") + " > " + title
}
