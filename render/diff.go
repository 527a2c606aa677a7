package render

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/signadot/sharedoc/ir"
)

// Diff returns a line diff from one rendering to the next. Inserted lines
// are prefixed with "+ ", deleted ones with "- " and unchanged ones with
// two spaces. Diff returns "" when from and to are equal.
func Diff(from, to string, c *Colors) string {
	if from == to {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	var out strings.Builder
	for _, d := range diffs {
		prefix, attr := "  ", ValueColor
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, attr = "+ ", InsertColor
		case diffmatchpatch.DiffDelete:
			prefix, attr = "- ", DeleteColor
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			if attr == ValueColor {
				out.WriteString(prefix + line + "\n")
				continue
			}
			out.WriteString(c.Color(ir.NullType, attr, prefix+line) + "\n")
		}
	}
	return out.String()
}
