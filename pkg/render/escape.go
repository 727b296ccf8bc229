package render

import "strings"

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// EscapeText escapes s for use as HTML character data.
func EscapeText(s string) string {
	if !strings.ContainsAny(s, "&<>\"'") {
		return s
	}
	return textEscaper.Replace(s)
}

// EscapeAttr escapes s for use inside a double-quoted attribute value.
// Whitespace control characters are encoded so values survive a round trip
// through the remote mirror unchanged.
func EscapeAttr(s string) string {
	if !strings.ContainsAny(s, "&<>\"'\n\r\t") {
		return s
	}
	return attrEscaper.Replace(s)
}
