package render

import "strings"

func set(names string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, n := range strings.Fields(names) {
		m[n] = struct{}{}
	}
	return m
}

var (
	// Elements without a closing tag.
	voidElements = set(`area base br col embed hr img input link meta param
		source track wbr`)

	// Elements kept on their parent's line when pretty printing.
	inlineElements = set(`a abbr b bdi bdo br cite code data dfn em i kbd mark
		q rb rp rt rtc ruby s samp small span strong sub sup time u var wbr`)

	// Attributes rendered by presence alone.
	booleanAttrs = set(`allowfullscreen async autofocus autoplay checked
		controls default defer disabled formnovalidate hidden ismap itemscope
		loop multiple muted nomodule novalidate open playsinline readonly
		required reversed selected`)
)

// IsVoidElement reports whether tag has no closing tag.
func IsVoidElement(tag string) bool {
	_, ok := voidElements[tag]
	return ok
}

func isInlineElement(tag string) bool {
	_, ok := inlineElements[tag]
	return ok
}

// IsBooleanAttr reports whether the attribute is rendered by presence alone.
// The values "" and "true" render as the bare name; "false" omits it.
func IsBooleanAttr(name string) bool {
	_, ok := booleanAttrs[name]
	return ok
}
