package goldmark

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	passthroughTag = "center"
	closeTag       = "</" + passthroughTag + ">"
)

// segment is a contiguous range of the source. Passthrough segments carry
// the bounds of the content between the tags.
type segment struct {
	start, end           int
	passthrough          bool
	innerStart, innerEnd int
}

// splitPassthrough partitions src into markdown and passthrough segments.
// A passthrough segment starts with a well-formed <center> tag at the
// beginning of a line outside any fenced block and ends after the matching
// </center>. A tag still waiting for its </center> runs to the end of src,
// so content streamed inside it keeps its structure once the tag closes.
// Anything malformed is left in the markdown segments, where it is later
// stripped to plain text.
func splitPassthrough(src string) []segment {
	var segs []segment
	var fences fenceScanner
	last := 0
	pos := 0
	for pos < len(src) {
		lineEnd := strings.IndexByte(src[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(src)
		} else {
			lineEnd += pos + 1
		}
		line := src[pos:lineEnd]
		if fences.feed(line) {
			pos = lineEnd
			continue
		}
		tagStart := pos + len(line) - len(strings.TrimLeft(line, " "))
		if tagStart-pos > 3 {
			pos = lineEnd
			continue
		}
		p, ok := matchPassthrough(src, tagStart)
		if !ok {
			pos = lineEnd
			continue
		}
		if pos > last {
			segs = append(segs, segment{start: last, end: pos})
		}
		p.start = pos
		segs = append(segs, p)
		last = p.end
		pos = p.end
		fences = fenceScanner{}
	}
	if last < len(src) || len(segs) == 0 {
		segs = append(segs, segment{start: last, end: len(src)})
	}
	return segs
}

// matchPassthrough tries to read a <center>...</center> span at i. Without a
// closing tag the span is provisional and ends at len(src).
func matchPassthrough(src string, i int) (segment, bool) {
	if !hasPrefixFold(src[i:], "<"+passthroughTag) {
		return segment{}, false
	}
	gt := strings.IndexByte(src[i:], '>')
	if gt < 0 {
		return segment{}, false
	}
	openEnd := i + gt + 1
	if !isBareOpenTag(src[i:openEnd]) {
		return segment{}, false
	}
	rel := indexFold(src[openEnd:], closeTag)
	if rel < 0 {
		return segment{
			end:         len(src),
			passthrough: true,
			innerStart:  openEnd,
			innerEnd:    len(src),
		}, true
	}
	innerEnd := openEnd + rel
	return segment{
		end:         innerEnd + len(closeTag),
		passthrough: true,
		innerStart:  openEnd,
		innerEnd:    innerEnd,
	}, true
}

// isBareOpenTag reports whether tag is exactly an opening passthrough tag
// with no attributes.
func isBareOpenTag(tag string) bool {
	z := html.NewTokenizer(strings.NewReader(tag))
	if z.Next() != html.StartTagToken {
		return false
	}
	name, hasAttr := z.TagName()
	return string(name) == passthroughTag && !hasAttr
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i] == sub[0] && strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

// stripMarkup removes all markup from s and decodes entities, leaving the
// visible text.
func (t *Tokenizer) stripMarkup(s string) string {
	return html.UnescapeString(t.policy.Sanitize(s))
}
