package svg

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// MinimalSVG is the recovery output for input that cannot be made safe: valid,
// empty, renderable.
const MinimalSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"></svg>`

// Element vocabulary for vector-graphics primitives. SVG names are
// case-sensitive; a tag that does not match exactly is stripped.
var allowedElements = map[string]bool{
	"svg": true, "g": true, "defs": true, "use": true,
	"path": true, "rect": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true,
	"text": true, "tspan": true,
	"linearGradient": true, "radialGradient": true, "stop": true,
	"pattern": true, "clipPath": true, "mask": true,
	"filter": true, "feDropShadow": true, "feGaussianBlur": true,
	"feOffset": true, "feMerge": true, "feMergeNode": true, "feBlend": true,
	"title": true, "desc": true,
}

var allowedAttrs = map[string]bool{
	"id": true, "class": true, "xmlns": true, "xmlns:xlink": true,
	"width": true, "height": true, "viewBox": true, "preserveAspectRatio": true, "version": true,
	"x": true, "y": true, "x1": true, "y1": true, "x2": true, "y2": true,
	"cx": true, "cy": true, "r": true, "rx": true, "ry": true,
	"d": true, "points": true, "offset": true, "transform": true,
	"fill": true, "fill-opacity": true, "fill-rule": true,
	"stroke": true, "stroke-width": true, "stroke-linecap": true, "stroke-linejoin": true,
	"stroke-dasharray": true, "stroke-dashoffset": true, "stroke-opacity": true, "stroke-miterlimit": true,
	"opacity": true, "style": true,
	"font-family": true, "font-size": true, "font-weight": true, "font-style": true,
	"text-anchor": true, "dominant-baseline": true, "letter-spacing": true,
	"gradientUnits": true, "gradientTransform": true, "spreadMethod": true,
	"patternUnits": true, "patternTransform": true, "patternContentUnits": true,
	"stop-color": true, "stop-opacity": true,
	"filter": true, "clip-path": true, "mask": true, "clip-rule": true,
	"dx": true, "dy": true, "stdDeviation": true, "flood-opacity": true, "flood-color": true,
	"in": true, "in2": true, "result": true, "mode": true,
	"href": true, "xlink:href": true,
}

var (
	reDoctype = regexp.MustCompile(`(?is)<!DOCTYPE[^>]*>`)
	reProcIns = regexp.MustCompile(`(?s)<\?.*?\?>`)
	reScript  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>|<script\b[^>]*/\s*>|</?script\b[^>]*>`)
	reForeign = regexp.MustCompile(`(?is)<foreignObject\b[^>]*>.*?</foreignObject\s*>|<foreignObject\b[^>]*/\s*>|</?foreignObject\b[^>]*>`)
	reImage   = regexp.MustCompile(`(?is)<image\b[^>]*>.*?</image\s*>|<image\b[^>]*/?>|</image\s*>`)

	reTagName = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)`)
	reTag     = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)((?:[^>"']|"[^"]*"|'[^']*')*?)(/?)>`)
	reAttr    = regexp.MustCompile(`([A-Za-z_:][A-Za-z0-9:._-]*)\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)

	reWidth  = regexp.MustCompile(`(?i)\bwidth\s*=\s*["']?(\d+)`)
	reHeight = regexp.MustCompile(`(?i)\bheight\s*=\s*["']?(\d+)`)
)

// Sanitize strips dangerous constructs from untrusted SVG markup. It is pure
// and idempotent, and never fails: input that cannot be brought to a
// well-formed allow-listed document collapses to MinimalSVG. The filtering is
// pattern-based (no DOM round trip) so camelCase SVG names survive byte-exact;
// when in doubt it removes rather than keeps.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return MinimalSVG
	}

	s = reDoctype.ReplaceAllString(s, "")
	s = reProcIns.ReplaceAllString(s, "")
	s = reScript.ReplaceAllString(s, "")
	s = reForeign.ReplaceAllString(s, "")
	s = reImage.ReplaceAllString(s, "")

	s = removeDisallowedElements(s)
	s = rewriteTags(s)
	s = strings.TrimSpace(s)

	if !wellFormed(s) {
		return MinimalSVG
	}
	return s
}

// removeDisallowedElements drops every element whose name is outside the
// allow-list, content included for paired tags.
func removeDisallowedElements(s string) string {
	seen := map[string]bool{}
	for _, m := range reTagName.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if !allowedElements[name] && !seen[name] {
			seen[name] = true
		}
	}
	for name := range seen {
		q := regexp.QuoteMeta(name)
		paired := regexp.MustCompile(`(?s)<` + q + `\b[^>]*>.*?</` + q + `\s*>`)
		s = paired.ReplaceAllString(s, "")
		single := regexp.MustCompile(`<` + q + `\b[^>]*/?>`)
		s = single.ReplaceAllString(s, "")
		closer := regexp.MustCompile(`</` + q + `\s*>`)
		s = closer.ReplaceAllString(s, "")
	}
	return s
}

// rewriteTags rebuilds every start tag keeping only allow-listed attributes
// with safe values. Output spacing is normalized so a second pass is a no-op.
func rewriteTags(s string) string {
	return reTag.ReplaceAllStringFunc(s, func(tag string) string {
		m := reTag.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		name, rawAttrs, selfClose := m[1], m[2], m[3]

		var kept []string
		for _, am := range reAttr.FindAllStringSubmatch(rawAttrs, -1) {
			attrName, attrVal := am[1], am[2]
			if !safeAttr(attrName, attrVal) {
				continue
			}
			kept = append(kept, attrName+"="+normalizeQuotes(attrVal))
		}

		var b strings.Builder
		b.WriteString("<")
		b.WriteString(name)
		for _, a := range kept {
			b.WriteString(" ")
			b.WriteString(a)
		}
		if selfClose == "/" {
			b.WriteString("/")
		}
		b.WriteString(">")
		return b.String()
	})
}

func safeAttr(name, rawVal string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "on") {
		return false
	}
	if !allowedAttrs[name] {
		return false
	}
	val := strings.TrimSpace(unquote(rawVal))
	lowVal := strings.ToLower(val)
	if strings.Contains(lowVal, "javascript:") || strings.Contains(lowVal, "expression(") {
		return false
	}
	// References must stay inside the document.
	if name == "href" || name == "xlink:href" {
		return strings.HasPrefix(val, "#")
	}
	if strings.Contains(lowVal, "url(") && !strings.Contains(lowVal, "url(#") {
		return false
	}
	return true
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func normalizeQuotes(v string) string {
	return `"` + strings.ReplaceAll(unquote(v), `"`, "") + `"`
}

// wellFormed walks the XML token stream and requires a root svg element.
func wellFormed(s string) bool {
	dec := xml.NewDecoder(strings.NewReader(s))
	dec.Entity = xml.HTMLEntity
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false
		}
		if start, ok := tok.(xml.StartElement); ok && !sawRoot {
			if start.Name.Local != "svg" {
				return false
			}
			sawRoot = true
		}
	}
	return sawRoot
}

// Dimensions extracts the declared width/height of an SVG body, defaulting to
// 400x300 when absent.
func Dimensions(body string) (int, int) {
	width, height := 400, 300
	if m := reWidth.FindStringSubmatch(body); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			width = v
		}
	}
	if m := reHeight.FindStringSubmatch(body); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			height = v
		}
	}
	return width, height
}
