package portal

import "strings"

// formField returns the raw value for name in an
// application/x-www-form-urlencoded body: from the first occurrence of
// "name=" up to the next '&' or end of body. Absent fields are "".
func formField(body, name string) string {
	key := name + "="
	start := strings.Index(body, key)
	if start < 0 {
		return ""
	}
	rest := body[start+len(key):]
	if end := strings.IndexByte(rest, '&'); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// urlDecode translates '+' to space and %HH (case-insensitive hex) to
// the corresponding byte. A malformed escape, including one truncated
// at the tail, passes through literally.
func urlDecode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s):
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 2
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
