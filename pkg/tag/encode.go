package tag

import "strings"

const upperHex = "0123456789ABCDEF"

// Encode percent-encodes s as a single URI component. The unreserved set
// matches ECMAScript encodeURIComponent, which differs from url.PathEscape
// for ! ' ( ) * and for the sub-delimiters PathEscape leaves alone.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
