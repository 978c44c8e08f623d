package services

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const maxReferencePrefix = 10

// GenerateReference builds PRODUCTID-<unix ms>-<8 hex>, uppercased. The
// product id keeps only ASCII letters and digits, at most ten of them.
func GenerateReference(productID string, now time.Time) string {
	var b strings.Builder
	for _, r := range productID {
		if b.Len() == maxReferencePrefix {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	ref := b.String() + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomHex(4)
	return strings.ToUpper(ref)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// GenerateDescription renders the default purchase line, e.g.
// `Compra de vinilo "Kind of Blue" por Miles Davis (LP)`.
func GenerateDescription(category, productName, artist, format string) string {
	var b strings.Builder
	b.WriteString("Compra de ")
	b.WriteString(strings.ToLower(category))
	b.WriteString(` "`)
	b.WriteString(productName)
	b.WriteString(`"`)
	if artist != "" {
		b.WriteString(" por ")
		b.WriteString(artist)
	}
	if format != "" {
		b.WriteString(" (")
		b.WriteString(format)
		b.WriteString(")")
	}
	return b.String()
}
