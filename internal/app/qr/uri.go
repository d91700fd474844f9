// Package qr arma el link upi://pay y lo renderiza como PNG.
package qr

import (
	"fmt"
	"image/color"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	Currency      = "INR"
	MaxNoteLength = 100
)

type Payment struct {
	UPIID  string
	Name   string
	Amount float64 // 0 => sin monto
	Note   string
}

// BuildPaymentURI: upi://pay?pa=..&pn=..&am=..&tn=..&cu=INR
// am sólo si > 0, tn sólo si hay nota (recortada a 100).
func BuildPaymentURI(p Payment) string {
	var b strings.Builder
	b.WriteString("upi://pay?")

	b.WriteString("pa=" + quote(p.UPIID))
	b.WriteString("&pn=" + quote(strings.TrimSpace(p.Name)))
	if p.Amount > 0 {
		b.WriteString("&am=" + quote(fmt.Sprintf("%.2f", p.Amount)))
	}
	if note := truncate(strings.TrimSpace(p.Note), MaxNoteLength); note != "" {
		b.WriteString("&tn=" + quote(note))
	}
	b.WriteString("&cu=" + Currency)
	return b.String()
}

// los lectores UPI esperan %20, no '+'
func quote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var reHexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ParseHexColor acepta sólo "#RRGGBB".
func ParseHexColor(s string) (color.NRGBA, error) {
	if !reHexColor.MatchString(s) {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: use hex format like #FF5733", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
