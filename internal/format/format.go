// Package format holds the display masks used by the storefront forms.
package format

import (
	"strings"

	"lavibaby-storefront/internal/domain"
)

// Digits strips every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Currency renders centavos as "R$ 1.234,56".
func Currency(m domain.Money) string {
	neg := m < 0
	if neg {
		m = -m
	}
	reais := int64(m) / 100
	cents := int64(m) % 100

	intPart := groupThousands(reais)
	out := "R$ " + intPart + "," + pad2(cents)
	if neg {
		out = "-" + out
	}
	return out
}

// Shipping renders a shipping cost, showing "Grátis" when it is zero.
func Shipping(m domain.Money) string {
	if m == 0 {
		return "Grátis"
	}
	return Currency(m)
}

// CPF masks up to 11 digits as 000.000.000-00, formatting partial input the
// way the registration form does while the user types.
func CPF(s string) string {
	d := Digits(s)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// CEP masks up to 8 digits as 00000-000.
func CEP(s string) string {
	d := Digits(s)
	if len(d) > 8 {
		d = d[:8]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// Phone masks a mobile number as (00) 00000-0000.
func Phone(s string) string {
	d := Digits(s)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// MaskCardNumber keeps the last four digits visible.
func MaskCardNumber(s string) string {
	d := Digits(s)
	if len(d) <= 4 {
		return d
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}

func groupThousands(n int64) string {
	s := itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
