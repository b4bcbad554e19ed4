package payment

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"lavibaby-storefront/internal/domain"
)

// PixPayee identifies the receiving account embedded in every PIX code.
type PixPayee struct {
	Key          string
	MerchantName string
	MerchantCity string
}

// BuildPixCode returns a static EMV "copia e cola" payload for amount, with
// txid as the reference label and a trailing CRC16 checksum.
func BuildPixCode(p PixPayee, amount domain.Money, txid string) string {
	account := emv("00", "br.gov.bcb.pix") + emv("01", p.Key)

	var b strings.Builder
	b.WriteString(emv("00", "01"))
	b.WriteString(emv("26", account))
	b.WriteString(emv("52", "0000"))
	b.WriteString(emv("53", "986"))
	if amount > 0 {
		b.WriteString(emv("54", amount.String()))
	}
	b.WriteString(emv("58", "BR"))
	b.WriteString(emv("59", emvText(p.MerchantName, 25)))
	b.WriteString(emv("60", emvText(p.MerchantCity, 15)))
	b.WriteString(emv("62", emv("05", pixTxID(txid))))
	b.WriteString("6304")

	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16(payload))
}

// ValidPixCode reports whether code ends with a checksum matching its body.
func ValidPixCode(code string) bool {
	if len(code) < 8 || code[len(code)-8:len(code)-4] != "6304" {
		return false
	}
	body := code[:len(code)-4]
	return fmt.Sprintf("%04X", crc16(body)) == code[len(code)-4:]
}

func emv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// emvText strips accents and truncates to max bytes.
func emvText(s string, max int) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.ToUpper(strings.TrimSpace(b.String()))
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func pixTxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "***"
	}
	if len(out) > 25 {
		out = out[:25]
	}
	return out
}

// crc16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF).
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
