package payment

import (
	"strconv"
	"strings"
	"time"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
)

const (
	BrandVisa       = "Visa"
	BrandMastercard = "Mastercard"
	BrandElo        = "Elo"
	BrandHipercard  = "Hipercard"
	BrandAmex       = "American Express"
	BrandDiners     = "Diners Club"
	BrandDiscover   = "Discover"
	BrandUnknown    = "unknown"
)

// ValidateCreditCard checks the structure of a card number: 13 to 19 digits
// (spaces and dashes allowed) passing the Luhn checksum.
func ValidateCreditCard(number string) bool {
	for _, r := range number {
		if (r < '0' || r > '9') && r != ' ' && r != '-' {
			return false
		}
	}
	digits := format.Digits(number)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	return luhn(digits)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

type prefixRange struct{ lo, hi int }

// six-digit BIN ranges
var eloRanges = []prefixRange{
	{401178, 401179}, {431274, 431274}, {438935, 438935}, {451416, 451416},
	{457393, 457393}, {457631, 457632}, {504175, 504175}, {506699, 506778},
	{509000, 509999}, {627780, 627780}, {636297, 636297}, {636368, 636368},
	{650031, 650033}, {650035, 650051}, {650405, 650439}, {650485, 650538},
	{650541, 650598}, {650700, 650718}, {650720, 650727}, {650901, 650920},
	{651652, 651679}, {655000, 655019}, {655021, 655058},
}

var hipercardRanges = []prefixRange{
	{384100, 384100}, {384140, 384140}, {384160, 384160}, {606282, 606282},
	{637095, 637095}, {637568, 637568}, {637599, 637599}, {637609, 637609},
	{637612, 637612},
}

// CardBrand maps the leading digits of a card number to a brand label.
func CardBrand(number string) string {
	d := format.Digits(number)
	if d == "" {
		return BrandUnknown
	}
	if inRanges(d, 6, eloRanges) {
		return BrandElo
	}
	if inRanges(d, 6, hipercardRanges) {
		return BrandHipercard
	}
	switch {
	case hasPrefixIn(d, 2, prefixRange{34, 34}, prefixRange{37, 37}):
		return BrandAmex
	case hasPrefixIn(d, 3, prefixRange{300, 305}) || hasPrefixIn(d, 2, prefixRange{36, 36}, prefixRange{38, 39}):
		return BrandDiners
	case strings.HasPrefix(d, "6011") || hasPrefixIn(d, 3, prefixRange{644, 649}) || hasPrefixIn(d, 2, prefixRange{65, 65}):
		return BrandDiscover
	case hasPrefixIn(d, 2, prefixRange{51, 55}) || hasPrefixIn(d, 4, prefixRange{2221, 2720}):
		return BrandMastercard
	case d[0] == '4':
		return BrandVisa
	}
	return BrandUnknown
}

func inRanges(digits string, n int, ranges []prefixRange) bool {
	return hasPrefixIn(digits, n, ranges...)
}

func hasPrefixIn(digits string, n int, ranges ...prefixRange) bool {
	if len(digits) < n {
		return false
	}
	v, err := strconv.Atoi(digits[:n])
	if err != nil {
		return false
	}
	for _, r := range ranges {
		if v >= r.lo && v <= r.hi {
			return true
		}
	}
	return false
}

// ValidateCardFields checks every credit-card field the payment step asks
// for. now decides whether the card is expired.
func ValidateCardFields(card *domain.CreditCard, now time.Time) error {
	if card == nil {
		return domain.NewValidationError("creditCard", "Dados do cartão são obrigatórios")
	}
	if strings.TrimSpace(card.Number) == "" || !ValidateCreditCard(card.Number) {
		return domain.NewValidationError("number", "Número do cartão inválido")
	}
	if strings.TrimSpace(card.HolderName) == "" {
		return domain.NewValidationError("holderName", "Nome do titular é obrigatório")
	}
	month, err := strconv.Atoi(strings.TrimSpace(card.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return domain.NewValidationError("expiryMonth", "Mês de validade inválido")
	}
	year, err := strconv.Atoi(strings.TrimSpace(card.ExpiryYear))
	if err != nil || year < 0 {
		return domain.NewValidationError("expiryYear", "Ano de validade inválido")
	}
	if year < 100 {
		year += 2000
	}
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return domain.NewValidationError("expiryYear", "Cartão expirado")
	}
	cvv := strings.TrimSpace(card.CVV)
	if len(cvv) < 3 || len(cvv) > 4 || format.Digits(cvv) != cvv {
		return domain.NewValidationError("cvv", "CVV inválido")
	}
	if card.Installments < 1 || card.Installments > MaxInstallments {
		return domain.NewValidationError("installments", "Número de parcelas inválido")
	}
	return nil
}
