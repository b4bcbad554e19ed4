package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0x29B1), crc16("123456789"))
}

func TestBuildPixCode(t *testing.T) {
	payee := PixPayee{Key: "contato@lavibaby.com.br", MerchantName: "LaviBaby Moda Infantil Ltda", MerchantCity: "São Paulo"}
	code := BuildPixCode(payee, 13990, "PIX-1234-abcd")

	assert.True(t, strings.HasPrefix(code, "000201"))
	assert.Contains(t, code, "0014br.gov.bcb.pix")
	assert.Contains(t, code, "5406139.90")
	assert.Contains(t, code, "5303986")
	assert.Contains(t, code, "6009SAO PAULO")
	assert.Contains(t, code, "5925LAVIBABY MODA INFANTIL LT")
	assert.Contains(t, code, "0511PIX1234abcd")
	assert.True(t, ValidPixCode(code))

	tampered := strings.Replace(code, "139.90", "100.00", 1)
	assert.False(t, ValidPixCode(tampered))
	assert.False(t, ValidPixCode("short"))
}

func TestAddBusinessDays(t *testing.T) {
	friday := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), AddBusinessDays(friday, 3))

	monday := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 22, 10, 0, 0, 0, time.UTC), AddBusinessDays(monday, 3))

	saturday := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), AddBusinessDays(saturday, 3))
}
