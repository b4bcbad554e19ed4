package payment

import (
	"errors"
	"fmt"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
)

var ErrNotBoleto = errors.New("order was not paid by boleto")

// RenderBoletoPDF builds the printable slip for an order paid by boleto.
func RenderBoletoPDF(order domain.Order, issuer string) ([]byte, error) {
	if order.PaymentMethod != domain.PaymentBoleto || order.BoletoDueDate == nil {
		return nil, ErrNotBoleto
	}

	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 20, 20)

	dark := color.Color{Red: 38, Green: 38, Blue: 34}
	muted := color.Color{Red: 121, Green: 119, Blue: 109}

	label := props.Text{Size: 8, Style: consts.Bold, Color: dark}
	value := props.Text{Size: 10, Color: dark}

	m.Row(14, func() {
		m.Col(8, func() {
			m.Text(issuer, props.Text{Size: 18, Style: consts.Bold, Color: dark})
		})
		m.Col(4, func() {
			m.Text("BOLETO BANCÁRIO", props.Text{Size: 10, Style: consts.Bold, Color: dark, Align: consts.Right})
		})
	})

	field := func(name, text string) {
		m.Row(5, func() {
			m.Col(12, func() {
				m.Text(name, label)
			})
		})
		m.Row(7, func() {
			m.Col(12, func() {
				m.Text(text, value)
			})
		})
	}

	m.Row(6, func() {})
	field("Beneficiário", issuer)
	field("Pagador", order.Customer.Name)
	field("CPF do pagador", format.CPF(order.Customer.Document))
	field("Endereço", order.ShipTo.OneLine())

	m.Row(6, func() {})
	m.Row(5, func() {
		m.Col(4, func() {
			m.Text("Nosso número", label)
		})
		m.Col(4, func() {
			m.Text("Vencimento", label)
		})
		m.Col(4, func() {
			m.Text("Valor do documento", props.Text{Size: 8, Style: consts.Bold, Color: dark, Align: consts.Right})
		})
	})
	m.Row(8, func() {
		m.Col(4, func() {
			m.Text(order.TransactionID, value)
		})
		m.Col(4, func() {
			m.Text(order.BoletoDueDate.Format("02/01/2006"), value)
		})
		m.Col(4, func() {
			m.Text(format.Currency(order.Total), props.Text{Size: 12, Style: consts.Bold, Color: dark, Align: consts.Right})
		})
	})

	m.Row(6, func() {})
	m.Row(5, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Pedido %s", order.ID), props.Text{Size: 9, Color: muted})
		})
	})
	for _, it := range order.Items {
		it := it
		m.Row(5, func() {
			m.Col(8, func() {
				line := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
				if it.Size != "" {
					line += " (" + it.Size + ")"
				}
				m.Text(line, props.Text{Size: 9, Color: muted})
			})
			m.Col(4, func() {
				m.Text(format.Currency(it.Total()), props.Text{Size: 9, Color: muted, Align: consts.Right})
			})
		})
	}
	m.Row(5, func() {
		m.Col(8, func() {
			m.Text("Frete", props.Text{Size: 9, Color: muted})
		})
		m.Col(4, func() {
			m.Text(format.Shipping(order.Shipping), props.Text{Size: 9, Color: muted, Align: consts.Right})
		})
	})

	m.Row(10, func() {})
	m.Row(5, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Pague até %s em qualquer banco ou lotérica. Após o vencimento, gere um novo boleto.",
				order.BoletoDueDate.Format("02/01/2006")), props.Text{Size: 8, Color: muted})
		})
	})

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("render boleto: %w", err)
	}
	return buf.Bytes(), nil
}
