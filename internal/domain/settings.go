package domain

// SiteSettings is the editable storefront configuration.
type SiteSettings struct {
	CompanyName          string            `json:"companyName"`
	Phone                string            `json:"phone"`
	Email                string            `json:"email"`
	Address              string            `json:"address"`
	Instagram            string            `json:"instagram"`
	Facebook             string            `json:"facebook"`
	Twitter              string            `json:"twitter"`
	WhatsApp             string            `json:"whatsapp"`
	WorkingHours         string            `json:"workingHours"`
	HeroTitle            string            `json:"heroTitle"`
	HeroSubtitle         string            `json:"heroSubtitle"`
	AboutTitle           string            `json:"aboutTitle"`
	AboutDescription     string            `json:"aboutDescription"`
	FreeShippingMinValue Money             `json:"freeShippingMinValueCents"`
	DiscountPercentage   int               `json:"discountPercentage"`
	LogoURL              string            `json:"logoUrl"`
	ButtonLinks          map[string]string `json:"buttonLinks"`
}

// DefaultSiteSettings returns the settings the store ships with.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		CompanyName:          "LaviBaby",
		Phone:                "(11) 99999-9999",
		Email:                "contato@lavibaby.com.br",
		Address:              "São Paulo, SP - Brasil",
		Instagram:            "@lavibaby",
		Facebook:             "LaviBaby",
		Twitter:              "@lavibaby",
		WhatsApp:             "5511999999999",
		WorkingHours:         "Seg-Sex: 8h às 18h",
		HeroTitle:            "Roupas que fazem os pequenos brilharem",
		HeroSubtitle:         "Descubra nossa coleção exclusiva de roupas infantis. Conforto, estilo e qualidade para os momentos especiais dos seus pequenos.",
		AboutTitle:           "Por que escolher a LaviBaby?",
		AboutDescription:     "Somos uma loja especializada em roupas infantis que combina estilo, conforto e qualidade. Nossa missão é fazer com que cada criança se sinta especial e confiante.",
		FreeShippingMinValue: 15000,
		DiscountPercentage:   20,
		LogoURL:              "/LOGO HORIZONTAL TRANSPARENTE.png",
		ButtonLinks: map[string]string{
			"verColecao":       "#categorias",
			"ofertas":          "#produtos",
			"verOfertas":       "#produtos",
			"comprarAgora":     "#produtos",
			"queroDesconto":    "#newsletter",
			"falarWhatsApp":    "https://wa.me/5511999999999",
			"verTodosProdutos": "#produtos",
			"baixarApp":        "#",
			"criarConta":       "#",
		},
	}
}
