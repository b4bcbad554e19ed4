package account

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/kv"
)

// Settings returns the stored site settings, or the defaults when nothing was
// saved yet.
func (s *Service) Settings(ctx context.Context) (domain.SiteSettings, error) {
	var st domain.SiteSettings
	err := kv.GetJSON(ctx, s.store, settingsKey, &st)
	if errors.Is(err, kv.ErrNotFound) {
		return domain.DefaultSiteSettings(), nil
	}
	if err != nil {
		return domain.SiteSettings{}, err
	}
	if st.ButtonLinks == nil {
		st.ButtonLinks = domain.DefaultSiteSettings().ButtonLinks
	}
	return st, nil
}

// UpdateSettings replaces the site settings.
func (s *Service) UpdateSettings(ctx context.Context, st domain.SiteSettings) (domain.SiteSettings, error) {
	st.CompanyName = strings.TrimSpace(st.CompanyName)
	if st.CompanyName == "" {
		return domain.SiteSettings{}, domain.NewValidationError("companyName", "Nome da empresa é obrigatório")
	}
	if st.FreeShippingMinValue < 0 {
		return domain.SiteSettings{}, domain.NewValidationError("freeShippingMinValue", "Valor mínimo para frete grátis inválido")
	}
	if st.DiscountPercentage < 0 || st.DiscountPercentage > 100 {
		return domain.SiteSettings{}, domain.NewValidationError("discountPercentage", "Percentual de desconto deve estar entre 0 e 100")
	}
	if st.ButtonLinks == nil {
		st.ButtonLinks = map[string]string{}
	}
	if err := kv.SetJSON(ctx, s.store, settingsKey, st); err != nil {
		return domain.SiteSettings{}, err
	}
	s.logger.Info("site settings updated", zap.String("company_name", st.CompanyName))
	return st, nil
}
