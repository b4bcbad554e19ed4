package product

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
	productrepo "lavibaby-storefront/internal/repository/product"
)

type Service struct {
	repo   productrepo.Repository
	logger *zap.Logger
}

func New(repo productrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.List(ctx, productrepo.Filter{Category: strings.TrimSpace(category)})
}

// GetByID satisfies the cart service's product lookup.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Save replaces the product with p.ID, or creates it when the id is zero.
func (s *Service) Save(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if err := validate(p); err != nil {
		return nil, err
	}
	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product saved", zap.Int64("id", saved.ID), zap.Int64("price", int64(saved.Price)))
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.Int64("id", id))
	return nil
}

func validate(p domain.Product) error {
	switch {
	case p.ID < 0:
		return domain.NewValidationError("id", "ID inválido")
	case p.Name == "":
		return domain.NewValidationError("name", "Nome é obrigatório")
	case p.Price <= 0:
		return domain.NewValidationError("price", "Preço deve ser maior que zero")
	case p.OriginalPrice < 0:
		return domain.NewValidationError("originalPrice", "Preço original inválido")
	case p.Stock < 0:
		return domain.NewValidationError("stock", "Estoque não pode ser negativo")
	case p.Rating < 0 || p.Rating > 5:
		return domain.NewValidationError("rating", "Avaliação deve estar entre 0 e 5")
	}
	return nil
}
