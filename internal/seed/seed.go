package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
)

const demoImage = "https://images.pexels.com/photos/1620760/pexels-photo-1620760.jpeg?auto=compress&cs=tinysrgb&w=400"

// Catalog returns the demo catalogue. Ids are fixed so Apply stays
// idempotent.
func Catalog() []domain.Product {
	return []domain.Product{
		{
			ID:            1,
			Name:          "Vestido Princesa Rosa",
			Price:         8990,
			OriginalPrice: 12990,
			Image:         demoImage,
			Category:      "Meninas",
			Sizes:         []string{"2", "4", "6", "8"},
			Colors:        []string{"Rosa"},
			Rating:        4.9,
			Description:   "Lindo vestido rosa para princesas",
			Stock:         15,
		},
		{
			ID:            2,
			Name:          "Conjunto Aventureiro",
			Price:         6990,
			OriginalPrice: 9990,
			Image:         demoImage,
			Category:      "Meninos",
			Sizes:         []string{"2", "4", "6", "8"},
			Colors:        []string{"Azul", "Verde"},
			Rating:        4.8,
			Description:   "Conjunto perfeito para aventuras",
			Stock:         20,
		},
		{
			ID:            3,
			Name:          "Body Bebê Unicórnio",
			Price:         3990,
			OriginalPrice: 5990,
			Image:         demoImage,
			Category:      "Bebês",
			Sizes:         []string{"RN", "P", "M", "G"},
			Colors:        []string{"Branco", "Rosa"},
			Rating:        5,
			Description:   "Body fofo com estampa de unicórnio",
			Stock:         30,
		},
		{
			ID:          4,
			Name:        "Macacão Ursinho",
			Price:       7490,
			Image:       demoImage,
			Category:    "Bebês",
			Sizes:       []string{"P", "M", "G"},
			Colors:      []string{"Bege"},
			Rating:      4.7,
			Description: "Macacão de plush com capuz de ursinho",
			Stock:       8,
		},
		{
			ID:          5,
			Name:        "Kit Meias Antiderrapantes",
			Price:       2990,
			Image:       demoImage,
			Category:    "Acessórios",
			Colors:      []string{"Sortidas"},
			Rating:      4.6,
			Description: "Kit com 3 pares de meias antiderrapantes",
			Stock:       50,
		},
	}
}

type productSaver interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// Apply upserts the demo catalogue.
func Apply(ctx context.Context, products productSaver, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, p := range Catalog() {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
		logger.Debug("seeded product", zap.Int64("id", p.ID), zap.String("name", p.Name))
	}
	return nil
}
