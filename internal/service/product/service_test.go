package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavibaby-storefront/internal/domain"
	productrepo "lavibaby-storefront/internal/repository/product"
)

func newService() *Service {
	return New(productrepo.NewMemory([]domain.Product{
		{ID: 1, Name: "Body Manga Longa", Price: 3990, Category: "Bodies", Sizes: []string{"RN", "P"}, Stock: 3},
		{ID: 2, Name: "Vestido Floral", Price: 7990, Category: "Vestidos", Sizes: []string{"1"}, Stock: 1},
	}), nil)
}

func TestService_ListFiltersByCategory(t *testing.T) {
	svc := newService()
	list, err := svc.List(context.Background(), " vestidos ")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_GetByIDRejectsNonPositive(t *testing.T) {
	_, err := newService().GetByID(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_SaveValidates(t *testing.T) {
	svc := newService()
	cases := map[string]domain.Product{
		"name":   {Price: 100},
		"price":  {Name: "X"},
		"stock":  {Name: "X", Price: 100, Stock: -1},
		"rating": {Name: "X", Price: 100, Rating: 6},
	}
	for field, p := range cases {
		_, err := svc.Save(context.Background(), p)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestService_SaveReplacesInPlace(t *testing.T) {
	svc := newService()
	saved, err := svc.Save(context.Background(), domain.Product{ID: 1, Name: " Body Promo ", Price: 2990, Category: "Bodies", Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, "Body Promo", saved.Name)

	got, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(2990), got.Price)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), domain.ErrNotFound)
}
