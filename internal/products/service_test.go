package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/duka-backend/pkg/db/models"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
)

func newProductService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestServiceCreateValidates(t *testing.T) {
	svc, repo := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, repo, "Beverages")

	_, err := svc.Create(ctx, CreateProductInput{CategoryID: category.ID, Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "missing name")

	_, err = svc.Create(ctx, CreateProductInput{CategoryID: category.ID, Name: "Tea", Price: decimal.Zero})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "zero price")

	_, err = svc.Create(ctx, CreateProductInput{CategoryID: uuid.New(), Name: "Tea", Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "unknown category")

	product, err := svc.Create(ctx, CreateProductInput{
		CategoryID: category.ID,
		Name:       "Tea",
		Price:      decimal.NewFromInt(10),
		Stock:      4,
	})
	require.NoError(t, err)
	assert.True(t, product.IsActive)
}

func TestServiceDeleteBlockedWhenOrdered(t *testing.T) {
	svc, repo := newProductService(t)
	ctx := context.Background()

	category := seedCategory(t, repo, "Snacks")
	product := seedCatalogProduct(t, repo, category.ID, "Crisps", 5)

	// simulate an order line referencing the product
	db := repo.(*repository).db
	require.NoError(t, db.Create(&models.OrderItem{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  1,
	}).Error)

	err := svc.Delete(ctx, product.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	// still present
	_, err = svc.Get(ctx, product.ID)
	require.NoError(t, err)
}

func TestServiceDeleteRemovesUnreferenced(t *testing.T) {
	svc, repo := newProductService(t)
	ctx := context.Background()

	category := seedCategory(t, repo, "Dairy")
	product := seedCatalogProduct(t, repo, category.ID, "Milk", 5)

	require.NoError(t, svc.Delete(ctx, product.ID))

	_, err := svc.Get(ctx, product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceUpdate(t *testing.T) {
	svc, repo := newProductService(t)
	ctx := context.Background()

	category := seedCategory(t, repo, "Teas")
	product := seedCatalogProduct(t, repo, category.ID, "Green Tea", 5)

	updated, err := svc.Update(ctx, product.ID, UpdateProductInput{
		CategoryID: category.ID,
		Name:       "Green Tea Premium",
		Price:      decimal.NewFromInt(700),
		Stock:      9,
		IsActive:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Tea Premium", updated.Name)
	assert.Equal(t, 9, updated.Stock)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(700)))

	_, err = svc.Update(ctx, uuid.New(), UpdateProductInput{
		CategoryID: category.ID,
		Name:       "Ghost",
		Price:      decimal.NewFromInt(1),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
