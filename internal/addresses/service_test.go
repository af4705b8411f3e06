package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukahub/duka-backend/pkg/db/models"
	"github.com/dukahub/duka-backend/pkg/enums"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func setupAddressesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  region TEXT,
  phone TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  address_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  total TEXT NOT NULL,
  payment_ref TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newAddressService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupAddressesTestDB(t)
	svc, err := NewService(NewRepository(db), &stubTxRunner{})
	require.NoError(t, err)
	return svc, db
}

func validInput() AddressInput {
	return AddressInput{
		Label: "Home",
		Line1: "123 Moi Avenue",
		City:  "Nairobi",
		Phone: "254712345678",
	}
}

func TestCreateAddressValidates(t *testing.T) {
	svc, _ := newAddressService(t)
	ctx := context.Background()

	input := validInput()
	input.City = ""
	_, err := svc.Create(ctx, uuid.New(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDefaultFlagFlips(t *testing.T) {
	svc, _ := newAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first := validInput()
	first.IsDefault = true
	createdFirst, err := svc.Create(ctx, userID, first)
	require.NoError(t, err)
	assert.True(t, createdFirst.IsDefault)

	second := validInput()
	second.Label = "Office"
	second.IsDefault = true
	createdSecond, err := svc.Create(ctx, userID, second)
	require.NoError(t, err)
	assert.True(t, createdSecond.IsDefault)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			assert.Equal(t, "Office", a.Label)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	svc, _ := newAddressService(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, uuid.New(), created.ID, validInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	input := validInput()
	input.Label = "Weekend"
	updated, err := svc.Update(ctx, owner, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Weekend", updated.Label)
}

func TestDeleteBlockedWhenOrdered(t *testing.T) {
	svc, db := newAddressService(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    owner,
		AddressID: &created.ID,
		Status:    enums.OrderStatusPending,
		Total:     decimal.NewFromInt(100),
	}
	require.NoError(t, db.Create(order).Error)

	err = svc.Delete(ctx, owner, created.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestDeleteRemovesUnreferenced(t *testing.T) {
	svc, _ := newAddressService(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, created.ID))

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
