package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/pricing"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductProjection(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	created, err := f.master.CreateProduct(f.ctx, adminActor, model.ProductRequest{
		Name:             "Subwoofer 12\"",
		UOM:              "pcs",
		PurchasePrice:    d("1250000"),
		SellingPrice:     d("1750000"),
		RestockThreshold: d("2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PRD00000001", created.Code)
	assert.Equal(t, "T.AWI.III", created.PurchasePriceCode)
	assert.True(t, created.Stock.IsZero())
	assert.True(t, created.NeedsRestock)
	assert.Nil(t, created.PurchasePrice)

	asOwner, err := f.master.GetProduct(f.ctx, ownerActor, created.ID)
	require.NoError(t, err)
	require.NotNil(t, asOwner.PurchasePrice)
	assert.True(t, asOwner.PurchasePrice.Equal(d("1250000")))
	require.NotNil(t, asOwner.CostPrice)
	assert.True(t, asOwner.CostPrice.IsZero())

	asStaff, err := f.master.GetProduct(f.ctx, staffActor, created.ID)
	require.NoError(t, err)
	assert.Nil(t, asStaff.PurchasePrice)
	assert.Nil(t, asStaff.CostPrice)

	_, err = f.master.CreateProduct(f.ctx, staffActor, model.ProductRequest{Name: "x"})
	assertKind(t, err, apperror.KindForbidden)
	_, err = f.master.CreateProduct(f.ctx, adminActor, model.ProductRequest{Name: "x", SellingPrice: d("-1")})
	assertKind(t, err, apperror.KindValidation)
	_, err = f.master.GetProduct(f.ctx, staffActor, uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}

func TestUpdateProductKeepsStockAndCost(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	id := f.product("Speaker", "8", "110", "150")

	updated, err := f.master.UpdateProduct(f.ctx, adminActor, id, model.ProductRequest{
		Name:          "Speaker 6.5\"",
		PurchasePrice: d("120"),
		SellingPrice:  d("180"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Speaker 6.5\"", updated.Name)

	p := f.stored(id)
	assert.True(t, p.Stock.Equal(d("8")))
	assert.True(t, p.CostPrice.Equal(d("110")))
	assert.True(t, p.SellingPrice.Equal(d("180")))
}

func TestPartiesGetSequentialCodes(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	first, err := f.master.CreateSupplier(f.ctx, adminActor, model.PartyRequest{Name: "A"})
	require.NoError(t, err)
	second, err := f.master.CreateSupplier(f.ctx, adminActor, model.PartyRequest{Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, "SUP00000001", first.Code)
	assert.Equal(t, "SUP00000002", second.Code)

	customer, err := f.master.CreateCustomer(f.ctx, adminActor, model.PartyRequest{Name: "C"})
	require.NoError(t, err)
	assert.Equal(t, "CUS00000001", customer.Code)

	renamed, err := f.master.UpdateCustomer(f.ctx, adminActor, customer.ID, model.PartyRequest{Name: "C2", Phone: "0812"})
	require.NoError(t, err)
	assert.Equal(t, "C2", renamed.Name)

	suppliers, err := f.master.ListSuppliers(f.ctx, staffActor)
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)

	_, err = f.master.UpdateSupplier(f.ctx, adminActor, uuid.New(), model.PartyRequest{Name: "x"})
	assertKind(t, err, apperror.KindNotFound)
}

func TestNextCodeIsDistinctUnderConcurrency(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	const n = 20

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := f.sequences.NextCode(f.ctx, adminActor, model.PrefixSalesOrder)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			codes = append(codes, code)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, codes, n)
	sort.Strings(codes)
	for i, code := range codes {
		want, err := pricing.FormatCode(model.PrefixSalesOrder, int64(i+1))
		require.NoError(t, err)
		assert.Equal(t, want, code)
	}
}

func TestCreateProductCodesAreSequentialUnderConcurrency(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	const n = 20

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := f.master.CreateProduct(f.ctx, adminActor, model.ProductRequest{Name: "Subwoofer", SellingPrice: d("900")})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			codes = append(codes, p.Code)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, codes, n)
	sort.Strings(codes)
	for i, code := range codes {
		want, err := pricing.FormatCode(model.PrefixProduct, int64(i+1))
		require.NoError(t, err)
		assert.Equal(t, want, code)
	}

	products, err := f.master.ListProducts(f.ctx, staffActor)
	require.NoError(t, err)
	assert.Len(t, products, n)
}

func TestNextCodeSeedsFromStoredCodes(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	f.run(func(ctx context.Context, repos *repository.Repositories) error {
		return repos.Products.Create(ctx, &model.Product{Code: "PRD00000041", Name: "Legacy"})
	})

	code, err := f.sequences.NextCode(f.ctx, adminActor, model.PrefixProduct)
	require.NoError(t, err)
	assert.Equal(t, "PRD00000042", code)

	_, err = f.sequences.NextCode(f.ctx, adminActor, "XX")
	assertKind(t, err, apperror.KindValidation)
	_, err = f.sequences.NextCode(f.ctx, staffActor, model.PrefixProduct)
	assertKind(t, err, apperror.KindForbidden)
}
