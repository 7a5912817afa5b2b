package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/pricing"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/service"
)

type checkoutFixture struct {
	svc      service.CheckoutService
	mock     sqlmock.Sqlmock
	user     *models.User
	catalog  *fakeCatalogRepo
	carts    *fakeCartRepo
	coupons  *fakeCouponRepo
	orders   *fakeOrderRepo
	walletTx *fakeWalletTxRepo
	cache    *memCache
	pub      *fakePublisher
}

func newCheckoutFixture(t *testing.T, balance string) *checkoutFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := newFakeUserRepo()
	user := users.add(&models.User{ID: customer.UserID, Email: "buyer@example.com", Role: models.RoleCustomer, WalletBalance: dec(balance)})

	catalog := newFakeCatalogRepo()
	catalog.addProduct(1, "100", 1)
	catalog.addProduct(2, "300", 2)

	f := &checkoutFixture{
		mock:     mock,
		user:     user,
		catalog:  catalog,
		carts:    newFakeCartRepo(catalog),
		coupons:  newFakeCouponRepo(),
		orders:   newFakeOrderRepo(),
		walletTx: newFakeWalletTxRepo(),
		cache:    newMemCache(),
		pub:      &fakePublisher{},
	}
	f.svc = service.NewCheckoutService(testLogger(), db, users, f.carts, f.coupons, f.orders, f.walletTx,
		f.cache, f.pub, pricing.DefaultTaxRate)
	return f
}

var shipping = models.ShippingInfo{FirstName: "Ann", LastName: "Lee", Address: "Main st 1", Phone: "555-0100"}

func TestCheckout_ScenarioC_SplitsByStoreAndDebitsWallet(t *testing.T) {
	f := newCheckoutFixture(t, "500")
	ctx := context.Background()
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 1, 1))
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 2, 1))
	flat := f.coupons.add(&models.Coupon{Code: "FLAT50", Kind: models.DiscountFixed, Value: dec("50"), IsActive: true})
	require.NoError(t, f.carts.SetCoupon(ctx, customer.UserID, &flat.ID))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentWallet,
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	s1, s2 := res.Orders[0], res.Orders[1]
	assert.Equal(t, int64(1), s1.StoreID)
	assert.Equal(t, "12.5", s1.DiscountAmount.String())
	assert.Equal(t, "4", s1.Tax.String())
	assert.Equal(t, "91.5", s1.Total.String())
	assert.Equal(t, int64(2), s2.StoreID)
	assert.Equal(t, "37.5", s2.DiscountAmount.String())
	assert.Equal(t, "12", s2.Tax.String())
	assert.Equal(t, "274.5", s2.Total.String())
	assert.Equal(t, "366", res.Summary.Total.String())

	for _, o := range res.Orders {
		_, err := uuid.Parse(o.ID)
		assert.NoError(t, err, "order id is a uuid")
		assert.Equal(t, models.StatusPending, o.Status)
		assert.Equal(t, "FLAT50", o.CouponCode)
		assert.Equal(t, shipping, o.ShippingInfo)
		assert.Len(t, o.Items, 1)
	}
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Len(t, f.orders.orders, 2)

	// кошелёк списан на общий итог, операция записана
	assert.Equal(t, "134", f.user.WalletBalance.String())
	require.Len(t, f.walletTx.transactions, 1)
	for _, wt := range f.walletTx.transactions {
		assert.Equal(t, models.WalletPurchase, wt.Kind)
		assert.Equal(t, models.WalletTxApproved, wt.Status)
		assert.Equal(t, "366", wt.Amount.String())
	}

	// корзина и купон очищены, кэш сброшен, события отправлены
	assert.Empty(t, f.carts.lines[customer.UserID])
	assert.Nil(t, f.carts.coupons[customer.UserID])
	assert.Equal(t, 1, f.cache.deletes)
	assert.Len(t, f.pub.placed, 2)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_ScenarioD_InsufficientFundsChangesNothing(t *testing.T) {
	f := newCheckoutFixture(t, "100")
	ctx := context.Background()
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 1, 2)) // итог 208

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	res, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentWallet,
	})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, shoperr.ErrInsufficientFunds))
	assert.Equal(t, shoperr.KindInsufficientFunds, shoperr.Kind(err))

	assert.Equal(t, "100", f.user.WalletBalance.String())
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.walletTx.transactions)
	assert.Len(t, f.carts.lines[customer.UserID], 1, "cart is kept")
	assert.Empty(t, f.pub.placed)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, "1000")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.PlaceOrder(context.Background(), customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentCOD,
	})
	assert.True(t, errors.Is(err, shoperr.ErrEmptyCart))
	assert.Empty(t, f.orders.orders)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_NotAuthenticated(t *testing.T) {
	f := newCheckoutFixture(t, "1000")

	_, err := f.svc.PlaceOrder(context.Background(), authz.Actor{}, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentCOD,
	})
	assert.True(t, errors.Is(err, shoperr.ErrNotAuthenticated))
	// транзакция даже не открывалась
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_ValidatesRequest(t *testing.T) {
	f := newCheckoutFixture(t, "1000")
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      models.ShippingInfo{FirstName: "Ann"},
		PaymentMethod: models.PaymentCOD,
	})
	assert.True(t, errors.Is(err, shoperr.ErrValidation))

	_, err = f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: "Barter",
	})
	assert.True(t, errors.Is(err, shoperr.ErrValidation))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_CashOnDeliveryKeepsWalletAndSavesShipping(t *testing.T) {
	f := newCheckoutFixture(t, "0")
	ctx := context.Background()
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 1, 1))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentCOD,
		SaveShipping:  true,
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "104", res.Orders[0].Total.String())
	assert.Empty(t, res.Orders[0].CouponCode)

	assert.True(t, f.user.WalletBalance.IsZero())
	assert.Empty(t, f.walletTx.transactions)
	if assert.NotNil(t, f.user.SavedShipping) {
		assert.Equal(t, shipping, *f.user.SavedShipping)
	}
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_PublishFailureDoesNotUndoOrder(t *testing.T) {
	f := newCheckoutFixture(t, "0")
	f.pub.err = errors.New("broker down")
	ctx := context.Background()
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 2, 1))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentOnline,
	})
	require.NoError(t, err)
	assert.Len(t, res.Orders, 1)
	assert.Len(t, f.orders.orders, 1)
}

func TestCheckout_BeginFailureIsUnavailable(t *testing.T) {
	f := newCheckoutFixture(t, "0")
	ctx := context.Background()
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 1, 1))

	f.mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentCOD,
	})
	assert.True(t, errors.Is(err, shoperr.ErrUnavailable))
	assert.Empty(t, f.orders.orders)
}

func TestCheckout_OrderTimestampsUseOneClockReading(t *testing.T) {
	f := newCheckoutFixture(t, "0")
	ctx := context.Background()
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 1, 1))
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 2, 1))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	before := time.Now().UTC()
	res, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{Shipping: shipping, PaymentMethod: models.PaymentBank})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, res.Orders[0].CreatedAt, res.Orders[1].CreatedAt)
	assert.False(t, res.Orders[0].CreatedAt.Before(before.Truncate(time.Second)))
}

func TestCheckout_OrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	f := newCheckoutFixture(t, "1000")
	ctx := context.Background()
	f.catalog.addStore(1, reseller.UserID)
	f.catalog.addStore(2, reseller.UserID)
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 1, 2))
	require.NoError(t, f.carts.SaveLine(ctx, customer.UserID, 2, 1))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	res, err := f.svc.PlaceOrder(ctx, customer, service.PlaceOrderRequest{
		Shipping:      shipping,
		PaymentMethod: models.PaymentWallet,
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	catalog := service.NewCatalogService(testLogger(), f.catalog, f.cache)
	_, err = catalog.UpdateProduct(ctx, reseller, &models.Product{ID: 1, Name: "Renamed", Price: dec("999"), ImageURLs: []string{"new.png"}})
	require.NoError(t, err)
	require.NoError(t, catalog.DeleteProduct(ctx, reseller, 2))

	orders := service.NewOrderService(testLogger(), f.orders, f.catalog, f.pub)
	first, err := orders.Get(ctx, customer, res.Orders[0].ID)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "product", first.Items[0].Name)
	assert.Equal(t, "img.png", first.Items[0].ImageURL)
	assert.Equal(t, "100", first.Items[0].Price.String())
	assert.Equal(t, 2, first.Items[0].Quantity)
	assert.Equal(t, "208", first.Total.String())

	second, err := orders.Get(ctx, customer, res.Orders[1].ID)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, int64(2), second.Items[0].ProductID, "deleted product stays in the order")
	assert.Equal(t, "300", second.Items[0].Price.String())

	assert.NoError(t, f.mock.ExpectationsWereMet())
}
