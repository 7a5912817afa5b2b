package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/cache"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/events"
	"github.com/linemk/luxe-market/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeUserRepo struct {
	users map[string]*models.User // ключ - email
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) add(u *models.User) *models.User {
	f.users[u.Email] = u
	return u
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrUserExists
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	return f.GetUserByID(ctx, id)
}

func (f *fakeUserRepo) UpdateWalletBalance(ctx context.Context, tx *sql.Tx, id int64, newBalance decimal.Decimal) error {
	u, err := f.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	u.WalletBalance = newBalance
	return nil
}

func (f *fakeUserRepo) SaveShippingInfo(ctx context.Context, tx *sql.Tx, id int64, info models.ShippingInfo) error {
	u, err := f.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	u.SavedShipping = &info
	return nil
}

type fakeCatalogRepo struct {
	stores   map[int64]*models.Store
	products map[int64]*models.Product
	nextID   int64
	// carts связывает каталог с корзинами для каскадного удаления
	carts *fakeCartRepo
}

var _ storage.CatalogStorage = (*fakeCatalogRepo)(nil)

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		stores:   make(map[int64]*models.Store),
		products: make(map[int64]*models.Product),
		nextID:   100,
	}
}

func (f *fakeCatalogRepo) addStore(id, ownerID int64) *models.Store {
	s := &models.Store{ID: id, Name: "store", OwnerID: ownerID}
	f.stores[id] = s
	return s
}

func (f *fakeCatalogRepo) addProduct(id int64, price string, storeID int64) *models.Product {
	p := &models.Product{ID: id, Name: "product", Price: dec(price), StoreID: storeID, ImageURLs: []string{"img.png"}}
	f.products[id] = p
	return p
}

func (f *fakeCatalogRepo) CreateStore(ctx context.Context, store *models.Store) (int64, error) {
	f.nextID++
	f.stores[f.nextID] = store
	return f.nextID, nil
}

func (f *fakeCatalogRepo) GetStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	s, ok := f.stores[id]
	if !ok {
		return nil, storage.ErrStoreNotFound
	}
	return s, nil
}

func (f *fakeCatalogRepo) CreateProduct(ctx context.Context, p *models.Product) (int64, error) {
	f.nextID++
	f.products[f.nextID] = p
	return f.nextID, nil
}

func (f *fakeCatalogRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalogRepo) ListProducts(ctx context.Context, storeID int64) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		if storeID == 0 || p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) UpdateStore(ctx context.Context, store *models.Store) error {
	if _, ok := f.stores[store.ID]; !ok {
		return storage.ErrStoreNotFound
	}
	cp := *store
	f.stores[store.ID] = &cp
	return nil
}

// UpdateProduct заменяет запись целиком, как UPDATE в postgres
func (f *fakeCatalogRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return storage.ErrProductNotFound
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

// DeleteProduct повторяет ON DELETE CASCADE для строк корзин
func (f *fakeCatalogRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	if f.carts != nil {
		for userID := range f.carts.lines {
			_ = f.carts.DeleteLine(ctx, userID, id)
		}
	}
	return nil
}

func (f *fakeCatalogRepo) CartHolders(ctx context.Context, productID int64) ([]int64, error) {
	if f.carts == nil {
		return nil, nil
	}
	var users []int64
	for userID, rows := range f.carts.lines {
		for _, r := range rows {
			if r.productID == productID {
				users = append(users, userID)
			}
		}
	}
	return users, nil
}

type fakeCouponRepo struct {
	coupons map[int64]*models.Coupon
	nextID  int64
}

var _ storage.CouponStorage = (*fakeCouponRepo)(nil)

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: make(map[int64]*models.Coupon)}
}

func (f *fakeCouponRepo) add(c *models.Coupon) *models.Coupon {
	f.nextID++
	c.ID = f.nextID
	f.coupons[c.ID] = c
	return c
}

func (f *fakeCouponRepo) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range f.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, storage.ErrCouponNotFound
}

func (f *fakeCouponRepo) GetCouponByID(ctx context.Context, id int64) (*models.Coupon, error) {
	c, ok := f.coupons[id]
	if !ok {
		return nil, storage.ErrCouponNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	var out []*models.Coupon
	for _, c := range f.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCouponRepo) CreateCoupon(ctx context.Context, c *models.Coupon) (int64, error) {
	if _, err := f.GetCouponByCode(ctx, c.Code); err == nil {
		return 0, storage.ErrCouponExists
	}
	return f.add(c).ID, nil
}

func (f *fakeCouponRepo) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	if _, ok := f.coupons[c.ID]; !ok {
		return storage.ErrCouponNotFound
	}
	f.coupons[c.ID] = c
	return nil
}

func (f *fakeCouponRepo) DeleteCoupon(ctx context.Context, id int64) error {
	if _, ok := f.coupons[id]; !ok {
		return storage.ErrCouponNotFound
	}
	delete(f.coupons, id)
	return nil
}

type fakeCartRepo struct {
	catalog *fakeCatalogRepo
	lines   map[int64][]cartRow // ключ: userID
	coupons map[int64]*int64
	reads   int
}

type cartRow struct {
	productID int64
	quantity  int
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo(catalog *fakeCatalogRepo) *fakeCartRepo {
	carts := &fakeCartRepo{
		catalog: catalog,
		lines:   make(map[int64][]cartRow),
		coupons: make(map[int64]*int64),
	}
	catalog.carts = carts
	return carts
}

// GetCart, как и настоящий репозиторий, подтягивает цену и название из каталога
func (f *fakeCartRepo) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	f.reads++
	cart := &models.Cart{UserID: userID, CouponID: f.coupons[userID]}
	for _, r := range f.lines[userID] {
		p := f.catalog.products[r.productID]
		cart.Lines = append(cart.Lines, models.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			ImageURL:  p.PrimaryImage(),
			Price:     p.Price,
			Quantity:  r.quantity,
			StoreID:   p.StoreID,
		})
	}
	return cart, nil
}

func (f *fakeCartRepo) GetCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	return f.GetCart(ctx, userID)
}

func (f *fakeCartRepo) SaveLine(ctx context.Context, userID, productID int64, quantity int) error {
	rows := f.lines[userID]
	for i := range rows {
		if rows[i].productID == productID {
			rows[i].quantity = quantity
			return nil
		}
	}
	f.lines[userID] = append(rows, cartRow{productID: productID, quantity: quantity})
	return nil
}

func (f *fakeCartRepo) DeleteLine(ctx context.Context, userID, productID int64) error {
	rows := f.lines[userID]
	for i := range rows {
		if rows[i].productID == productID {
			f.lines[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeCartRepo) SetCoupon(ctx context.Context, userID int64, couponID *int64) error {
	f.coupons[userID] = couponID
	return nil
}

func (f *fakeCartRepo) ClearCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	delete(f.lines, userID)
	delete(f.coupons, userID)
	return nil
}

type fakeOrderRepo struct {
	orders map[string]*models.Order
	// failStatusUpdate эмулирует параллельную смену статуса
	failStatusUpdate bool
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (f *fakeOrderRepo) add(o *models.Order) *models.Order {
	f.orders[o.ID] = o
	return o
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, o *models.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetOrdersByStoreID(ctx context.Context, storeID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok || o.Status != from || f.failStatusUpdate {
		return storage.ErrStatusChanged
	}
	o.Status = to
	return nil
}

type fakeWalletTxRepo struct {
	transactions map[int64]*models.WalletTransaction
	nextID       int64
}

var _ storage.WalletTransactionStorage = (*fakeWalletTxRepo)(nil)

func newFakeWalletTxRepo() *fakeWalletTxRepo {
	return &fakeWalletTxRepo{transactions: make(map[int64]*models.WalletTransaction)}
}

func (f *fakeWalletTxRepo) CreateTransaction(ctx context.Context, tx *sql.Tx, wt *models.WalletTransaction) (int64, error) {
	f.nextID++
	cp := *wt
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.transactions[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeWalletTxRepo) CreatePendingTopUp(ctx context.Context, userID int64, amount decimal.Decimal) (int64, error) {
	return f.CreateTransaction(ctx, nil, &models.WalletTransaction{
		UserID: userID,
		Amount: amount,
		Kind:   models.WalletTopUp,
		Status: models.WalletTxPending,
	})
}

func (f *fakeWalletTxRepo) LockTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (*models.WalletTransaction, error) {
	wt, ok := f.transactions[id]
	if !ok {
		return nil, storage.ErrWalletTxNotFound
	}
	cp := *wt
	return &cp, nil
}

func (f *fakeWalletTxRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status models.WalletTxStatus) error {
	wt, ok := f.transactions[id]
	if !ok {
		return storage.ErrWalletTxNotFound
	}
	wt.Status = status
	return nil
}

func (f *fakeWalletTxRepo) GetTransactionsByUserID(ctx context.Context, userID int64) ([]*models.WalletTransaction, error) {
	var out []*models.WalletTransaction
	for _, wt := range f.transactions {
		if wt.UserID == userID {
			out = append(out, wt)
		}
	}
	return out, nil
}

// memCache - кэш корзин в памяти
type memCache struct {
	carts   map[int64]*models.Cart
	deletes int
}

var _ cache.CartCache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{carts: make(map[int64]*models.Cart)}
}

func (m *memCache) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *c
	cp.Lines = append([]models.CartLine(nil), c.Lines...)
	return &cp, nil
}

func (m *memCache) Set(ctx context.Context, cart *models.Cart) error {
	cp := *cart
	cp.Lines = append([]models.CartLine(nil), cart.Lines...)
	m.carts[cart.UserID] = &cp
	return nil
}

func (m *memCache) Delete(ctx context.Context, userID int64) error {
	m.deletes++
	delete(m.carts, userID)
	return nil
}

type statusChange struct {
	orderID  string
	from, to models.OrderStatus
}

type fakePublisher struct {
	placed  []*models.Order
	changes []statusChange
	err     error
}

var _ events.OrderPublisher = (*fakePublisher)(nil)

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, o *models.Order) error {
	f.placed = append(f.placed, o)
	return f.err
}

func (f *fakePublisher) PublishOrderStatusChanged(ctx context.Context, o *models.Order, from models.OrderStatus) error {
	f.changes = append(f.changes, statusChange{orderID: o.ID, from: from, to: o.Status})
	return f.err
}
