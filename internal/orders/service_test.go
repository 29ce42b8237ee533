package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPlaceOrderAssemblesFullGraph(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	apples := seedProduct(t, db, "Apples", "10.00", "50")
	dates := seedProduct(t, db, "Dates", "7.333", "50")
	user := seedUser(t, db, "0599000001", true)

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor: Actor{UserID: &user.ID},
		Items: []ItemInput{
			{ProductID: apples.ID, Quantity: dec("2")},
			{ProductID: dates.ID, Quantity: dec("3")},
		},
		Address: explicitAddress(),
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	// per-line rounding then sum: 20.00 + 22.00
	assert.True(t, dec("42.00").Equal(order.TotalProductsPrice))
	// 42 is under the 50 threshold of the region
	assert.True(t, dec("20").Equal(order.ShippingFees))
	assert.True(t, decimal.Zero.Equal(order.DiscountAmount))
	assert.True(t, dec("62.00").Equal(order.FinalTotal))

	assert.Equal(t, enums.OrderStatusCreated, order.Status)
	require.NotNil(t, order.UserID)
	assert.Equal(t, user.ID, *order.UserID)
	assert.Nil(t, order.GuestID)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Apples", order.Items[0].ProductName)
	assert.True(t, dec("10.00").Equal(order.Items[0].PriceAtPurchase))

	require.NotNil(t, order.Payment)
	assert.Equal(t, enums.PaymentMethodCashOnDelivery, order.Payment.Method)
	assert.Equal(t, enums.PaymentStatusPending, order.Payment.Status)
	assert.True(t, dec("62.00").Equal(order.Payment.Amount))

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, enums.OrderStatusCreated, history[0].NewStatus)

	assert.True(t, dec("48").Equal(stockOf(t, db, apples.ID)))
	assert.True(t, dec("47").Equal(stockOf(t, db, dates.ID)))
}

func TestPlaceOrderClearsRegisteredUserCart(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Olives", "12.00", "10")
	user := seedUser(t, db, "0599000002", true)

	cart := &models.Cart{ID: uuid.New(), UserID: user.ID}
	require.NoError(t, db.Create(cart).Error)
	require.NoError(t, db.Create(&models.CartItem{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  dec("2"),
	}).Error)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{UserID: &user.ID},
		Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("2")}},
		Address: explicitAddress(),
	})
	require.NoError(t, err)

	var itemCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	// the cart row itself survives
	var cartCount int64
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", cart.ID).Count(&cartCount).Error)
	assert.EqualValues(t, 1, cartCount)
}

// Two sequential orders racing for the same stock: the conditional
// decrement admits exactly as many as there is stock for.
func TestPlaceOrderLastUnitsGoToOneBuyer(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Zaatar", "15.00", "5")
	first := seedUser(t, db, "0599000003", true)
	second := seedUser(t, db, "0599000004", true)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{UserID: &first.ID},
		Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("3")}},
		Address: explicitAddress(),
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{UserID: &second.ID},
		Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("3")}},
		Address: explicitAddress(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	assert.True(t, dec("2").Equal(stockOf(t, db, product.ID)))

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)
}

// Same race driven from two goroutines calling PlaceOrder at once. The
// loser may surface a lock error instead of the stock conflict under
// sqlite, but exactly one order ever holds the last units.
func TestPlaceOrderConcurrentBuyersGetOneWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Sumac", "12.00", "5")
	first := seedUser(t, db, "0599000024", true)
	second := seedUser(t, db, "0599000025", true)

	errs := make(chan error, 2)
	for _, buyerID := range []uuid.UUID{first.ID, second.ID} {
		buyerID := buyerID
		go func() {
			_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
				Actor:   Actor{UserID: &buyerID},
				Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("3")}},
				Address: explicitAddress(),
			})
			errs <- err
		}()
	}

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failures++
		}
	}
	require.Equal(t, 1, failures)

	assert.True(t, dec("2").Equal(stockOf(t, db, product.ID)))

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Mint", "3.00", "3")
	user := seedUser(t, db, "0599000005", true)

	// split 2+2 must be checked as 4 against stock of 3
	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor: Actor{UserID: &user.ID},
		Items: []ItemInput{
			{ProductID: product.ID, Quantity: dec("2")},
			{ProductID: product.ID, Quantity: dec("2")},
		},
		Address: explicitAddress(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.True(t, dec("3").Equal(stockOf(t, db, product.ID)))
}

func TestPlaceOrderRollsBackOnPartialFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	plenty := seedProduct(t, db, "Bread", "2.00", "100")
	scarce := seedProduct(t, db, "Saffron", "90.00", "1")
	user := seedUser(t, db, "0599000006", true)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor: Actor{UserID: &user.ID},
		Items: []ItemInput{
			{ProductID: plenty.ID, Quantity: dec("5")},
			{ProductID: scarce.ID, Quantity: dec("2")},
		},
		Address: explicitAddress(),
	})
	require.Error(t, err)

	// nothing committed: no order, no payment, no stock movement
	var orderCount, paymentCount, txnCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.Payment{}).Count(&paymentCount).Error)
	require.NoError(t, db.Model(&models.StockTransaction{}).Count(&txnCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, paymentCount)
	assert.Zero(t, txnCount)
	assert.True(t, dec("100").Equal(stockOf(t, db, plenty.ID)))
	assert.True(t, dec("1").Equal(stockOf(t, db, scarce.ID)))
}

func TestPlaceOrderValidation(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	user := seedUser(t, db, "0599000007", true)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{UserID: &user.ID},
		Items:   nil,
		Address: explicitAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	product := seedProduct(t, db, "Thyme", "4.00", "10")
	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor: Actor{UserID: &user.ID},
		Items: []ItemInput{{ProductID: product.ID, Quantity: dec("1")}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{UserID: &user.ID},
		Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("0")}},
		Address: explicitAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPlaceOrderRejectsForeignSavedAddress(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Labneh", "8.00", "10")
	owner := seedUser(t, db, "0599000008", true)
	caller := seedUser(t, db, "0599000009", true)

	address := &models.Address{
		ID:        uuid.New(),
		UserID:    owner.ID,
		FirstName: "Rana",
		LastName:  "Odeh",
		City:      "طولكرم",
		Region:    "عتيل - عتيل",
		Street:    "Souq St 2",
		Phone:     "0599000008",
	}
	require.NoError(t, db.Create(address).Error)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:     Actor{UserID: &caller.ID},
		Items:     []ItemInput{{ProductID: product.ID, Quantity: dec("1")}},
		AddressID: &address.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestPlaceOrderUsesSavedAddressSnapshot(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Halloumi", "25.00", "10")
	user := seedUser(t, db, "0599000010", true)

	address := &models.Address{
		ID:        uuid.New(),
		UserID:    user.ID,
		FirstName: "Lina",
		LastName:  "Khalil",
		City:      "طولكرم",
		Region:    "دير الغصون - دير الغصون",
		Street:    "Hill Rd 9",
		Phone:     "0599000010",
	}
	require.NoError(t, db.Create(address).Error)

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:     Actor{UserID: &user.ID},
		Items:     []ItemInput{{ProductID: product.ID, Quantity: dec("2")}},
		AddressID: &address.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "دير الغصون - دير الغصون", order.ShippingRegion)
	assert.Equal(t, "Hill Rd 9", order.ShippingStreet)
	// 50 is above the region's 30 threshold
	assert.True(t, decimal.Zero.Equal(order.ShippingFees))
	assert.True(t, dec("50.00").Equal(order.FinalTotal))

	// editing the address later must not touch the order snapshot
	require.NoError(t, db.Model(&models.Address{}).Where("id = ?", address.ID).Update("street", "New St 1").Error)
	reloaded, err := svc.GetOwnOrder(ctx, order.ID, Actor{UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hill Rd 9", reloaded.ShippingStreet)
}

func TestPlaceOrderGuestSwitchesToVerifiedUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Figs", "18.00", "10")
	user := seedUser(t, db, "0599000011", true)
	guest := seedGuest(t, db)

	phone := "0599000011"
	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{GuestID: &guest.ID},
		Phone:   &phone,
		Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("1")}},
		Address: explicitAddress(),
	})
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, user.ID, *order.UserID)
	assert.Nil(t, order.GuestID)
}

func TestPlaceOrderRejectsAmbiguousActor(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Grapes", "9.00", "10")
	user := seedUser(t, db, "0599000012", true)
	guest := seedGuest(t, db)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor:   Actor{UserID: &user.ID, GuestID: &guest.ID},
		Items:   []ItemInput{{ProductID: product.ID, Quantity: dec("1")}},
		Address: explicitAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func placeSimpleOrder(t *testing.T, svc Service, userID uuid.UUID, productID uuid.UUID, qty string) *models.Order {
	t.Helper()

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Actor:   Actor{UserID: &userID},
		Items:   []ItemInput{{ProductID: productID, Quantity: dec(qty)}},
		Address: explicitAddress(),
	})
	require.NoError(t, err)
	return order
}

func TestCancelRestoresStockAndPayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Tomatoes", "5.00", "10")
	user := seedUser(t, db, "0599000013", true)
	order := placeSimpleOrder(t, svc, user.ID, product.ID, "4")
	require.True(t, dec("6").Equal(stockOf(t, db, product.ID)))

	cancelled, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	// stock back to its pre-order value
	assert.True(t, dec("10").Equal(stockOf(t, db, product.ID)))

	var payment models.Payment
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, enums.PaymentStatusCancelled, payment.Status)

	var txns []models.StockTransaction
	require.NoError(t, db.Where("product_id = ?", product.ID).Order("created_at ASC").Find(&txns).Error)
	require.Len(t, txns, 2)
	assert.Equal(t, enums.StockReasonPurchase, txns[0].Reason)
	assert.Equal(t, enums.StockReasonCancellation, txns[1].Reason)
	assert.True(t, txns[0].QuantityChange.Neg().Equal(txns[1].QuantityChange))
}

func TestDeliverStampsTimeAndCompletesPayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Cheese", "30.00", "10")
	user := seedUser(t, db, "0599000014", true)
	order := placeSimpleOrder(t, svc, user.ID, product.ID, "1")

	_, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	delivered, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	var payment models.Payment
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("created_at ASC").Find(&history).Error)
	// created, shipped, delivered
	require.Len(t, history, 3)
	assert.Equal(t, enums.OrderStatusDelivered, history[2].NewStatus)
	require.NotNil(t, history[2].OldStatus)
	assert.Equal(t, enums.OrderStatusShipped, *history[2].OldStatus)
}

func TestIllegalTransitionsAreRejected(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Oil", "45.00", "10")
	user := seedUser(t, db, "0599000015", true)
	order := placeSimpleOrder(t, svc, user.ID, product.ID, "1")

	_, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)

	// delivered is terminal
	_, err = svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Contains(t, appErr.Message(), "delivered")
	assert.Contains(t, appErr.Message(), "shipped")

	// cancelled is terminal too
	other := placeSimpleOrder(t, svc, user.ID, product.ID, "1")
	_, err = svc.ChangeStatus(ctx, other.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, other.ID, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCustomerCancelOnlyFromCreated(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Dates", "22.00", "10")
	user := seedUser(t, db, "0599000016", true)
	order := placeSimpleOrder(t, svc, user.ID, product.ID, "2")

	cancelled, err := svc.CancelOwnOrder(ctx, order.ID, Actor{UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.True(t, dec("10").Equal(stockOf(t, db, product.ID)))

	confirmed := placeSimpleOrder(t, svc, user.ID, product.ID, "1")
	_, err = svc.ChangeStatus(ctx, confirmed.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = svc.CancelOwnOrder(ctx, confirmed.ID, Actor{UserID: &user.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCancelOwnOrderHidesForeignOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Lemons", "6.00", "10")
	owner := seedUser(t, db, "0599000017", true)
	stranger := seedUser(t, db, "0599000018", true)
	order := placeSimpleOrder(t, svc, owner.ID, product.ID, "1")

	_, err := svc.CancelOwnOrder(ctx, order.ID, Actor{UserID: &stranger.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestInvoiceByPhone(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Honey", "35.00", "10")
	guest := seedGuest(t, db)

	phone := "0599000019"
	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		Actor: Actor{GuestID: &guest.ID},
		Phone: &phone,
		Items: []ItemInput{{ProductID: product.ID, Quantity: dec("1")}},
		Address: &ShippingAddressInput{
			FirstName: "Samir",
			LastName:  "Nasser",
			City:      "طولكرم",
			Region:    "عتيل - عتيل",
			Street:    "Olive Rd 3",
			Phone:     phone,
		},
	})
	require.NoError(t, err)

	found, err := svc.InvoiceByPhone(ctx, order.ID, phone)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.InvoiceByPhone(ctx, order.ID, "0599999999")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetOwnOrderEnforcesOwnership(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Cucumbers", "4.00", "10")
	owner := seedUser(t, db, "0599000020", true)
	stranger := seedUser(t, db, "0599000021", true)
	order := placeSimpleOrder(t, svc, owner.ID, product.ID, "1")

	found, err := svc.GetOwnOrder(ctx, order.ID, Actor{UserID: &owner.ID})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetOwnOrder(ctx, order.ID, Actor{UserID: &stranger.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListOwnSeparatesOwners(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Parsley", "2.00", "50")
	first := seedUser(t, db, "0599000022", true)
	second := seedUser(t, db, "0599000023", true)
	placeSimpleOrder(t, svc, first.ID, product.ID, "1")
	placeSimpleOrder(t, svc, first.ID, product.ID, "2")
	placeSimpleOrder(t, svc, second.ID, product.ID, "1")

	mine, err := svc.ListOwn(ctx, Actor{UserID: &first.ID}, paginationParams(10))
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := svc.ListOwn(ctx, Actor{UserID: &second.ID}, paginationParams(10))
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
