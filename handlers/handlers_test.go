package handlers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"mediquick-backend/internal/auth"
	"mediquick-backend/internal/cart"
	"mediquick-backend/internal/chatbot"
	"mediquick-backend/internal/medicines"
	"mediquick-backend/internal/orders"
	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fakes -----------------------------------------------------------------

type fakeUsers struct {
	byID map[string]users.User
}

func (f *fakeUsers) Insert(_ context.Context, nu users.NewUser) (users.User, error) {
	return users.User{ID: "new", Name: nu.Name, Email: nu.Email, Role: auth.RoleUser}, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, email, _ string) (users.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrInvalidCredentials
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, _ users.UpdateProfile) (users.User, error) {
	return f.GetByID(context.Background(), id)
}

type fakeMedicines struct {
	byID map[string]medicines.Medicine
}

func (f *fakeMedicines) Insert(_ context.Context, nm medicines.NewMedicine) (medicines.Medicine, error) {
	return medicines.Medicine{ID: "m-new", Name: nm.Name}, nil
}

func (f *fakeMedicines) Update(_ context.Context, id string, _ medicines.UpdateMedicine) (medicines.Medicine, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakeMedicines) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeMedicines) GetByID(_ context.Context, id string) (medicines.Medicine, error) {
	m, ok := f.byID[id]
	if !ok {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return m, nil
}

func (f *fakeMedicines) GetCombined(_ context.Context, id string) (medicines.Combined, error) {
	m, err := f.GetByID(context.Background(), id)
	if err != nil {
		return medicines.Combined{}, err
	}
	return medicines.Combined{Medicine: m}, nil
}

func (f *fakeMedicines) List(_ context.Context, _ string, _, _ int) ([]medicines.Medicine, error) {
	return nil, nil
}

func (f *fakeMedicines) Inventory(_ context.Context) ([]medicines.Medicine, error) {
	return nil, nil
}

func (f *fakeMedicines) LowStock(_ context.Context, _ int) ([]medicines.Medicine, error) {
	return nil, nil
}

func (f *fakeMedicines) Restock(_ context.Context, id string, _ int) (medicines.Medicine, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakeMedicines) SetStock(_ context.Context, id string, _ int) (medicines.Medicine, error) {
	return f.GetByID(context.Background(), id)
}

type fakeCarts struct {
	carts   map[string]cart.Cart
	cleared []string
	getErr  error
}

func (f *fakeCarts) Get(_ context.Context, userID string) (cart.Cart, error) {
	if f.getErr != nil {
		return cart.Cart{}, f.getErr
	}
	c, ok := f.carts[userID]
	if !ok {
		return cart.Cart{UserID: userID}, nil
	}
	return c, nil
}

func (f *fakeCarts) Save(_ context.Context, c cart.Cart) error {
	if f.carts == nil {
		f.carts = map[string]cart.Cart{}
	}
	f.carts[c.UserID] = c
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	delete(f.carts, userID)
	return nil
}

type fakeOrders struct {
	placed   []orders.PlacedOrder
	placeErr error
}

func (f *fakeOrders) PlaceOrder(_ context.Context, po orders.PlacedOrder) error {
	if f.placeErr != nil {
		return f.placeErr
	}
	f.placed = append(f.placed, po)
	return nil
}

func (f *fakeOrders) ListUserOrders(_ context.Context, _ string) ([]orders.UserOrder, error) {
	return nil, nil
}

type fakeChats struct {
	appended []chatbot.Exchange
}

func (f *fakeChats) Append(_ context.Context, ex chatbot.Exchange) error {
	f.appended = append(f.appended, ex)
	return nil
}

func (f *fakeChats) History(_ context.Context, sessionID string) ([]chatbot.Exchange, error) {
	var out []chatbot.Exchange
	for _, ex := range f.appended {
		if ex.SessionID == sessionID {
			out = append(out, ex)
		}
	}
	return out, nil
}

type fakeGateway struct {
	session   payments.Session
	createErr error
	createReq payments.CheckoutRequest

	event     stripe.Event
	verifyErr error
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (payments.Session, error) {
	f.createReq = req
	if f.createErr != nil {
		return payments.Session{}, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) VerifyEvent(_ []byte, _ string) (stripe.Event, error) {
	if f.verifyErr != nil {
		return stripe.Event{}, f.verifyErr
	}
	return f.event, nil
}

type fakeProducer struct {
	topics []string
	keys   [][]byte
	values [][]byte
}

func (f *fakeProducer) ProduceMessage(_ context.Context, topic string, key, value []byte) error {
	f.topics = append(f.topics, topic)
	f.keys = append(f.keys, key)
	f.values = append(f.values, value)
	return nil
}

// --- harness ---------------------------------------------------------------

type harness struct {
	engine   *gin.Engine
	keys     *auth.Keys
	users    *fakeUsers
	meds     *fakeMedicines
	carts    *fakeCarts
	orders   *fakeOrders
	chats    *fakeChats
	gateway  *fakeGateway
	producer *fakeProducer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys := auth.NewKeysFromPair(privateKey)

	h := &harness{
		keys:     keys,
		users:    &fakeUsers{byID: map[string]users.User{}},
		meds:     &fakeMedicines{byID: map[string]medicines.Medicine{}},
		carts:    &fakeCarts{carts: map[string]cart.Cart{}},
		orders:   &fakeOrders{},
		chats:    &fakeChats{},
		gateway:  &fakeGateway{},
		producer: &fakeProducer{},
	}

	engine, err := API(Config{
		Users:     h.users,
		Medicines: h.meds,
		Carts:     h.carts,
		Orders:    h.orders,
		Chats:     h.chats,
		Gateway:   h.gateway,
		Producer:  h.producer,
		Keys:      keys,
	})
	require.NoError(t, err)
	h.engine = engine
	return h
}

func (h *harness) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{auth.RoleUser}
	}
	token, err := h.keys.GenerateToken(userID, roles, time.Hour)
	require.NoError(t, err)
	return token
}

// completedEvent builds the stripe event shape the webhook handler decodes.
func completedEvent(t *testing.T, sessionID, userID string, items []payments.LineItem, totalPaise int64, email string) stripe.Event {
	t.Helper()

	cartJSON, err := json.Marshal(items)
	require.NoError(t, err)

	session := map[string]any{
		"id": sessionID,
		"metadata": map[string]string{
			"user_id":            userID,
			"cart":               string(cartJSON),
			"total_amount_paise": fmt.Sprintf("%d", totalPaise),
		},
	}
	if email != "" {
		session["customer_details"] = map[string]string{"email": email}
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)

	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}
