package console

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"rmc-erp/internal/account"
	"rmc-erp/internal/apperr"
	"rmc-erp/internal/billing"
	"rmc-erp/internal/client"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/lifecycle"
	"rmc-erp/internal/quality"
	"rmc-erp/internal/tracking"
)

// RecentOrders is how many orders the customer dashboard lists.
const RecentOrders = 5

func requireCustomer(sess *Session) (Principal, error) {
	return sess.Require(entity.RoleCustomer)
}

// CustomerDashboard shows the customer's counters, latest orders and notifications.
type CustomerDashboard struct {
	*View
	api    *client.Client
	userID int64

	tally         lifecycle.Tally
	recent        []entity.Order
	notifications []entity.OrderEvent
}

func NewCustomerDashboard(ctx context.Context, sess *Session, api *client.Client) (*CustomerDashboard, error) {
	p, err := requireCustomer(sess)
	if err != nil {
		return nil, err
	}
	return &CustomerDashboard{View: newView(ctx), api: api, userID: p.UserID}, nil
}

type dashboardData struct {
	orders []entity.Order
	feed   []entity.OrderEvent
}

func (d *CustomerDashboard) Load() error {
	return load(d.View, func(ctx context.Context) (dashboardData, error) {
		orders, err := d.api.MyOrders(ctx, d.userID)
		if err != nil {
			return dashboardData{}, err
		}
		feed, err := d.api.Notifications(ctx, d.userID)
		if err != nil {
			return dashboardData{}, err
		}
		return dashboardData{orders: orders, feed: feed}, nil
	}, func(data dashboardData) {
		d.tally = lifecycle.Count(data.orders)
		d.recent = data.orders
		if len(d.recent) > RecentOrders {
			d.recent = d.recent[:RecentOrders]
		}
		d.notifications = data.feed
	})
}

func (d *CustomerDashboard) Tally() lifecycle.Tally {
	var t lifecycle.Tally
	d.withLock(func() { t = d.tally })
	return t
}

func (d *CustomerDashboard) Recent() []entity.Order {
	var out []entity.Order
	d.withLock(func() { out = append(out, d.recent...) })
	return out
}

// Notifications are newest first.
func (d *CustomerDashboard) Notifications() []entity.OrderEvent {
	var out []entity.OrderEvent
	d.withLock(func() { out = append(out, d.notifications...) })
	return out
}

// PurchaseForm is the order form as filled in by the customer.
type PurchaseForm struct {
	Grade        string
	Quantity     float64
	DeliveryDate time.Time
	Address      string
}

// Purchase validates the order form locally before placing the order.
type Purchase struct {
	api    *client.Client
	userID int64
}

func NewPurchase(sess *Session, api *client.Client) (*Purchase, error) {
	p, err := requireCustomer(sess)
	if err != nil {
		return nil, err
	}
	return &Purchase{api: api, userID: p.UserID}, nil
}

// Quote is the price shown while the form is edited.
func (p *Purchase) Quote(grade string, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return lifecycle.TotalPrice(grade, quantity, 0)
}

func knownGrade(grade string) bool {
	for _, g := range lifecycle.Grades() {
		if strings.EqualFold(g, strings.TrimSpace(grade)) {
			return true
		}
	}
	return false
}

func (p *Purchase) Submit(ctx context.Context, form PurchaseForm) (*client.CreatedOrder, error) {
	var delivery *entity.DateTime
	if !form.DeliveryDate.IsZero() {
		delivery = entity.NewDateTime(form.DeliveryDate)
	}
	in := lifecycle.NewOrderInput{
		Grade:        form.Grade,
		Quantity:     form.Quantity,
		DeliveryDate: delivery,
		Address:      form.Address,
		CustomerID:   p.userID,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !knownGrade(form.Grade) {
		return nil, apperr.Validation("Please select a valid grade")
	}
	return p.api.CreateOrder(ctx, client.CreateOrderRequest{
		Grade:        strings.ToUpper(strings.TrimSpace(form.Grade)),
		Quantity:     form.Quantity,
		DeliveryDate: delivery,
		Address:      strings.TrimSpace(form.Address),
		UserID:       p.userID,
	})
}

// Tracking shows the delivery pipeline of each customer order.
type Tracking struct {
	*View
	api    *client.Client
	userID int64

	cards []tracking.Tracking
}

func NewTracking(ctx context.Context, sess *Session, api *client.Client) (*Tracking, error) {
	p, err := requireCustomer(sess)
	if err != nil {
		return nil, err
	}
	return &Tracking{View: newView(ctx), api: api, userID: p.UserID}, nil
}

func (t *Tracking) Load() error {
	return load(t.View, func(ctx context.Context) ([]entity.Order, error) {
		return t.api.MyOrders(ctx, t.userID)
	}, func(orders []entity.Order) {
		t.cards = make([]tracking.Tracking, 0, len(orders))
		for _, o := range orders {
			t.cards = append(t.cards, tracking.Project(o))
		}
	})
}

func (t *Tracking) Cards() []tracking.Tracking {
	var out []tracking.Tracking
	t.withLock(func() { out = append(out, t.cards...) })
	return out
}

func (t *Tracking) Track(orderID string) (tracking.Tracking, error) {
	for _, card := range t.Cards() {
		if card.OrderID == orderID {
			return card, nil
		}
	}
	return tracking.Tracking{}, apperr.ErrOrderNotFound
}

type paymentAttempt struct {
	key    string
	amount float64
	method string
}

// Billing shows statements and records payments. A payment attempt keeps its
// idempotency key until it succeeds, so a retry of the same payment is recorded once.
type Billing struct {
	*View
	api    *client.Client
	userID int64
	now    func() time.Time

	statements []billing.Summary
	attempts   map[string]paymentAttempt
}

func NewBilling(ctx context.Context, sess *Session, api *client.Client) (*Billing, error) {
	p, err := requireCustomer(sess)
	if err != nil {
		return nil, err
	}
	return &Billing{
		View:     newView(ctx),
		api:      api,
		userID:   p.UserID,
		now:      time.Now,
		attempts: make(map[string]paymentAttempt),
	}, nil
}

func (b *Billing) Load() error {
	return load(b.View, func(ctx context.Context) ([]billing.Summary, error) {
		return b.api.Statements(ctx, b.userID)
	}, func(statements []billing.Summary) {
		b.statements = statements
	})
}

func (b *Billing) Statements() []billing.Summary {
	var out []billing.Summary
	b.withLock(func() { out = append(out, b.statements...) })
	return out
}

func (b *Billing) Statement(orderID string) (billing.Summary, error) {
	for _, s := range b.Statements() {
		if s.OrderID == orderID {
			return s, nil
		}
	}
	return billing.Summary{}, apperr.ErrOrderNotFound
}

// attemptKey returns the key of the unfinished attempt for the same payment, or a
// fresh one.
func (b *Billing) attemptKey(orderID string, amount float64, method string) string {
	var key string
	b.withLock(func() {
		prev, ok := b.attempts[orderID]
		if ok && prev.amount == amount && strings.EqualFold(prev.method, method) {
			key = prev.key
			return
		}
		key = ulid.Make().String()
		b.attempts[orderID] = paymentAttempt{key: key, amount: amount, method: method}
	})
	return key
}

// Pay validates the payment against the loaded statement and records it.
func (b *Billing) Pay(orderID string, amount float64, method string) (*client.PaymentResponse, error) {
	summary, err := b.Statement(orderID)
	if err != nil {
		return nil, err
	}
	if _, err := billing.RecordPayment(summary, amount, method, b.now()); err != nil {
		return nil, err
	}

	key := b.attemptKey(orderID, amount, method)
	res, err := b.api.RecordPayment(b.Context(), b.userID, orderID, key, client.PaymentRequest{
		Amount: amount,
		Method: strings.ToUpper(strings.TrimSpace(method)),
	})
	if err != nil {
		return nil, err
	}
	b.withLock(func() { delete(b.attempts, orderID) })
	if err := b.Load(); err != nil {
		return res, err
	}
	return res, nil
}

func (b *Billing) Invoice(orderID string) (string, error) {
	return b.api.Invoice(b.Context(), b.userID, orderID)
}

// Quality lists quality records. Certificates download only when the server marked
// them generated.
type Quality struct {
	*View
	api    *client.Client
	userID int64

	records []entity.QualityRecord
}

func NewQuality(ctx context.Context, sess *Session, api *client.Client) (*Quality, error) {
	p, err := requireCustomer(sess)
	if err != nil {
		return nil, err
	}
	return &Quality{View: newView(ctx), api: api, userID: p.UserID}, nil
}

func (q *Quality) Load() error {
	return load(q.View, func(ctx context.Context) ([]entity.QualityRecord, error) {
		return q.api.QualityRecords(ctx, q.userID)
	}, func(records []entity.QualityRecord) {
		q.records = records
	})
}

func (q *Quality) Records() []entity.QualityRecord {
	var out []entity.QualityRecord
	q.withLock(func() { out = append(out, q.records...) })
	return out
}

func (q *Quality) Download(orderID string) (string, error) {
	for _, rec := range q.Records() {
		if rec.OrderID != orderID {
			continue
		}
		if !quality.CanDownloadCertificate(rec) {
			return "", quality.ErrCertificateUnavailable
		}
		return q.api.Certificate(q.Context(), q.userID, orderID)
	}
	return "", quality.ErrCertificateUnavailable
}

// Profile edits the signed-in customer's contact details.
type Profile struct {
	*View
	api  *client.Client
	sess *Session

	profile client.Profile
}

func NewProfile(ctx context.Context, sess *Session, api *client.Client) (*Profile, error) {
	if _, ok := sess.Principal(); !ok {
		return nil, &apperr.AuthorizationError{Required: entity.RoleCustomer}
	}
	return &Profile{View: newView(ctx), api: api, sess: sess}, nil
}

func (p *Profile) Load() error {
	return load(p.View, func(ctx context.Context) (Principal, error) {
		return p.sess.RefreshProfile(ctx)
	}, func(pr Principal) {
		p.profile = client.Profile{ID: pr.UserID, Name: pr.Name, Email: pr.Email, Number: pr.Number, Address: pr.Address}
	})
}

func (p *Profile) Current() client.Profile {
	var out client.Profile
	p.withLock(func() { out = p.profile })
	return out
}

func (p *Profile) Save(update account.ProfileUpdate) (string, error) {
	if err := update.Validate(); err != nil {
		return "", err
	}
	principal, ok := p.sess.Principal()
	if !ok {
		return "", &apperr.AuthorizationError{Required: entity.RoleCustomer}
	}
	msg, err := p.api.UpdateProfile(p.Context(), principal.UserID, update.Normalize())
	if err != nil {
		return "", err
	}
	return msg, p.Load()
}
