// internal/application/usecase/fakes_test.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
	subdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/subscriber"
	userdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/user"

	ddom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/discount"
)

// ----------------------------
// clock
// ----------------------------

// testClock is a settable clock shared between a usecase and its gate, so a
// test moves one clock and every sentAt / eligibility check moves with it.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// ----------------------------
// dispatcher
// ----------------------------

type sentMail struct {
	Kind MailKind
	To   string
	Data map[string]any
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []sentMail
	fail  bool
	calls int
}

func (d *fakeDispatcher) Send(_ context.Context, kind MailKind, to string, data map[string]any) DispatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail {
		return DispatchResult{Err: "smtp unavailable"}
	}
	d.sent = append(d.sent, sentMail{Kind: kind, To: to, Data: data})
	return DispatchResult{Success: true, MessageID: "msg-1"}
}

func (d *fakeDispatcher) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func (d *fakeDispatcher) sentTo(i int) sentMail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent[i]
}

// ----------------------------
// cart sessions
// ----------------------------

type fakeCartRepo struct {
	mu       sync.Mutex
	sessions map[string]*cartdom.Session

	// onList, when set, runs after a listing snapshot is taken. Used to
	// simulate user activity racing the sweep.
	onList func()
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{sessions: map[string]*cartdom.Session{}}
}

func cloneSession(s *cartdom.Session) *cartdom.Session {
	cp := *s
	cp.Items = append([]cartdom.LineItem(nil), s.Items...)
	if s.NotifiedAt != nil {
		t := *s.NotifiedAt
		cp.NotifiedAt = &t
	}
	return &cp
}

func (r *fakeCartRepo) GetByOwnerID(_ context.Context, ownerID string) (*cartdom.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *fakeCartRepo) Upsert(_ context.Context, s *cartdom.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.OwnerID] = cloneSession(s)
	return nil
}

func (r *fakeCartRepo) ListAbandonmentCandidates(_ context.Context, cutoff time.Time) ([]*cartdom.Session, error) {
	r.mu.Lock()
	var out []*cartdom.Session
	for _, s := range r.sessions {
		if len(s.Items) == 0 || s.NotifiedAt != nil {
			continue
		}
		if s.UpdatedAt.After(cutoff) {
			continue
		}
		out = append(out, cloneSession(s))
	}
	r.mu.Unlock()
	if r.onList != nil {
		r.onList()
	}
	return out, nil
}

func (r *fakeCartRepo) MarkNotified(_ context.Context, ownerID string, lastSeenActivity, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if s.NotifiedAt != nil || !s.UpdatedAt.Equal(lastSeenActivity) {
		return lifecycle.ErrConflictSkipped
	}
	t := sentAt.UTC()
	s.NotifiedAt = &t
	return nil
}

func (r *fakeCartRepo) Clear(_ context.Context, ownerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok {
		return nil
	}
	s.Items = []cartdom.LineItem{}
	s.UpdatedAt = now.UTC()
	s.NotifiedAt = nil
	return nil
}

// ----------------------------
// checkouts
// ----------------------------

type fakeCheckoutRepo struct {
	mu        sync.Mutex
	checkouts map[string]*checkoutdom.Checkout
}

func newFakeCheckoutRepo() *fakeCheckoutRepo {
	return &fakeCheckoutRepo{checkouts: map[string]*checkoutdom.Checkout{}}
}

func cloneCheckout(c *checkoutdom.Checkout) *checkoutdom.Checkout {
	cp := *c
	cp.Items = append([]cartdom.LineItem(nil), c.Items...)
	if c.Customer != nil {
		cust := *c.Customer
		cp.Customer = &cust
	}
	return &cp
}

func (r *fakeCheckoutRepo) GetByToken(_ context.Context, token string) (*checkoutdom.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[token]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return cloneCheckout(c), nil
}

func (r *fakeCheckoutRepo) FindPendingByEmail(_ context.Context, email string) (*checkoutdom.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.checkouts {
		if c.Email == email && c.Status == lifecycle.StatusPending {
			return cloneCheckout(c), nil
		}
	}
	return nil, lifecycle.ErrNotFound
}

func (r *fakeCheckoutRepo) Create(_ context.Context, c *checkoutdom.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checkouts[c.ID]; ok {
		return errors.New("fake: checkout exists")
	}
	r.checkouts[c.ID] = cloneCheckout(c)
	return nil
}

func (r *fakeCheckoutRepo) Save(_ context.Context, c *checkoutdom.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkouts[c.ID] = cloneCheckout(c)
	return nil
}

func (r *fakeCheckoutRepo) ListAbandonmentCandidates(_ context.Context, cutoff time.Time) ([]*checkoutdom.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*checkoutdom.Checkout
	for _, c := range r.checkouts {
		if c.Status != lifecycle.StatusPending || c.EmailSent {
			continue
		}
		if c.LastActivityAt.After(cutoff) {
			continue
		}
		out = append(out, cloneCheckout(c))
	}
	return out, nil
}

func (r *fakeCheckoutRepo) MarkEmailSent(_ context.Context, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[token]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if c.EmailSent || c.Status.Terminal() {
		return lifecycle.ErrConflictSkipped
	}
	c.EmailSent = true
	return nil
}

func (r *fakeCheckoutRepo) Recover(_ context.Context, token string, now time.Time) (*checkoutdom.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[token]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	if err := c.Recover(now); err != nil {
		return nil, err
	}
	return cloneCheckout(c), nil
}

func (r *fakeCheckoutRepo) Complete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[token]
	if !ok {
		return lifecycle.ErrNotFound
	}
	return c.Complete()
}

// ----------------------------
// payment failures
// ----------------------------

type fakePaymentFailureRepo struct {
	mu      sync.Mutex
	records map[string]*pfdom.Record
}

func newFakePaymentFailureRepo() *fakePaymentFailureRepo {
	return &fakePaymentFailureRepo{records: map[string]*pfdom.Record{}}
}

func cloneRecord(r *pfdom.Record) *pfdom.Record {
	cp := *r
	return &cp
}

func (f *fakePaymentFailureRepo) GetByToken(_ context.Context, token string) (*pfdom.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[token]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (f *fakePaymentFailureRepo) FindPendingByOrderID(_ context.Context, orderID string) (*pfdom.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.OrderID == orderID && r.Status == lifecycle.StatusPending {
			return cloneRecord(r), nil
		}
	}
	return nil, lifecycle.ErrNotFound
}

func (f *fakePaymentFailureRepo) Create(_ context.Context, r *pfdom.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.RetryToken] = cloneRecord(r)
	return nil
}

func (f *fakePaymentFailureRepo) Save(_ context.Context, r *pfdom.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.RetryToken] = cloneRecord(r)
	return nil
}

func (f *fakePaymentFailureRepo) ListRetryCandidates(_ context.Context, cutoff time.Time) ([]*pfdom.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*pfdom.Record
	for _, r := range f.records {
		if r.Status != lifecycle.StatusPending || r.EmailSent {
			continue
		}
		if r.LastActivityAt.After(cutoff) {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (f *fakePaymentFailureRepo) MarkEmailSent(_ context.Context, token string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[token]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if r.EmailSent || r.Status.Terminal() {
		return lifecycle.ErrConflictSkipped
	}
	r.EmailSent = true
	return nil
}

func (f *fakePaymentFailureRepo) Recover(_ context.Context, token string, now time.Time) (*pfdom.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[token]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	if err := r.Recover(now); err != nil {
		return nil, err
	}
	return cloneRecord(r), nil
}

func (f *fakePaymentFailureRepo) Complete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[token]
	if !ok {
		return lifecycle.ErrNotFound
	}
	return r.Complete()
}

// ----------------------------
// discounts
// ----------------------------

type fakeDiscountRepo struct {
	mu    sync.Mutex
	codes map[string]*ddom.Code // key: email
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{codes: map[string]*ddom.Code{}}
}

func cloneCode(c *ddom.Code) *ddom.Code {
	cp := *c
	if c.UsedAt != nil {
		t := *c.UsedAt
		cp.UsedAt = &t
	}
	return &cp
}

func (f *fakeDiscountRepo) GetByEmail(_ context.Context, email string) (*ddom.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[email]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return cloneCode(c), nil
}

func (f *fakeDiscountRepo) GetByCode(_ context.Context, code string) (*ddom.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Code == code {
			return cloneCode(c), nil
		}
	}
	return nil, lifecycle.ErrNotFound
}

func (f *fakeDiscountRepo) Create(_ context.Context, c *ddom.Code) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.codes[c.Email]; ok {
		return errors.New("fake: code exists for email")
	}
	f.codes[c.Email] = cloneCode(c)
	return nil
}

func (f *fakeDiscountRepo) ListReminderCandidates(_ context.Context, issuedCutoff, now time.Time) ([]*ddom.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ddom.Code
	for _, c := range f.codes {
		if c.Used || c.ReminderSent {
			continue
		}
		if c.IssuedAt.After(issuedCutoff) {
			continue
		}
		if !now.Before(c.ExpiresAt) {
			continue
		}
		out = append(out, cloneCode(c))
	}
	return out, nil
}

func (f *fakeDiscountRepo) MarkReminderSent(_ context.Context, email string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[email]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if c.ReminderSent || c.Used || c.IsExpired(now) {
		return lifecycle.ErrConflictSkipped
	}
	c.ReminderSent = true
	return nil
}

func (f *fakeDiscountRepo) Redeem(_ context.Context, code string, now time.Time) (*ddom.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Code != code {
			continue
		}
		if err := c.Redeem(now); err != nil {
			return nil, err
		}
		return cloneCode(c), nil
	}
	return nil, lifecycle.ErrNotFound
}

func (f *fakeDiscountRepo) MarkExpired(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.codes {
		if c.Used || c.Expired {
			continue
		}
		if c.IsExpired(now) {
			c.Expired = true
			n++
		}
	}
	return n, nil
}

// ----------------------------
// orders
// ----------------------------

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*orderdom.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*orderdom.Order{}}
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*orderdom.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, orderdom.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Create(_ context.Context, o *orderdom.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) ListByEmail(_ context.Context, email string) ([]*orderdom.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*orderdom.Order
	for _, o := range f.orders {
		if o.Email == email {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ExistsForEmailSince(_ context.Context, email string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.Email == email && o.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeArchiveRepo struct {
	mu       sync.Mutex
	archived []string
	fail     bool
}

func (f *fakeArchiveRepo) Archive(_ context.Context, o *orderdom.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("fake: archive down")
	}
	f.archived = append(f.archived, o.ID)
	return nil
}

// ----------------------------
// subscribers
// ----------------------------

type fakeSubscriberRepo struct {
	mu   sync.Mutex
	subs map[string]*subdom.Subscriber
}

func newFakeSubscriberRepo() *fakeSubscriberRepo {
	return &fakeSubscriberRepo{subs: map[string]*subdom.Subscriber{}}
}

func (f *fakeSubscriberRepo) GetByEmail(_ context.Context, email string) (*subdom.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[email]
	if !ok {
		return nil, subdom.ErrNotFound
	}
	cp := *s
	if s.UnsubscribedAt != nil {
		t := *s.UnsubscribedAt
		cp.UnsubscribedAt = &t
	}
	return &cp, nil
}

func (f *fakeSubscriberRepo) Upsert(_ context.Context, s *subdom.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.subs[s.Email] = &cp
	return nil
}

// ----------------------------
// users
// ----------------------------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*userdom.User // key: id
	errOn string                   // GetByID for this id fails
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*userdom.User{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*userdom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errOn != "" && id == f.errOn {
		return nil, errors.New("fake: user store down")
	}
	u, ok := f.users[id]
	if !ok {
		return nil, userdom.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*userdom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userdom.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, u *userdom.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Save(_ context.Context, u *userdom.User) error {
	return f.Create(context.Background(), u)
}
