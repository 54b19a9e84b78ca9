// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
)

var ErrOrderInvalidInput = errors.New("order: email and items are required")

// OrderUsecase places confirmed orders. Placing an order is the completion
// event the reconciliation core watches for: it clears the cart session and
// completes the matching pending checkout, and mirrors the order into the
// reporting database.
type OrderUsecase struct {
	orders    orderdom.Repository
	archive   orderdom.ArchiveRepository
	carts     cartdom.Repository
	checkouts checkoutdom.Repository
	discounts *DiscountUsecase
	mailer    Dispatcher
	now       func() time.Time
}

func NewOrderUsecase(
	orders orderdom.Repository,
	archive orderdom.ArchiveRepository,
	carts cartdom.Repository,
	checkouts checkoutdom.Repository,
	discounts *DiscountUsecase,
	mailer Dispatcher,
) *OrderUsecase {
	return &OrderUsecase{
		orders:    orders,
		archive:   archive,
		carts:     carts,
		checkouts: checkouts,
		discounts: discounts,
		mailer:    mailer,
		now:       time.Now,
	}
}

type PlaceOrderInput struct {
	Email         string
	OwnerID       string // cart session owner, if the customer was signed in
	Items         []cartdom.LineItem
	Currency      string
	DiscountCode  string
	CheckoutToken string // recovery token, when the order came through a recovered checkout
}

// PlaceOrder creates the order, applies an optional discount code, and
// reconciles the surrounding lifecycle records. Reconciliation steps are
// best-effort: the paid order is never rolled back over them.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*orderdom.Order, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || len(in.Items) == 0 {
		return nil, ErrOrderInvalidInput
	}

	now := u.now()

	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}

	appliedCode := ""
	if cd := strings.TrimSpace(in.DiscountCode); cd != "" && u.discounts != nil {
		code, err := u.discounts.Redeem(ctx, cd)
		if err != nil {
			// AlreadyUsed / Expired / NotFound surface to the caller: the
			// customer expects the discount they typed in.
			return nil, err
		}
		appliedCode = code.Code
		factor := decimal.NewFromInt(int64(100 - code.Percent)).Div(decimal.NewFromInt(100))
		total = total.Mul(factor).Round(2)
	}

	o, err := orderdom.New(uuid.NewString(), buildOrderNumber(now), email, in.OwnerID, in.Items, total, in.Currency, now)
	if err != nil {
		return nil, err
	}
	o.DiscountCode = appliedCode
	o.CheckoutToken = strings.TrimSpace(in.CheckoutToken)

	if err := u.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("order: create: %w", err)
	}

	u.reconcile(ctx, o, now)

	if u.archive != nil {
		if err := u.archive.Archive(ctx, o); err != nil {
			log.Printf("[order_uc] WARN: archive failed orderId=%s err=%v", o.ID, err)
		}
	}

	if u.mailer != nil {
		res := u.mailer.Send(ctx, MailOrderConfirmation, email, map[string]any{
			"orderNumber": o.OrderNumber,
			"items":       o.Items,
			"total":       o.Total.StringFixed(2),
			"currency":    o.Currency,
		})
		if !res.Success {
			log.Printf("[order_uc] WARN: confirmation mail failed orderId=%s err=%s", o.ID, res.Err)
		}
	}

	log.Printf("[order_uc] placed orderId=%s number=%s email=%s total=%s", o.ID, o.OrderNumber, email, o.Total.StringFixed(2))
	return o, nil
}

func (u *OrderUsecase) Get(ctx context.Context, id string) (*orderdom.Order, error) {
	return u.orders.GetByID(ctx, strings.TrimSpace(id))
}

func (u *OrderUsecase) ListByEmail(ctx context.Context, email string) ([]*orderdom.Order, error) {
	return u.orders.ListByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// reconcile closes out the lifecycle records the new order supersedes.
func (u *OrderUsecase) reconcile(ctx context.Context, o *orderdom.Order, now time.Time) {
	if u.carts != nil && o.OwnerID != "" {
		if err := u.carts.Clear(ctx, o.OwnerID, now); err != nil {
			log.Printf("[order_uc] WARN: cart clear failed owner=%s err=%v", o.OwnerID, err)
		}
	}

	if u.checkouts == nil {
		return
	}

	token := o.CheckoutToken
	if token == "" {
		// No token supplied: close the live pending checkout for this email.
		c, err := u.checkouts.FindPendingByEmail(ctx, o.Email)
		if err != nil {
			if !errors.Is(err, lifecycle.ErrNotFound) {
				log.Printf("[order_uc] WARN: pending checkout lookup failed email=%s err=%v", o.Email, err)
			}
			return
		}
		token = c.ID
	}
	if err := u.checkouts.Complete(ctx, token); err != nil {
		log.Printf("[order_uc] WARN: checkout complete failed token=%s err=%v", token, err)
	}
}

func buildOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("VN-%s-%s", now.UTC().Format("20060102"), suffix)
}
