// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/ErnestIssa/vornify-server-sub000/internal/adapters/in/http/handlers"
	"github.com/ErnestIssa/vornify-server-sub000/internal/adapters/in/http/middleware"
	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
)

// RouterDeps collects the usecases (and the one repository the cart handler
// reads directly) injected from main.
type RouterDeps struct {
	ActivityUC   *usecase.ActivityUsecase
	RecoveryUC   *usecase.RecoveryUsecase
	SweepUC      *usecase.SweepUsecase
	DiscountUC   *usecase.DiscountUsecase
	NewsletterUC *usecase.NewsletterUsecase
	ProductUC    *usecase.ProductUsecase
	OrderUC      *usecase.OrderUsecase
	AuthUC       *usecase.AuthUsecase
	PaymentUC    *usecase.PaymentUsecase

	CartRepo cartdom.Repository

	// AllowedOrigin overrides the storefront origin for CORS.
	AllowedOrigin string
}

// NewRouter sets up HTTP routing for all storefront endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Mount only what has its usecase wired.
	if deps.ActivityUC != nil && deps.CartRepo != nil {
		mux.Handle("/cart/", handlers.NewCartHandler(deps.ActivityUC, deps.CartRepo))
	}

	if deps.ActivityUC != nil {
		mux.Handle("/checkout/", handlers.NewCheckoutHandler(deps.ActivityUC))
	}

	if deps.RecoveryUC != nil {
		mux.Handle("/recover/", handlers.NewRecoveryHandler(deps.RecoveryUC))
	}

	if deps.DiscountUC != nil {
		mux.Handle("/discounts/", handlers.NewDiscountHandler(deps.DiscountUC))
	}

	if deps.NewsletterUC != nil {
		mux.Handle("/newsletter/", handlers.NewNewsletterHandler(deps.NewsletterUC))
	}

	if deps.ProductUC != nil {
		mux.Handle("/products", handlers.NewProductHandler(deps.ProductUC))
		mux.Handle("/products/", handlers.NewProductHandler(deps.ProductUC))
	}

	if deps.OrderUC != nil {
		mux.Handle("/orders", handlers.NewOrderHandler(deps.OrderUC))
		mux.Handle("/orders/", handlers.NewOrderHandler(deps.OrderUC))
	}

	if deps.AuthUC != nil {
		mux.Handle("/auth/", handlers.NewAuthHandler(deps.AuthUC))
	}

	if deps.PaymentUC != nil {
		mux.Handle("/webhooks/payment", handlers.NewPaymentWebhookHandler(deps.PaymentUC))
	}

	// Manual sweep trigger, bearer-token protected.
	if deps.SweepUC != nil && deps.DiscountUC != nil {
		sweep := handlers.NewSweepHandler(deps.SweepUC, deps.DiscountUC)
		if deps.AuthUC != nil {
			auth := &middleware.UserAuthMiddleware{Auth: deps.AuthUC}
			sweep = auth.Handler(sweep)
		}
		mux.Handle("/admin/sweep", sweep)
	}

	// CORS outermost so even panic responses carry the headers.
	return middleware.CORS(deps.AllowedOrigin)(middleware.Recover(mux))
}
