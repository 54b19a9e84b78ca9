// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"cloud.google.com/go/storage"

	httpin "github.com/ErnestIssa/vornify-server-sub000/internal/adapters/in/http"
	dbadapter "github.com/ErnestIssa/vornify-server-sub000/internal/adapters/out/db"
	fsadapter "github.com/ErnestIssa/vornify-server-sub000/internal/adapters/out/firestore"
	gcsadapter "github.com/ErnestIssa/vornify-server-sub000/internal/adapters/out/gcs"
	mailadapter "github.com/ErnestIssa/vornify-server-sub000/internal/adapters/out/mail"
	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
	productdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/product"
	"github.com/ErnestIssa/vornify-server-sub000/internal/infra/config"
	"github.com/ErnestIssa/vornify-server-sub000/internal/infra/database"
	firestoreinfra "github.com/ErnestIssa/vornify-server-sub000/internal/infra/firestore"
	"github.com/ErnestIssa/vornify-server-sub000/internal/infra/secrets"
)

// Container は main から使う依存オブジェクトの束。main を極限まで薄くするのが目的。
type Container struct {
	Router http.Handler

	SweepUC    *usecase.SweepUsecase
	DiscountUC *usecase.DiscountUsecase

	fs      *firestoreinfra.ClientWrapper
	gcs     *storage.Client
	pg      *database.DB
	secrets *secrets.Resolver
}

// Close releases every external client, best-effort.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.pg != nil {
		if err := c.pg.Close(); err != nil {
			log.Printf("[di] pg close error: %v", err)
		}
	}
	if c.gcs != nil {
		if err := c.gcs.Close(); err != nil {
			log.Printf("[di] gcs close error: %v", err)
		}
	}
	if c.secrets != nil {
		if err := c.secrets.Close(); err != nil {
			log.Printf("[di] secrets close error: %v", err)
		}
	}
	if c.fs != nil {
		if err := c.fs.Close(); err != nil {
			log.Printf("[di] firestore close error: %v", err)
		}
	}
	return nil
}

// Build initializes external clients and wires repositories, usecases and the
// router. Optional pieces (GCS, PostgreSQL, Secret Manager) degrade to warnings
// so the core lifecycle endpoints still come up without them.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// --- Secret Manager (optional, resolves sm:// config values)
	if res, err := secrets.NewResolver(ctx, cfg.FirestoreProjectID); err != nil {
		log.Printf("[di] WARN: secret resolver unavailable: %v", err)
	} else {
		c.secrets = res
	}

	sendgridKey := resolveOrRaw(ctx, c.secrets, cfg.SendGridAPIKey)
	jwtSecret := resolveOrRaw(ctx, c.secrets, cfg.JWTSecret)

	// --- Firestore (required)
	fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("di: firestore init: %w", err)
	}
	c.fs = fs

	// --- GCS (optional, product images)
	var imageStore productdom.ImageStore
	if gcsClient, err := storage.NewClient(ctx); err != nil {
		log.Printf("[di] WARN: gcs unavailable, image upload disabled: %v", err)
	} else {
		c.gcs = gcsClient
		imageStore = gcsadapter.NewProductImageRepositoryGCS(gcsClient, cfg.GCSBucket)
	}

	// --- PostgreSQL (optional, reporting mirror)
	var archive orderdom.ArchiveRepository
	if cfg.HasPostgres() {
		pg, err := database.NewConnection(cfg.PGHost, cfg.PGPort, cfg.PGUser, cfg.PGPassword, cfg.PGDatabase)
		if err != nil {
			log.Printf("[di] WARN: postgres unavailable, order archive disabled: %v", err)
		} else {
			c.pg = pg
			pgArchive := dbadapter.NewOrderArchiveRepositoryPG(pg.Client)
			if err := pgArchive.EnsureSchema(ctx); err != nil {
				log.Printf("[di] WARN: order archive schema: %v", err)
			}
			archive = pgArchive
		}
	}

	// --- Repositories
	carts := fsadapter.NewCartSessionRepositoryFS(fs.Client)
	checkouts := fsadapter.NewCheckoutRepositoryFS(fs.Client)
	failures := fsadapter.NewPaymentFailureRepositoryFS(fs.Client)
	discounts := fsadapter.NewDiscountRepositoryFS(fs.Client)
	products := fsadapter.NewProductRepositoryFS(fs.Client)
	orders := fsadapter.NewOrderRepositoryFS(fs.Client)
	users := fsadapter.NewUserRepositoryFS(fs.Client)
	subscribers := fsadapter.NewSubscriberRepositoryFS(fs.Client)

	// --- Mail
	dispatcher := mailadapter.NewSendGridDispatcher(
		sendgridKey,
		cfg.MailFromName,
		cfg.MailFromEmail,
		templateIDs(cfg),
	)
	gate := usecase.NewNotificationGate(dispatcher)

	// --- Usecases
	discountUC := usecase.NewDiscountUsecase(discounts, gate, usecase.DiscountConfig{
		Percent:       cfg.DiscountPercent,
		Lifetime:      cfg.DiscountLifetime,
		ReminderDelay: cfg.DiscountReminderDelay,
	})
	activityUC := usecase.NewActivityUsecase(carts, checkouts, failures)
	recoveryUC := usecase.NewRecoveryUsecase(checkouts, failures)
	sweepUC := usecase.NewSweepUsecase(carts, checkouts, failures, orders, users, gate, usecase.SweepConfig{
		CartIdleThreshold:     cfg.CartIdleThreshold,
		CheckoutIdleThreshold: cfg.CheckoutIdleThreshold,
		PaymentRetryGrace:     cfg.PaymentRetryGrace,
		RecoveryBaseURL:       cfg.RecoveryBaseURL,
	})
	newsletterUC := usecase.NewNewsletterUsecase(subscribers, discountUC, dispatcher)
	authUC := usecase.NewAuthUsecase(users, jwtSecret, cfg.TokenTTL)
	productUC := usecase.NewProductUsecase(products, imageStore)
	orderUC := usecase.NewOrderUsecase(orders, archive, carts, checkouts, discountUC, dispatcher)
	paymentUC := usecase.NewPaymentUsecase(activityUC, failures)

	c.SweepUC = sweepUC
	c.DiscountUC = discountUC

	c.Router = httpin.NewRouter(httpin.RouterDeps{
		ActivityUC:    activityUC,
		RecoveryUC:    recoveryUC,
		SweepUC:       sweepUC,
		DiscountUC:    discountUC,
		NewsletterUC:  newsletterUC,
		ProductUC:     productUC,
		OrderUC:       orderUC,
		AuthUC:        authUC,
		PaymentUC:     paymentUC,
		CartRepo:      carts,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	return c, nil
}

func resolveOrRaw(ctx context.Context, r *secrets.Resolver, value string) string {
	if r == nil {
		return value
	}
	v, err := r.Resolve(ctx, value)
	if err != nil {
		log.Printf("[di] WARN: secret resolve failed, using raw value: %v", err)
		return value
	}
	return v
}

func templateIDs(cfg *config.Config) map[usecase.MailKind]string {
	out := map[usecase.MailKind]string{}
	for kind, id := range cfg.TemplateIDs() {
		out[usecase.MailKind(kind)] = id
	}
	return out
}
