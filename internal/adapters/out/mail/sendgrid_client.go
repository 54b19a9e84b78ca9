// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
)

// SendGridDispatcher implements usecase.Dispatcher using SendGrid dynamic
// templates. Kinds with no template ID fall back to a plain-text mail so a
// missing config entry degrades to an ugly mail instead of a dropped one.
type SendGridDispatcher struct {
	apiKey    string
	fromName  string
	fromEmail string
	templates map[usecase.MailKind]string
}

func NewSendGridDispatcher(apiKey, fromName, fromEmail string, templates map[usecase.MailKind]string) *SendGridDispatcher {
	if templates == nil {
		templates = map[usecase.MailKind]string{}
	}
	return &SendGridDispatcher{
		apiKey:    apiKey,
		fromName:  fromName,
		fromEmail: fromEmail,
		templates: templates,
	}
}

// Send never panics: every failure comes back as DispatchResult data.
func (d *SendGridDispatcher) Send(ctx context.Context, kind usecase.MailKind, to string, data map[string]any) usecase.DispatchResult {
	if d == nil || d.apiKey == "" {
		return usecase.DispatchResult{Err: "sendgrid api key is empty"}
	}
	if strings.TrimSpace(to) == "" {
		return usecase.DispatchResult{Err: "to address is empty"}
	}

	from := sgmail.NewEmail(d.fromName, d.fromEmail)
	recipient := sgmail.NewEmail("", to)

	var message *sgmail.SGMailV3
	if tplID, ok := d.templates[kind]; ok && tplID != "" {
		message = sgmail.NewV3Mail()
		message.SetFrom(from)
		message.SetTemplateID(tplID)
		p := sgmail.NewPersonalization()
		p.AddTos(recipient)
		for k, v := range data {
			p.SetDynamicTemplateData(k, v)
		}
		message.AddPersonalizations(p)
	} else {
		subject, body := plainFallback(kind, data)
		message = sgmail.NewSingleEmail(from, subject, recipient, body, fmt.Sprintf("<pre>%s</pre>", body))
	}

	client := sendgrid.NewSendClient(d.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		log.Printf("[sendgrid] send error kind=%s to=%s: %v", kind, to, err)
		return usecase.DispatchResult{Err: err.Error()}
	}
	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d kind=%s body=%s", response.StatusCode, kind, response.Body)
		return usecase.DispatchResult{Err: fmt.Sprintf("sendgrid status=%d", response.StatusCode)}
	}

	msgID := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		msgID = ids[0]
	}
	log.Printf("[sendgrid] mail sent status=%d kind=%s to=%s", response.StatusCode, kind, to)
	return usecase.DispatchResult{Success: true, MessageID: msgID}
}

// plainFallback builds a minimal subject/body when no dynamic template is
// configured for the kind.
func plainFallback(kind usecase.MailKind, data map[string]any) (string, string) {
	url, _ := data["recoveryUrl"].(string)
	code, _ := data["code"].(string)

	switch kind {
	case usecase.MailAbandonedCart:
		return "You left something in your cart", "Your cart is waiting for you.\n" + url
	case usecase.MailCheckoutRecovery:
		return "Complete your order", "Pick up where you left off:\n" + url
	case usecase.MailPaymentRetry:
		return "There was a problem with your payment", "Retry your payment here:\n" + url
	case usecase.MailOrderConfirmation:
		number, _ := data["orderNumber"].(string)
		return "Order confirmation " + number, "Thank you for your order " + number + "."
	case usecase.MailDiscountWelcome:
		return "Your welcome discount", "Here is your discount code: " + code
	case usecase.MailDiscountReminder:
		return "Your discount code is expiring soon", "Don't forget your code: " + code
	default:
		return "Vornify", "Hello from Vornify."
	}
}
