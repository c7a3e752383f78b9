// Package notify sends the order confirmation email. Everything here is a
// post-commit side effect: failures are logged by the caller and never
// surface to the payment processor or undo a committed order.
package notify

import (
	"fmt"
	"math/rand"
	"net/smtp"
	"strings"
	"time"

	"mediquick-backend/internal/stores/kafka"
)

const (
	etaMinMinutes = 30
	etaMaxMinutes = 120
)

// DeliveryETA picks a pseudo-random delivery estimate 30-120 minutes out.
// It is a display value for the customer, not a fulfillment promise.
func DeliveryETA(now time.Time) time.Time {
	minutes := rand.Intn(etaMaxMinutes-etaMinMinutes+1) + etaMinMinutes
	return now.Add(time.Duration(minutes) * time.Minute)
}

// Mailer is the delivery surface the worker and tests depend on.
type Mailer interface {
	SendOrderConfirmation(to string, ev kafka.OrderPlacedEvent, eta time.Time) error
}

// Conf implements Mailer over SMTP.
type Conf struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewConf(host, port, username, password, from string) (*Conf, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is empty")
	}
	if port == "" {
		port = "587"
	}
	if from == "" {
		from = username
	}
	return &Conf{host: host, port: port, username: username, password: password, from: from}, nil
}

// SendOrderConfirmation mails the order summary with real prices and the
// real total.
func (c *Conf) SendOrderConfirmation(to string, ev kafka.OrderPlacedEvent, eta time.Time) error {
	body := ConfirmationBody(ev, eta)
	message := []byte("To: " + to + "\r\n" +
		"Subject: Your MediQuick order is confirmed\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", c.username, c.password, c.host)
	if err := smtp.SendMail(c.host+":"+c.port, auth, c.from, []string{to}, message); err != nil {
		return fmt.Errorf("sending confirmation mail: %w", err)
	}
	return nil
}

// ConfirmationBody renders the plain-text order summary.
func ConfirmationBody(ev kafka.OrderPlacedEvent, eta time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nYour order %s has been placed successfully.\n\n", ev.OrderID)
	fmt.Fprintf(&b, "Order total: Rs %.2f\n", float64(ev.TotalPaise)/100)
	fmt.Fprintf(&b, "Estimated delivery: %s\n\nItems:\n", eta.Format("Mon, 02 Jan 2006 15:04"))
	for _, item := range ev.Items {
		lineTotal := float64(item.PricePaise) / 100 * float64(item.Quantity)
		fmt.Fprintf(&b, "- %s x %d - Rs %.2f\n", item.Name, item.Quantity, lineTotal)
	}
	b.WriteString("\nThank you for ordering with MediQuick.\n")
	return b.String()
}
