// Package billing provisions accounts from payment provider webhooks.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

// MaxBodyBytes bounds webhook payloads.
const MaxBodyBytes = 65536

// checkoutSession is the part of a checkout.session object we read.
type checkoutSession struct {
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription string `json:"subscription"`
	Customer     string `json:"customer"`
}

func (s checkoutSession) email() string {
	if s.CustomerEmail != "" {
		return s.CustomerEmail
	}
	return s.CustomerDetails.Email
}

type subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// Service applies subscription changes to user rows.
type Service struct {
	db     *gorm.DB
	secret string
	logger *slog.Logger
}

// NewService creates a billing service verifying events with secret.
func NewService(db *gorm.DB, secret string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, secret: secret, logger: logger}
}

// Provision creates or activates the user for email.
func (s *Service) Provision(ctx context.Context, email, subscriptionID, customerID string) (*models.User, error) {
	const op = "billing.Provision"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation(op, "checkout session has no customer email")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Email:              email,
				Name:               strings.Split(email, "@")[0],
				SubscriptionStatus: models.SubscriptionActive,
				SubscriptionID:     subscriptionID,
				StripeCustomerID:   customerID,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&user).Updates(map[string]interface{}{
			"subscription_status": models.SubscriptionActive,
			"subscription_id":     subscriptionID,
			"stripe_customer_id":  customerID,
		}).Error
	})
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}
	return &user, nil
}

// Cancel marks the subscription's user canceled. It reports whether a user
// matched.
func (s *Service) Cancel(ctx context.Context, subscriptionID, customerID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	switch {
	case subscriptionID != "":
		q = q.Where("subscription_id = ?", subscriptionID)
	case customerID != "":
		q = q.Where("stripe_customer_id = ?", customerID)
	default:
		return false, nil
	}
	res := q.Update("subscription_status", models.SubscriptionCanceled)
	if res.Error != nil {
		return false, apperr.DataAccess("billing.Cancel", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HandleWebhook returns the handler for POST /webhooks/stripe.
func (s *Service) HandleWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		sig := c.GetHeader("Stripe-Signature")
		if sig == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sig, s.secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			s.logger.Warn("Webhook signature verification failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}

		switch event.Type {
		case stripe.EventTypeCheckoutSessionCompleted:
			var session checkoutSession
			if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed checkout session"})
				return
			}
			user, err := s.Provision(c.Request.Context(), session.email(), session.Subscription, session.Customer)
			if err != nil {
				c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.UserMessage(err)})
				return
			}
			s.logger.Info("Subscription activated", "user_id", user.ID, "email", user.Email, "event_id", event.ID)
			c.JSON(http.StatusOK, gin.H{"success": true})

		case stripe.EventTypeCustomerSubscriptionDeleted:
			var sub subscription
			if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed subscription"})
				return
			}
			matched, err := s.Cancel(c.Request.Context(), sub.ID, sub.Customer)
			if err != nil {
				c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.UserMessage(err)})
				return
			}
			s.logger.Info("Subscription canceled", "subscription_id", sub.ID, "matched", matched)
			c.JSON(http.StatusOK, gin.H{"success": true})

		default:
			c.JSON(http.StatusOK, gin.H{"received": true})
		}
	}
}

// HandleCheckout redirects to the hosted payment page.
func HandleCheckout(paymentLink string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if paymentLink == "" {
			c.String(http.StatusServiceUnavailable, "Checkout is not configured.")
			return
		}
		c.Redirect(http.StatusFound, paymentLink)
	}
}
