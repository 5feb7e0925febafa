package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/dopetechnp-dotcom/dopetechnp/internal/config"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/domain"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/infrastructure/mail"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/infrastructure/storage"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/repo"
)

// Result is what a successful submission yields. Notifications is
// observational: a failed email never fails the submission.
type Result struct {
	OrderID       string
	OrderDBID     int64
	ReceiptURL    *string
	Notifications domain.NotificationReport
}

type CheckoutService interface {
	Submit(ctx context.Context, req *domain.OrderRequest) (*Result, error)
}

type checkoutService struct {
	orderRepo repo.OrderRepo
	store     storage.ReceiptStore
	mailer    mail.Sender
	mailCfg   config.Mail
}

// NewCheckoutService wires the submission pipeline. store and mailer may
// be nil when the respective configuration is absent; the pipeline then
// degrades instead of failing.
func NewCheckoutService(orderRepo repo.OrderRepo, store storage.ReceiptStore, mailer mail.Sender, mailCfg config.Mail) CheckoutService {
	return &checkoutService{
		orderRepo: orderRepo,
		store:     store,
		mailer:    mailer,
		mailCfg:   mailCfg,
	}
}

// Submit runs the checkout pipeline: validate, best-effort receipt
// upload, atomic order+items insert, best-effort notifications.
func (s *checkoutService) Submit(ctx context.Context, req *domain.OrderRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var receiptURL *string
	if req.ReceiptFile != "" && req.ReceiptFileName != "" {
		if url, err := s.uploadReceipt(ctx, req); err != nil {
			log.Printf("Failed to upload receipt for order %s: %v", req.OrderID, err)
		} else {
			receiptURL = &url
		}
	}

	order := buildOrder(req, receiptURL)
	items := buildItems(req.Cart)

	dbID, err := s.orderRepo.CreateOrderWithItems(ctx, order, items)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OrderID:    req.OrderID,
		OrderDBID:  dbID,
		ReceiptURL: receiptURL,
	}
	result.Notifications = s.notify(ctx, req, receiptURL)
	return result, nil
}

func (s *checkoutService) uploadReceipt(ctx context.Context, req *domain.OrderRequest) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("receipt storage not configured")
	}

	data, err := decodeReceipt(req.ReceiptFile)
	if err != nil {
		return "", fmt.Errorf("decode receipt: %w", err)
	}

	ext := fileExtension(req.ReceiptFileName)
	key := fmt.Sprintf("%s_receipt.%s", req.OrderID, ext)

	if err := s.store.Upload(ctx, key, data, contentTypeFor(ext)); err != nil {
		return "", err
	}
	return s.store.PublicURL(key), nil
}

// decodeReceipt strips an optional data-URI prefix and base64-decodes
// the remainder.
func decodeReceipt(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// fileExtension returns the lower-cased segment after the last dot, or
// the whole name when there is none.
func fileExtension(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(name)
}

func contentTypeFor(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "pdf":
		return "application/pdf"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func buildOrder(req *domain.OrderRequest, receiptURL *string) *domain.Order {
	var receiptName *string
	if req.ReceiptFileName != "" {
		receiptName = &req.ReceiptFileName
	}
	return &domain.Order{
		OrderID:         req.OrderID,
		CustomerName:    req.CustomerInfo.FullName,
		CustomerEmail:   req.CustomerInfo.Email,
		CustomerPhone:   req.CustomerInfo.Phone,
		CustomerCity:    req.CustomerInfo.City,
		CustomerState:   req.CustomerInfo.State,
		CustomerZipCode: req.CustomerInfo.ZipCode,
		CustomerAddress: req.CustomerInfo.FullAddress,
		TotalAmount:     req.Total,
		PaymentOption:   req.PaymentOption,
		PaymentStatus:   domain.PaymentPending,
		OrderStatus:     domain.OrderProcessing,
		ReceiptURL:      receiptURL,
		ReceiptFileName: receiptName,
	}
}

func buildItems(cart []domain.CartItem) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(cart))
	for _, entry := range cart {
		items = append(items, domain.OrderItem{
			ProductID: entry.ID,
			Quantity:  entry.Quantity,
			Price:     entry.Price,
		})
	}
	return items
}

// notify sends the customer and admin emails. Both are attempted
// independently; failures are logged and reported, never propagated.
func (s *checkoutService) notify(ctx context.Context, req *domain.OrderRequest, receiptURL *string) domain.NotificationReport {
	if s.mailer == nil || !s.mailCfg.Configured() {
		outcome := domain.NotificationOutcome{Success: false, Error: "email service not configured"}
		return domain.NotificationReport{Customer: outcome, Admin: outcome}
	}

	summary := mail.OrderSummary{
		OrderID:       req.OrderID,
		CustomerName:  req.CustomerInfo.FullName,
		CustomerEmail: req.CustomerInfo.Email,
		CustomerPhone: req.CustomerInfo.Phone,
		Address:       req.CustomerInfo.FullAddress,
		Total:         req.Total,
		PaymentOption: req.PaymentOption,
	}
	for _, entry := range req.Cart {
		summary.Items = append(summary.Items, mail.ItemLine{
			ProductID: entry.ID,
			Quantity:  entry.Quantity,
			Price:     entry.Price,
		})
	}
	if receiptURL != nil {
		summary.ReceiptURL = *receiptURL
	}

	var report domain.NotificationReport
	report.Customer = s.send(ctx, req.CustomerInfo.Email, func() (mail.Message, error) {
		return mail.CustomerMessage(s.mailCfg.User, summary)
	})
	if s.mailCfg.AdminEmail == "" {
		report.Admin = domain.NotificationOutcome{Success: false, Error: "admin email not configured"}
	} else {
		report.Admin = s.send(ctx, s.mailCfg.AdminEmail, func() (mail.Message, error) {
			return mail.AdminMessage(s.mailCfg.User, s.mailCfg.AdminEmail, summary)
		})
	}
	return report
}

func (s *checkoutService) send(ctx context.Context, to string, build func() (mail.Message, error)) domain.NotificationOutcome {
	msg, err := build()
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return domain.NotificationOutcome{Success: false, Error: err.Error()}
	}
	return domain.NotificationOutcome{Success: true}
}
