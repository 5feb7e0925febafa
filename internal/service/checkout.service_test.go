package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopetechnp-dotcom/dopetechnp/internal/config"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/domain"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/infrastructure/mail"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/repo"
)

type mockRepo struct {
	create func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error)
}

func (m *mockRepo) CreateOrderWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
	return m.create(ctx, order, items)
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) { return nil, nil }
func (m *mockRepo) CountItems(ctx context.Context, orderID int64) (int64, error)  { return 0, nil }

type mockStore struct {
	upload    func(ctx context.Context, key string, data []byte, contentType string) error
	publicURL func(key string) string
}

func (m *mockStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.upload(ctx, key, data, contentType)
}

func (m *mockStore) PublicURL(key string) string {
	if m.publicURL != nil {
		return m.publicURL(key)
	}
	return "https://cdn.example.com/" + key
}

type mockSender struct {
	send func(ctx context.Context, msg mail.Message) error
	sent []mail.Message
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	if m.send != nil {
		return m.send(ctx, msg)
	}
	return nil
}

var mailCfg = config.Mail{
	Host:       "smtp.example.com",
	Port:       587,
	User:       "shop@example.com",
	Password:   "app-password",
	AdminEmail: "admin@example.com",
}

func validRequest() *domain.OrderRequest {
	return &domain.OrderRequest{
		OrderID: "ORD-1",
		CustomerInfo: domain.CustomerInfo{
			FullName: "A",
			Email:    "a@x.com",
		},
		Cart: []domain.CartItem{
			{ID: 7, Quantity: 2, Price: decimal.NewFromInt(50)},
		},
		Total:         decimal.NewFromInt(100),
		PaymentOption: "full",
	}
}

func receiptPayload() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *domain.OrderRequest)
	}{
		{"missing order id", func(r *domain.OrderRequest) { r.OrderID = "" }},
		{"missing full name", func(r *domain.OrderRequest) { r.CustomerInfo.FullName = "" }},
		{"missing email", func(r *domain.OrderRequest) { r.CustomerInfo.Email = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repoCalled := false
			svc := NewCheckoutService(&mockRepo{
				create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
					repoCalled = true
					return 1, nil
				},
			}, nil, nil, config.Mail{})

			req := validRequest()
			tt.mutate(req)

			_, err := svc.Submit(context.Background(), req)
			require.ErrorIs(t, err, domain.ErrMissingFields)
			assert.False(t, repoCalled, "no writes may happen on validation failure")
		})
	}
}

func TestSubmit_NoReceiptSkipsStorage(t *testing.T) {
	storeCalled := false
	store := &mockStore{
		upload: func(ctx context.Context, key string, data []byte, contentType string) error {
			storeCalled = true
			return nil
		},
	}

	var persisted *domain.Order
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			persisted = order
			return 42, nil
		},
	}, store, nil, config.Mail{})

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, storeCalled)
	assert.Nil(t, result.ReceiptURL)
	require.NotNil(t, persisted)
	assert.Nil(t, persisted.ReceiptURL)
	assert.Nil(t, persisted.ReceiptFileName)
	assert.Equal(t, domain.PaymentPending, persisted.PaymentStatus)
	assert.Equal(t, domain.OrderProcessing, persisted.OrderStatus)
}

func TestSubmit_ReceiptUpload(t *testing.T) {
	var gotKey, gotContentType string
	var gotData []byte
	store := &mockStore{
		upload: func(ctx context.Context, key string, data []byte, contentType string) error {
			gotKey, gotData, gotContentType = key, data, contentType
			return nil
		},
	}

	var persisted *domain.Order
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			persisted = order
			return 42, nil
		},
	}, store, nil, config.Mail{})

	req := validRequest()
	req.ReceiptFile = receiptPayload()
	req.ReceiptFileName = "Payment.PNG"

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "ORD-1_receipt.png", gotKey)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("fake png bytes"), gotData)

	require.NotNil(t, result.ReceiptURL)
	assert.Equal(t, "https://cdn.example.com/ORD-1_receipt.png", *result.ReceiptURL)
	require.NotNil(t, persisted.ReceiptURL)
	assert.Equal(t, *result.ReceiptURL, *persisted.ReceiptURL)
	require.NotNil(t, persisted.ReceiptFileName)
	assert.Equal(t, "Payment.PNG", *persisted.ReceiptFileName)
}

func TestSubmit_UploadFailureDoesNotAbortOrder(t *testing.T) {
	store := &mockStore{
		upload: func(ctx context.Context, key string, data []byte, contentType string) error {
			return errors.New("bucket unavailable")
		},
	}

	var persisted *domain.Order
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			persisted = order
			return 42, nil
		},
	}, store, nil, config.Mail{})

	req := validRequest()
	req.ReceiptFile = receiptPayload()
	req.ReceiptFileName = "receipt.png"

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", result.OrderID)
	assert.Equal(t, int64(42), result.OrderDBID)
	assert.Nil(t, result.ReceiptURL)
	assert.Nil(t, persisted.ReceiptURL)
}

func TestSubmit_BadReceiptPayloadDegrades(t *testing.T) {
	storeCalled := false
	store := &mockStore{
		upload: func(ctx context.Context, key string, data []byte, contentType string) error {
			storeCalled = true
			return nil
		},
	}

	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 42, nil
		},
	}, store, nil, config.Mail{})

	req := validRequest()
	req.ReceiptFile = "data:image/png;base64,this is not base64!!!"
	req.ReceiptFileName = "receipt.png"

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, storeCalled)
	assert.Nil(t, result.ReceiptURL)
}

func TestSubmit_PersistFailure(t *testing.T) {
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 0, &repo.PersistError{Stage: repo.StageOrder, Err: errors.New("connection reset")}
		},
	}, nil, nil, config.Mail{})

	_, err := svc.Submit(context.Background(), validRequest())
	var persistErr *repo.PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, repo.StageOrder, persistErr.Stage)
}

func TestSubmit_ItemsMapping(t *testing.T) {
	var gotItems []domain.OrderItem
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			gotItems = items
			return 42, nil
		},
	}, nil, nil, config.Mail{})

	req := validRequest()
	req.Cart = append(req.Cart, domain.CartItem{ID: 9, Quantity: 1, Price: decimal.NewFromInt(25)})

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, gotItems, 2)
	assert.Equal(t, int64(7), gotItems[0].ProductID)
	assert.Equal(t, int64(2), gotItems[0].Quantity)
	assert.True(t, gotItems[0].Price.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(9), gotItems[1].ProductID)
}

func TestSubmit_NotificationsUnconfigured(t *testing.T) {
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 42, nil
		},
	}, nil, nil, config.Mail{})

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, result.Notifications.Customer.Success)
	assert.Equal(t, "email service not configured", result.Notifications.Customer.Error)
	assert.False(t, result.Notifications.Admin.Success)
	assert.Equal(t, "email service not configured", result.Notifications.Admin.Error)
}

func TestSubmit_NotificationsSent(t *testing.T) {
	sender := &mockSender{}
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 42, nil
		},
	}, nil, sender, mailCfg)

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, result.Notifications.Customer.Success)
	assert.True(t, result.Notifications.Admin.Success)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "a@x.com", sender.sent[0].To)
	assert.Equal(t, "admin@example.com", sender.sent[1].To)
	assert.Contains(t, sender.sent[0].Subject, "ORD-1")
	assert.Contains(t, sender.sent[1].Subject, "ORD-1")
}

func TestSubmit_NotificationFailureIsNonFatal(t *testing.T) {
	sender := &mockSender{
		send: func(ctx context.Context, msg mail.Message) error {
			if msg.To == "a@x.com" {
				return errors.New("mailbox full")
			}
			return nil
		},
	}
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 42, nil
		},
	}, nil, sender, mailCfg)

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, result.Notifications.Customer.Success)
	assert.Contains(t, result.Notifications.Customer.Error, "mailbox full")
	assert.True(t, result.Notifications.Admin.Success)
	assert.Len(t, sender.sent, 2, "both recipients are attempted independently")
}

func TestNotificationFailureLogsRecipient(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	sender := &mockSender{
		send: func(ctx context.Context, msg mail.Message) error {
			return errors.New("mailbox full")
		},
	}
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 42, nil
		},
	}, nil, sender, mailCfg)

	_, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "a@x.com")
	assert.Contains(t, buf.String(), "admin@example.com")
}

func TestSubmit_AdminEmailMissing(t *testing.T) {
	cfg := mailCfg
	cfg.AdminEmail = ""
	sender := &mockSender{}
	svc := NewCheckoutService(&mockRepo{
		create: func(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
			return 42, nil
		},
	}, nil, sender, cfg)

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, result.Notifications.Customer.Success)
	assert.False(t, result.Notifications.Admin.Success)
	assert.Len(t, sender.sent, 1)
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"png", "image/png"},
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"pdf", "application/pdf"},
		{"webp", "image/webp"},
		{"gif", "image/jpeg"},
		{"", "image/jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contentTypeFor(tt.ext), "ext %q", tt.ext)
	}
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "png", fileExtension("receipt.PNG"))
	assert.Equal(t, "jpeg", fileExtension("my.photo.JPEG"))
	assert.Equal(t, "receipt", fileExtension("receipt"))
}

func TestDecodeReceipt(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := decodeReceipt(fmt.Sprintf("data:image/png;base64,%s", encoded))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	// Bare base64 without a data-URI prefix also decodes.
	got, err = decodeReceipt(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = decodeReceipt("data:image/png;base64,@@@")
	assert.Error(t, err)
}
