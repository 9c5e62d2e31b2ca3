package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-tracking/internal/models"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func newTestSender(t *testing.T, client sesAPI) *SESV2Sender {
	t.Helper()
	tm, err := NewTemplateManager()
	require.NoError(t, err)
	return &SESV2Sender{client: client, fromEmail: "noreply@example.com", templates: tm}
}

func TestNotifyStatusChange(t *testing.T) {
	ses := &fakeSES{}
	s := newTestSender(t, ses)
	shipment := &models.Shipment{
		OrderID:  "O1",
		Status:   models.ShipmentDelivering,
		Agent:    &models.AgentInfo{Name: "Bình", Phone: "0900000000"},
		Customer: models.CustomerInfo{Name: "An <script>"},
	}

	require.NoError(t, s.NotifyStatusChange(context.Background(), "an@example.com", shipment, "5 phút nữa"))
	require.NotNil(t, ses.input)
	assert.Equal(t, "noreply@example.com", aws.ToString(ses.input.FromEmailAddress))
	assert.Equal(t, []string{"an@example.com"}, ses.input.Destination.ToAddresses)

	msg := ses.input.Content.Simple
	assert.Equal(t, "Đơn hàng O1: đang giao hàng", aws.ToString(msg.Subject.Data))
	assert.Contains(t, aws.ToString(msg.Body.Text.Data), "Người giao hàng: Bình 0900000000")
	assert.Contains(t, aws.ToString(msg.Body.Text.Data), "5 phút nữa")
	html := aws.ToString(msg.Body.Html.Data)
	assert.Contains(t, html, "<strong>O1</strong>")
	assert.NotContains(t, html, "<script>", "customer data is escaped")
}

func TestNotifyStatusChange_SESError(t *testing.T) {
	boom := errors.New("throttled")
	s := newTestSender(t, &fakeSES{err: boom})

	err := s.NotifyStatusChange(context.Background(), "a@b.c", &models.Shipment{OrderID: "O1", Status: "weird"}, "")
	assert.ErrorIs(t, err, boom)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "đã giao hàng", StatusLabel(models.ShipmentDelivered))
	assert.Equal(t, "custom", StatusLabel("custom"))
}
