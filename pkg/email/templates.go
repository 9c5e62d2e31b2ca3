package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"order-tracking/internal/models"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	StatusTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	statusTmpl, err := template.New("statusChanged").Parse(statusChangedTemplate)
	if err != nil {
		return nil, fmt.Errorf("email.NewTemplateManager: %w", err)
	}
	return &TemplateManager{StatusTmpl: statusTmpl}, nil
}

// StatusData holds the dynamic data of a status e-mail.
type StatusData struct {
	Name         string
	OrderID      string
	Status       string
	Message      string
	ShipperName  string
	ShipperPhone string
}

// StatusChangedHTML executes the status template with the provided data.
func (tm *TemplateManager) StatusChangedHTML(data StatusData) (string, error) {
	var body bytes.Buffer
	if err := tm.StatusTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// StatusChangedText is the plain text alternative of the status e-mail.
func StatusChangedText(data StatusData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Xin chào %s,\n\nĐơn hàng %s của bạn: %s.\n", data.Name, data.OrderID, data.Status)
	if data.Message != "" {
		fmt.Fprintf(&b, "%s\n", data.Message)
	}
	if data.ShipperName != "" {
		fmt.Fprintf(&b, "Người giao hàng: %s %s\n", data.ShipperName, data.ShipperPhone)
	}
	return b.String()
}

var statusLabels = map[string]string{
	models.ShipmentPending:    "đang chờ xử lý",
	models.ShipmentPickedUp:   "đã lấy hàng",
	models.ShipmentInTransit:  "đang vận chuyển",
	models.ShipmentDelivering: "đang giao hàng",
	models.ShipmentDelivered:  "đã giao hàng",
	models.ShipmentCancelled:  "đã hủy",
	models.ShipmentFailed:     "giao hàng thất bại",
}

// StatusLabel returns the customer facing label of a shipment status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

const statusChangedTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Cập nhật đơn hàng {{.OrderID}}</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Xin chào {{.Name}},</h2>
	<p>Đơn hàng <strong>{{.OrderID}}</strong> của bạn: <strong>{{.Status}}</strong>.</p>
	{{if .Message}}<p>{{.Message}}</p>{{end}}
	{{if .ShipperName}}<p>Người giao hàng: {{.ShipperName}} ({{.ShipperPhone}})</p>{{end}}
</body>
</html>
`
