package mercadopago

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juulhao/payhook/internal/service"
)

// payment - JSON платежа из /v1/payments
type payment struct {
	ID                flexString      `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	PaymentMethodID   string          `json:"payment_method_id"`
	DateCreated       *time.Time      `json:"date_created"`
	DateApproved      *time.Time      `json:"date_approved"`
	AdditionalInfo    struct {
		Items []item `json:"items"`
	} `json:"additional_info"`
}

type item struct {
	ID        flexString      `json:"id"`
	Title     string          `json:"title"`
	Quantity  flexString      `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type searchResponse struct {
	Paging struct {
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"paging"`
	Results []payment `json:"results"`
}

func (p payment) toDetails() service.PaymentDetails {
	d := service.PaymentDetails{
		ID:                string(p.ID),
		Status:            service.NormalizeProviderStatus(p.Status),
		RawStatus:         p.Status,
		StatusDetail:      p.StatusDetail,
		ExternalReference: p.ExternalReference,
		TransactionAmount: p.TransactionAmount,
		Currency:          p.CurrencyID,
		PaymentMethodID:   p.PaymentMethodID,
	}
	if p.DateCreated != nil {
		d.DateCreated = p.DateCreated.UTC()
	}
	if p.DateApproved != nil {
		approved := p.DateApproved.UTC()
		d.DateApproved = &approved
	}
	for _, it := range p.AdditionalInfo.Items {
		qty, _ := strconv.Atoi(string(it.Quantity))
		d.Items = append(d.Items, service.PaymentItem{
			ID:        string(it.ID),
			Title:     it.Title,
			Quantity:  qty,
			UnitPrice: it.UnitPrice,
		})
	}
	return d
}

// flexString принимает и строку, и число: API отдаёт id числом, а quantity в items строкой
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
