package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerSignature = "X-Signature"
	headerRequestID = "X-Request-Id"
)

// Reception - принятое уведомление
type Reception struct {
	Notification PaymentNotification
	ReceivedAt   time.Time
}

// Receiver проверяет форму webhook и извлекает id платежа.
// Сырой payload дальше Receiver не уходит.
type Receiver struct {
	secret []byte
	now    func() time.Time
}

// NewReceiver создаёт Receiver. Пустой webhookSecret выключает проверку x-signature.
func NewReceiver(webhookSecret string) *Receiver {
	r := &Receiver{now: time.Now}
	if webhookSecret != "" {
		r.secret = []byte(webhookSecret)
	}
	return r
}

// Receive отклоняет тело без type/topic или без data.id (вложенного или "data.id" ключом)
// ошибкой ErrMalformedNotification, неверную подпись - ErrInvalidSignature.
func (r *Receiver) Receive(rawBody []byte, headers http.Header) (Reception, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rawBody, &body); err != nil || body == nil {
		return Reception{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedNotification)
	}

	kindRaw := stringValue(body["type"])
	if kindRaw == "" {
		kindRaw = stringValue(body["topic"])
	}
	if kindRaw == "" {
		return Reception{}, fmt.Errorf("%w: type and topic are missing", ErrMalformedNotification)
	}

	paymentID := nestedDataID(body["data"])
	if paymentID == "" {
		paymentID = idValue(body["data.id"])
	}
	if paymentID == "" {
		return Reception{}, fmt.Errorf("%w: data.id is missing", ErrMalformedNotification)
	}

	if r.secret != nil {
		if err := r.verifySignature(paymentID, headers); err != nil {
			return Reception{}, err
		}
	}


	return Reception{
		Notification: PaymentNotification{
			Kind:              ParseNotificationKind(kindRaw),
			ProviderPaymentID: paymentID,
			Action:            stringValue(body["action"]),
			LiveMode:          boolValue(body["live_mode"]),
		},
		ReceivedAt: r.now().UTC(),
	}, nil
}

// verifySignature проверяет x-signature вида "ts=<unix>,v1=<hex>":
// HMAC-SHA256 от "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
func (r *Receiver) verifySignature(paymentID string, headers http.Header) error {
	ts, v1 := parseSignature(headers.Get(headerSignature))
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: x-signature header is missing or incomplete", ErrInvalidSignature)
	}

	provided, err := hex.DecodeString(v1)
	if err != nil {
		return fmt.Errorf("%w: v1 is not hex", ErrInvalidSignature)
	}

	manifest := SignatureManifest(paymentID, headers.Get(headerRequestID), ts)
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(manifest))
	if !hmac.Equal(mac.Sum(nil), provided) {
		return fmt.Errorf("%w: digest mismatch", ErrInvalidSignature)
	}
	return nil
}

// SignatureManifest собирает строку, которую подписывает провайдер.
// Буквенно-цифровой id приводится к нижнему регистру.
func SignatureManifest(paymentID, requestID, ts string) string {
	var b strings.Builder
	b.WriteString("id:" + strings.ToLower(paymentID) + ";")
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

func parseSignature(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}

func nestedDataID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	return idValue(data["id"])
}

// idValue принимает id строкой или числом
func idValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// boolValue принимает bool или строку "true"/"false".
// live_mode не влияет на обработку, поэтому любое другое значение читается как false, без отказа.
func boolValue(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	b, err := strconv.ParseBool(stringValue(raw))
	return err == nil && b
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
