package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"ticketshub/models"

	"github.com/skip2/go-qrcode"
)

// QRPayload is the booking summary carried by a ticket's QR code. Field order
// is part of the encoded form.
type QRPayload struct {
	EventID    int    `json:"eventId"`
	EventTitle string `json:"eventTitle"`
	Quantity   int    `json:"quantity"`
	Venue      string `json:"venue"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// GenerateQRCode returns the base64 form of the ticket's QR payload.
// Equal booking facts always give the same string.
func GenerateQRCode(in models.TicketInput) string {
	payload := QRPayload{
		EventID:    in.EventID,
		EventTitle: in.EventTitle,
		Quantity:   in.Quantity,
		Venue:      in.Venue,
		Date:       in.EventDate,
		Time:       in.EventTime,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// strings and ints always encode
	_ = enc.Encode(payload)

	return base64.StdEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

func DecodeQRCode(code string) (QRPayload, error) {
	var payload QRPayload

	raw, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return payload, fmt.Errorf("decode qr code: %w", err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("parse qr payload: %w", err)
	}
	return payload, nil
}

// RenderQRCodePNG draws the ticket's QR code as a size x size PNG.
func RenderQRCodePNG(in models.TicketInput, size int) ([]byte, error) {
	png, err := qrcode.Encode(GenerateQRCode(in), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
