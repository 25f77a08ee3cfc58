package transport

import "encoding/json"

type CustomerRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type OrderRequest struct {
	CustomerID string          `json:"customer_id"`
	Amount     float64         `json:"amount"`
	Items      json.RawMessage `json:"items"`
	PlacedAt   string          `json:"placed_at"`
}

type SegmentRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Rules       json.RawMessage `json:"rules"`
}

type SegmentPreviewRequest struct {
	Rules json.RawMessage `json:"rules"`
}

type TranslateRequest struct {
	Objective string `json:"objective"`
}

type CampaignRequest struct {
	SegmentID string `json:"segment_id"`
	Name      string `json:"name"`
	Message   string `json:"message"`
}

type SuggestRequest struct {
	Objective string `json:"objective"`
}

type ReceiptRequest struct {
	DeliveryID      string `json:"delivery_id"`
	Status          string `json:"status"`
	VendorMessageID string `json:"vendor_message_id"`
}

type AuthLoginRequest struct {
	IDToken string `json:"id_token"`
	TTL     int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}
