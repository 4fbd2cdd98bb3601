package yoco

const EventCheckoutSucceeded = "checkout.succeeded"

// WebhookEvent is the gateway's server-to-server notification body. Only
// checkout.succeeded is acted on; everything else is acknowledged and dropped.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookData `json:"data"`
}

type WebhookData struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}
