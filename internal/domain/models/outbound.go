package models

// OutboundMessageRequest is a text message addressed to the shop owner.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	PreviewURL bool   `json:"preview_url"`
}
