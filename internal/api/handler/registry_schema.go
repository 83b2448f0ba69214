package handler

import "time"

type completeRegistrationRequest struct {
	Name string `json:"name" validate:"required,max=64"`
	// CardID pins the scan being named; empty means the card currently waiting.
	CardID string `json:"card_id"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type userListResponse struct {
	Users []userResponse `json:"users"`
	Count int            `json:"count"`
}

type registrationStateResponse struct {
	Open          bool   `json:"open"`
	PendingCardID string `json:"pending_card_id,omitempty"`
	// LastRejected is the most recent scan refused as already registered.
	LastRejected string `json:"last_rejected,omitempty"`
}
