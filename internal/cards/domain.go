package cards

import (
	"time"
)

// CardStatus tracks the lifecycle state of a card.
type CardStatus string

const (
	StatusActive  CardStatus = "ACTIVE"
	StatusBlocked CardStatus = "BLOCKED"
	StatusExpired CardStatus = "EXPIRED"
)

// Card represents a bank card as persisted. The card number is held only in
// encrypted form; plaintext exists transiently inside the service while
// masking or checking uniqueness.
type Card struct {
	ID              int64      `json:"id" db:"id"`
	OwnerID         int64      `json:"owner_id" db:"owner_id"`
	OwnerUsername   string     `json:"owner_username" db:"owner_username"`
	NumberEncrypted string     `json:"-" db:"number_encrypted"`
	ExpiryDate      time.Time  `json:"expiry_date" db:"expiry_date"`
	Status          CardStatus `json:"status" db:"status"`
	Balance         float64    `json:"balance" db:"balance"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// View is the outward representation of a card. The number appears masked
// to its last four digits and in no other form.
type View struct {
	ID            int64      `json:"id"`
	MaskedNumber  string     `json:"masked_number"`
	OwnerUsername string     `json:"owner_username"`
	ExpiryDate    time.Time  `json:"expiry_date"`
	Status        CardStatus `json:"status"`
	Balance       float64    `json:"balance"`
}

// CreateCardRequest carries the inputs for issuing a new card.
type CreateCardRequest struct {
	OwnerUsername  string  `json:"owner_username" validate:"required,max=100"`
	ExpiryDate     string  `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	InitialBalance float64 `json:"initial_balance" validate:"gte=0"`
}

// TransferRequest carries the inputs for a balance transfer.
type TransferRequest struct {
	FromCardID int64   `json:"from_card_id" validate:"required,gt=0"`
	ToCardID   int64   `json:"to_card_id" validate:"required,gt=0"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

// ListRequest carries pass-through pagination and an optional search filter
// over the last four digits of the number.
type ListRequest struct {
	Search  string
	Page    int
	PerPage int
}

// MaskNumber renders the display form of a 16-digit card number.
func MaskNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "**** **** **** " + number[len(number)-4:]
}
