package models

import "time"

// Lifecycle states of a monitored CEP. A record moves
// pending -> processing -> completed | error.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Property type tags accepted on registration.
const (
	TipoApartamento = "apartamento"
	TipoCasa        = "casa"
)

// CEPRecord is a postal code registered for monitoring. The valuation
// engine owns the lifecycle; this service only mirrors it.
type CEPRecord struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Cep           string    `json:"cep" gorm:"size:8;index"`
	Tipo          string    `json:"tipo,omitempty"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	Attempts      int       `json:"attempts"`
	ListingsFound int       `json:"listings_found"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Terminal reports whether the record has finished processing.
func (r CEPRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusError
}
