package domain

import "time"

// DeliveryStatus is the terminal state of a handled request.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryRecord is the persisted outcome of one handled request.
type DeliveryRecord struct {
	ID        int64
	URL       string
	ChatID    int64
	Route     DeliveryRoute
	Status    DeliveryStatus
	SizeBytes int64
	Parts     int
	Error     string
	CreatedAt time.Time
}
