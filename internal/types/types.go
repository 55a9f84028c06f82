package types

import (
	"context"
	"time"
)

// Sentinel field values. Extraction never leaves a field absent; when a
// tier chain comes up empty the field carries one of these instead.
const (
	UnknownTitle  = "Unknown Product"
	PriceNotFound = "Price not found"
)

// Product is a single extracted cart item
type Product struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     string    `json:"price"`
	Image     string    `json:"image"`
	URL       string    `json:"url"`
	Store     string    `json:"store"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Settings holds the user-facing detection options
type Settings struct {
	AutoDetect       bool   `json:"autoDetect"`
	ShowConfirmation bool   `json:"showConfirmation"`
	SyncEnabled      bool   `json:"syncEnabled"`
	APIEndpoint      string `json:"apiEndpoint"`
}

// DefaultSettings returns the default detection settings
func DefaultSettings() Settings {
	return Settings{
		AutoDetect:       true,
		ShowConfirmation: true,
		SyncEnabled:      false,
		APIEndpoint:      "",
	}
}

// Config holds the page-fetching configuration
type Config struct {
	RequestDelay       time.Duration
	MaxRetries         int
	Timeout            time.Duration
	UseHeadlessBrowser bool
	UserAgent          string
}

// DefaultConfig returns the default fetch configuration
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:       1 * time.Second,
		MaxRetries:         3,
		Timeout:            30 * time.Second,
		UseHeadlessBrowser: false,
		UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// CartStats summarizes the cart grouped by store
type CartStats struct {
	TotalItems     int          `json:"total_items"`
	Stores         int          `json:"stores"`
	StoreBreakdown []StoreCount `json:"store_breakdown"`
}

// StoreCount is the per-store item count in CartStats
type StoreCount struct {
	Store string `json:"store"`
	Count int    `json:"count"`
}

// CartStore is the persistence collaborator. The detection engine only
// reads the cart to check recent duplicates and appends one record per
// successful detection; ownership of the record transfers on append.
type CartStore interface {
	GetCart(ctx context.Context) ([]Product, error)
	AddToCart(ctx context.Context, product Product) error
}

// Confirmer is the optional confirmation-prompt collaborator. A false
// result or an error both mean the addition was declined.
type Confirmer interface {
	Confirm(ctx context.Context, product Product) (bool, error)
}

// NotificationKind classifies a notification message
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notifier is the fire-and-forget notification collaborator. The engine
// never awaits or branches on its result.
type Notifier interface {
	Notify(message string, kind NotificationKind)
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
