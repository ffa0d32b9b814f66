package models

import "time"

// ServiceCategory is a top-level trade grouping ("Plumbing", "Electrical").
type ServiceCategory struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	CreatedAt     time.Time     `json:"created_at"`
	Subcategories []SubCategory `json:"subcategories,omitempty"`
}

// SubCategory is a concrete service under a category. Unique per
// (category, name).
type SubCategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// TradespersonListing is a directory search hit: the tradesperson's profile
// plus the services they offer.
type TradespersonListing struct {
	UserID       int64    `json:"user_id"`
	DisplayName  string   `json:"display_name"`
	BusinessName string   `json:"business_name,omitempty"`
	City         string   `json:"city"`
	Province     string   `json:"province"`
	Services     []string `json:"services"`
}
