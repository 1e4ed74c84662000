package models

import "time"

// Product is the canonical form of one book across all retail sources.
// Fields are written once, by the ingestion run that first saw the book.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"` // canonical_name
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn,omitempty"` // normalized, digits only
	Publisher   string    `json:"publisher"`
	Year        *int      `json:"year"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Offer is one retailer's price observation for a Product.
type Offer struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Source    string    `json:"source"` // website_name
	Price     *float64  `json:"price"`
	OldPrice  *float64  `json:"old_price"`
	Discount  string    `json:"discount"`
	URL       string    `json:"url"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// BookRow is a Product enriched with its offer aggregates, as shown by
// the catalog and search pages.
type BookRow struct {
	Product
	MinPrice    *float64 `json:"min_price"`
	OffersCount int      `json:"offers_count"`
}
