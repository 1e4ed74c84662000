package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Field is a scraped value. Scrapers emit strings most of the time but
// numbers (prices, years, isbn_clean) and nulls show up as well, so
// decoding accepts any JSON scalar and never fails on one.
type Field string

func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Field(s)
	case b[0] == '{' || b[0] == '[':
		// nested values are not part of the listing format
		*f = ""
	default:
		*f = Field(b)
	}
	return nil
}

// String returns the value with surrounding whitespace removed.
func (f Field) String() string {
	return strings.TrimSpace(string(f))
}

// Listing is one raw record scraped from a retail site.
// Every key is optional; absent keys read as empty.
type Listing struct {
	Title       Field `json:"title"`
	Author      Field `json:"author"`
	ISBN        Field `json:"isbn"`
	ISBNClean   Field `json:"isbn_clean"`
	Publisher   Field `json:"publisher"`
	Year        Field `json:"year"`
	Genre       Field `json:"genre"`
	Description Field `json:"description"`
	ImageURL    Field `json:"image_url"`
	Price       Field `json:"price"`
	OldPrice    Field `json:"old_price"`
	Discount    Field `json:"discount"`
	URL         Field `json:"url"`
	City        Field `json:"city"`
	Source      Field `json:"source"`
}

// ListingKeys are the record keys understood by the feed readers, in
// the column order used for CSV files.
var ListingKeys = []string{
	"title", "author", "isbn", "isbn_clean", "publisher", "year", "genre",
	"description", "image_url", "price", "old_price", "discount", "url",
	"city", "source",
}

// SetField assigns the value for one of ListingKeys. Unknown keys are ignored.
func (l *Listing) SetField(key, value string) {
	v := Field(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "title":
		l.Title = v
	case "author":
		l.Author = v
	case "isbn":
		l.ISBN = v
	case "isbn_clean":
		l.ISBNClean = v
	case "publisher":
		l.Publisher = v
	case "year":
		l.Year = v
	case "genre":
		l.Genre = v
	case "description":
		l.Description = v
	case "image_url":
		l.ImageURL = v
	case "price":
		l.Price = v
	case "old_price":
		l.OldPrice = v
	case "discount":
		l.Discount = v
	case "url":
		l.URL = v
	case "city":
		l.City = v
	case "source":
		l.Source = v
	}
}
