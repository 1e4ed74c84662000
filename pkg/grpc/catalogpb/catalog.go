// Package catalogpb holds the messages and service plumbing of
// bookhub.catalog.v1.CatalogService. Messages travel as JSON.
package catalogpb

type PageMeta struct {
	Page       int32 `json:"page"`
	TotalPages int32 `json:"total_pages"`
	PageSize   int32 `json:"page_size"`
}

type Book struct {
	Id          int64    `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Isbn        string   `json:"isbn,omitempty"`
	Publisher   string   `json:"publisher"`
	Year        int32    `json:"year,omitempty"`
	Genre       string   `json:"genre"`
	Description string   `json:"description"`
	ImageUrl    string   `json:"image_url"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	OffersCount int32    `json:"offers_count"`
}

func (b *Book) GetId() int64 {
	if b == nil {
		return 0
	}
	return b.Id
}

func (b *Book) GetTitle() string {
	if b == nil {
		return ""
	}
	return b.Title
}

type Offer struct {
	Id       int64    `json:"id"`
	Source   string   `json:"source"`
	Price    *float64 `json:"price,omitempty"`
	OldPrice *float64 `json:"old_price,omitempty"`
	Discount string   `json:"discount,omitempty"`
	Url      string   `json:"url,omitempty"`
	City     string   `json:"city,omitempty"`
}

type ListCatalogRequest struct {
	Page int32 `json:"page"`
}

func (r *ListCatalogRequest) GetPage() int32 {
	if r == nil {
		return 0
	}
	return r.Page
}

type ListCatalogResponse struct {
	Books       []*Book   `json:"books"`
	TotalBooks  int32     `json:"total_books"`
	TotalOffers int32     `json:"total_offers"`
	Page        *PageMeta `json:"page_metadata"`
}

type SearchRequest struct {
	Q    string `json:"q"`
	Page int32  `json:"page"`
}

func (r *SearchRequest) GetQ() string {
	if r == nil {
		return ""
	}
	return r.Q
}

func (r *SearchRequest) GetPage() int32 {
	if r == nil {
		return 0
	}
	return r.Page
}

type SearchResponse struct {
	Books []*Book   `json:"books"`
	Total int32     `json:"total"`
	Page  *PageMeta `json:"page_metadata"`
}

type GetBookRequest struct {
	Id int64 `json:"id"`
}

func (r *GetBookRequest) GetId() int64 {
	if r == nil {
		return 0
	}
	return r.Id
}

type GetBookResponse struct {
	Book   *Book    `json:"book"`
	Offers []*Offer `json:"offers"`
}
