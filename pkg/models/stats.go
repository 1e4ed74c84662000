package models

// IngestionStats are the counters of one ingestion run. They live for
// the duration of the run and are not persisted.
type IngestionStats struct {
	Total         int `json:"total"`
	NewBooks      int `json:"new_books"`
	Duplicates    int `json:"duplicates"`
	Offers        int `json:"offers"`
	UsedISBNClean int `json:"used_isbn_clean"`
	UsedISBNRaw   int `json:"used_isbn_raw"`
}
