package crawler

import (
	"context"
	"io"
)

// ShortDescriptionLimit caps Listing.ShortDescription, in runes
const ShortDescriptionLimit = 200

// Listing represents one posting scraped from the listing page
type Listing struct {
	Title            string `json:"title"`
	Price            int    `json:"price"`
	URL              string `json:"url"`
	ImageURL         string `json:"image_url,omitempty"`
	DateLabel        string `json:"date_label"`
	ShortDescription string `json:"short_description,omitempty"`
}

// HasImage reports whether the listing carries an image URL
func (l Listing) HasImage() bool {
	return l.ImageURL != ""
}

// PageSource returns the raw markup of the listing page
type PageSource interface {
	// Fetch retrieves the page, decoded to UTF-8
	Fetch(ctx context.Context) (io.Reader, error)

	// GetName returns the source name for logging and identification
	GetName() string
}

// Selectors contains CSS selectors for the elements of one listing
type Selectors struct {
	Item        string `yaml:"item"`
	Link        string `yaml:"link"`
	Title       string `yaml:"title"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}
