package crawler

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes where a listing board lives and how its markup is laid out
type Profile struct {
	Name      string    `yaml:"name"`
	BaseURL   string    `yaml:"base_url"`
	ListURL   string    `yaml:"list_url"`
	Selectors Selectors `yaml:"selectors"`
}

// DefaultProfile returns the built-in profile for doska.ykt.ru
func DefaultProfile() Profile {
	return Profile{
		Name:    "doska",
		BaseURL: "https://doska.ykt.ru",
		ListURL: "https://doska.ykt.ru/",
		Selectors: Selectors{
			Item:        ".d-post",
			Link:        "a.d-post_link",
			Title:       ".d-post_desc",
			Price:       ".d-post_price",
			Image:       "img",
			Date:        ".d-post_date",
			Description: ".d-post_text",
		},
	}
}

// LoadProfile reads a YAML profile and fills every field it leaves empty
// from DefaultProfile
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read site profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse site profile: %w", err)
	}

	p = p.withDefaults(DefaultProfile())
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks that the profile can produce absolute listing URLs
func (p Profile) Validate() error {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", p.BaseURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return fmt.Errorf("base_url %q must be absolute", p.BaseURL)
	}
	if p.ListURL == "" {
		return fmt.Errorf("list_url is required")
	}
	if p.Selectors.Item == "" || p.Selectors.Link == "" {
		return fmt.Errorf("selectors.item and selectors.link are required")
	}
	return nil
}

func (p Profile) withDefaults(d Profile) Profile {
	if p.Name == "" {
		p.Name = d.Name
	}
	if p.BaseURL == "" {
		p.BaseURL = d.BaseURL
	}
	if p.ListURL == "" {
		p.ListURL = d.ListURL
	}

	s := &p.Selectors
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&s.Item, d.Selectors.Item)
	fill(&s.Link, d.Selectors.Link)
	fill(&s.Title, d.Selectors.Title)
	fill(&s.Price, d.Selectors.Price)
	fill(&s.Image, d.Selectors.Image)
	fill(&s.Date, d.Selectors.Date)
	fill(&s.Description, d.Selectors.Description)

	return p
}
