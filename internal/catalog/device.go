// Package catalog holds the read-only device catalog the recommendation
// pipeline draws candidates from.
package catalog

import (
	"strconv"
	"strings"
)

// Device is one sellable smartphone record.
type Device struct {
	ID                  string   `yaml:"id" json:"id"`
	Brand               string   `yaml:"brand" json:"brand"`
	Model               string   `yaml:"model" json:"model"`
	Storage             string   `yaml:"storage" json:"storage"`
	ImageURL            string   `yaml:"imageUrl" json:"imageUrl"`
	Price               string   `yaml:"price" json:"price"`
	Tier                string   `yaml:"gama" json:"gama"`
	EstimatedPriceRange string   `yaml:"estimatedPriceRange" json:"estimatedPriceRange"`
	RecommendedUse      []string `yaml:"recommendedUse" json:"recommendedUse"`
	Specs               Specs    `yaml:"specs" json:"specs"`
	Durability          string   `yaml:"durability" json:"durability"`
	IdealFor            []string `yaml:"idealFor" json:"idealFor"`
}

// Specs is the nested specification block of a device.
type Specs struct {
	Processor string  `yaml:"processor" json:"processor"`
	Display   string  `yaml:"display" json:"display"`
	Cameras   Cameras `yaml:"cameras" json:"cameras"`
	Memory    Memory  `yaml:"memory" json:"memory"`
	Battery   string  `yaml:"battery" json:"battery"`
	Build     string  `yaml:"build" json:"build"`
}

type Cameras struct {
	Main  string `yaml:"main" json:"main"`
	Ultra string `yaml:"ultra,omitempty" json:"ultra,omitempty"`
	Tele  string `yaml:"tele,omitempty" json:"tele,omitempty"`
	Front string `yaml:"front" json:"front"`
}

type Memory struct {
	RAM     string `yaml:"ram" json:"ram"`
	Storage string `yaml:"storage" json:"storage"`
}

// Name is the display name used for brand matching and for product names.
func (d Device) Name() string {
	return strings.TrimSpace(d.Brand + " " + d.Model)
}

// NumericPrice strips every non-digit from the price field.
func (d Device) NumericPrice() (int64, bool) {
	return ParsePrice(d.Price)
}

// ParsePrice keeps only the digits of raw and parses them. Values without any
// digit are reported as unparseable.
func ParsePrice(raw string) (int64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PriceCents converts a catalog display price in whole currency units into
// integer minor units.
func PriceCents(raw string) (int64, bool) {
	v, ok := ParsePrice(raw)
	if !ok {
		return 0, false
	}
	return v * 100, true
}

// FormatPrice renders integer minor units as a display price.
func FormatPrice(cents int64) string {
	units := cents / 100
	s := strconv.FormatInt(units, 10)
	var b strings.Builder
	b.WriteString("$")
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
