package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category is the top level of the catalog taxonomy.
type Category string

const (
	CategoryClothing    Category = "Clothing"
	CategoryShoes       Category = "Shoes"
	CategoryBags        Category = "Bags"
	CategoryAccessories Category = "Accessories"
)

var categories = []Category{CategoryClothing, CategoryShoes, CategoryBags, CategoryAccessories}

// Categories returns the accepted categories in prompt order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches raw case-insensitively and returns the canonical spelling.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Color is a palette entry. Anything outside the palette is stored as ColorOther.
type Color string

const (
	ColorBlack      Color = "black"
	ColorWhite      Color = "white"
	ColorBlue       Color = "blue"
	ColorPink       Color = "pink"
	ColorGreen      Color = "green"
	ColorRed        Color = "red"
	ColorGray       Color = "gray"
	ColorYellow     Color = "yellow"
	ColorBrown      Color = "brown"
	ColorOrange     Color = "orange"
	ColorPurple     Color = "purple"
	ColorMulticolor Color = "multicolor"
	ColorOther      Color = "other"
)

var palette = []Color{
	ColorBlack, ColorWhite, ColorBlue, ColorPink, ColorGreen, ColorRed, ColorGray,
	ColorYellow, ColorBrown, ColorOrange, ColorPurple, ColorMulticolor, ColorOther,
}

var colorAliases = map[string]Color{
	"grey":        ColorGray,
	"multi":       ColorMulticolor,
	"multicolour": ColorMulticolor,
	"multi-color": ColorMulticolor,
}

// Palette returns the accepted colors in prompt order.
func Palette() []Color {
	return append([]Color(nil), palette...)
}

// ParseColor coerces raw into the palette.
func ParseColor(raw string) Color {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range palette {
		if key == string(c) {
			return c
		}
	}
	if c, ok := colorAliases[key]; ok {
		return c
	}
	return ColorOther
}

// Classification is one accepted classifier reply. Every canonical field written
// to a product comes from a single value of this type.
type Classification struct {
	PrimaryCategory Category
	SubCategory     string
	PrimaryColor    Color
}

var ErrInvalidClassification = errors.New("invalid classification")

// NewClassification validates raw classifier fields. Unknown colors are coerced;
// unknown categories and a blank sub category are rejected.
func NewClassification(category, subCategory, color string) (Classification, error) {
	cat, ok := ParseCategory(category)
	if !ok {
		return Classification{}, fmt.Errorf("%w: primary_category %q", ErrInvalidClassification, category)
	}
	sub := strings.TrimSpace(subCategory)
	if sub == "" {
		return Classification{}, fmt.Errorf("%w: sub_category is empty", ErrInvalidClassification)
	}
	return Classification{PrimaryCategory: cat, SubCategory: sub, PrimaryColor: ParseColor(color)}, nil
}

// ItemsDetected is the detected-item payload attached to scraped products.
type ItemsDetected struct {
	Type     string `json:"type"`
	Color    string `json:"color"`
	Style    string `json:"style"`
	Material string `json:"material,omitempty"`
}

// UnmarshalJSON accepts a single item object or an array of items, in which case
// the first item is used. Older scrape runs wrote "item" instead of "type".
func (d *ItemsDetected) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			*d = ItemsDetected{}
			return nil
		}
		return d.UnmarshalJSON(items[0])
	}
	var raw struct {
		Type     string `json:"type"`
		Item     string `json:"item"`
		Color    string `json:"color"`
		Style    string `json:"style"`
		Material string `json:"material"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ := raw.Type
	if strings.TrimSpace(typ) == "" {
		typ = raw.Item
	}
	*d = ItemsDetected{Type: typ, Color: raw.Color, Style: raw.Style, Material: raw.Material}
	return nil
}

// Product is a product_catalog row.
type Product struct {
	ID              string
	Title           string
	ImageURL        *string
	ItemsDetected   *ItemsDetected
	PrimaryCategory *string
	SubCategory     *string
	PrimaryColor    *string
	ColorVariant    *string
	PrimaryStyle    *string
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category string
	Limit    int
}
