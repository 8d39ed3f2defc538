package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

type ScentFamily string

const (
	Floral   ScentFamily = "Floral"
	Oriental ScentFamily = "Oriental"
	Woody    ScentFamily = "Woody"
	Fresh    ScentFamily = "Fresh"
	Citrus   ScentFamily = "Citrus"
	Spicy    ScentFamily = "Spicy"
	Aquatic  ScentFamily = "Aquatic"
)

// ScentFamilies is the closed set a Product may be tagged with.
var ScentFamilies = []ScentFamily{Floral, Oriental, Woody, Fresh, Citrus, Spicy, Aquatic}

func (f ScentFamily) Valid() bool {
	for _, s := range ScentFamilies {
		if s == f {
			return true
		}
	}
	return false
}

type Image struct {
	URL string `json:"url" validate:"required"`
	Alt string `json:"alt" validate:"required"`
}

type Size struct {
	Volume  string  `json:"volume" validate:"required"`
	Price   float64 `json:"price" validate:"gte=0"`
	InStock bool    `json:"inStock"`
}

type Product struct {
	ID               string      `json:"_id"`
	Name             string      `json:"name" validate:"required"`
	Slug             string      `json:"slug" validate:"required"`
	Description      string      `json:"description" validate:"required"`
	ShortDescription string      `json:"shortDescription" validate:"required,max=150"`
	Price            float64     `json:"price" validate:"gte=0"`
	OriginalPrice    *float64    `json:"originalPrice,omitempty" validate:"omitempty,gte=0"`
	Images           []Image     `json:"images" validate:"min=1,dive"`
	Sizes            []Size      `json:"sizes" validate:"dive"`
	ScentFamily      ScentFamily `json:"scentFamily" validate:"required,oneof=Floral Oriental Woody Fresh Citrus Spicy Aquatic"`
	Brand            string      `json:"brand" validate:"required"`
	Featured         bool        `json:"featured"`
	IsNew            bool        `json:"isNew"`
	Rating           float64     `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount      int64       `json:"reviewCount" validate:"gte=0"`
	InStock          bool        `json:"inStock"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// OnSale reports whether the product is discounted against its original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

// MarshalJSON adds the computed onSale flag. Decoding ignores it.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		OnSale bool `json:"onSale"`
	}{product(p), p.OnSale()})
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a lowercase, hyphen separated slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a",
		"è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i",
		"ò", "o", "ó", "o", "ô", "o", "ö", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n", "'", "",
	).Replace(s)
	s = slugInvalid.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Normalize trims text fields and lowercases the slug, deriving it from the
// name when it is empty.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.Images == nil {
		p.Images = []Image{}
	}
	if p.Sizes == nil {
		p.Sizes = []Size{}
	}
}
