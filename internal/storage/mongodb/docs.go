package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"scentshop/internal/domain"
)

type imageDoc struct {
	URL string `bson:"url"`
	Alt string `bson:"alt"`
}

type sizeDoc struct {
	Volume  string  `bson:"volume"`
	Price   float64 `bson:"price"`
	InStock bool    `bson:"inStock"`
}

type productDoc struct {
	ID               primitive.ObjectID `bson:"_id"`
	Name             string             `bson:"name"`
	Slug             string             `bson:"slug"`
	Description      string             `bson:"description"`
	ShortDescription string             `bson:"shortDescription"`
	Price            float64            `bson:"price"`
	OriginalPrice    *float64           `bson:"originalPrice,omitempty"`
	Images           []imageDoc         `bson:"images"`
	Sizes            []sizeDoc          `bson:"sizes"`
	ScentFamily      string             `bson:"scentFamily"`
	Brand            string             `bson:"brand"`
	Featured         bool               `bson:"featured"`
	IsNew            bool               `bson:"isNew"`
	Rating           float64            `bson:"rating"`
	ReviewCount      int64              `bson:"reviewCount"`
	InStock          bool               `bson:"inStock"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

type reviewDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	ProductID    primitive.ObjectID `bson:"productId"`
	CustomerName string             `bson:"customerName"`
	Rating       int                `bson:"rating"`
	Title        string             `bson:"title"`
	Comment      string             `bson:"comment"`
	Verified     bool               `bson:"verified"`
	Helpful      int                `bson:"helpful"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func toProductDoc(p domain.Product, id primitive.ObjectID) productDoc {
	d := productDoc{
		ID:               id,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		OriginalPrice:    p.OriginalPrice,
		Images:           make([]imageDoc, 0, len(p.Images)),
		Sizes:            make([]sizeDoc, 0, len(p.Sizes)),
		ScentFamily:      string(p.ScentFamily),
		Brand:            p.Brand,
		Featured:         p.Featured,
		IsNew:            p.IsNew,
		Rating:           p.Rating,
		ReviewCount:      p.ReviewCount,
		InStock:          p.InStock,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for _, im := range p.Images {
		d.Images = append(d.Images, imageDoc{URL: im.URL, Alt: im.Alt})
	}
	for _, sz := range p.Sizes {
		d.Sizes = append(d.Sizes, sizeDoc{Volume: sz.Volume, Price: sz.Price, InStock: sz.InStock})
	}
	return d
}

func (d productDoc) toDomain() domain.Product {
	p := domain.Product{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Slug:             d.Slug,
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		Price:            d.Price,
		OriginalPrice:    d.OriginalPrice,
		Images:           make([]domain.Image, 0, len(d.Images)),
		Sizes:            make([]domain.Size, 0, len(d.Sizes)),
		ScentFamily:      domain.ScentFamily(d.ScentFamily),
		Brand:            d.Brand,
		Featured:         d.Featured,
		IsNew:            d.IsNew,
		Rating:           d.Rating,
		ReviewCount:      d.ReviewCount,
		InStock:          d.InStock,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
	for _, im := range d.Images {
		p.Images = append(p.Images, domain.Image{URL: im.URL, Alt: im.Alt})
	}
	for _, sz := range d.Sizes {
		p.Sizes = append(p.Sizes, domain.Size{Volume: sz.Volume, Price: sz.Price, InStock: sz.InStock})
	}
	return p
}

func toReviewDoc(r domain.Review, id, productID primitive.ObjectID) reviewDoc {
	return reviewDoc{
		ID:           id,
		ProductID:    productID,
		CustomerName: r.CustomerName,
		Rating:       r.Rating,
		Title:        r.Title,
		Comment:      r.Comment,
		Verified:     r.Verified,
		Helpful:      r.Helpful,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:           d.ID.Hex(),
		ProductID:    d.ProductID.Hex(),
		CustomerName: d.CustomerName,
		Rating:       d.Rating,
		Title:        d.Title,
		Comment:      d.Comment,
		Verified:     d.Verified,
		Helpful:      d.Helpful,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// objectID parses an id, assigning a fresh one when empty.
func objectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	return primitive.ObjectIDFromHex(id)
}
