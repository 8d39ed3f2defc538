package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"

	"scentshop/internal/domain"
)

// productFilter translates listing constraints into a query document.
func productFilter(f domain.ProductFilter) bson.M {
	q := bson.M{}
	if f.ScentFamily != "" {
		q["scentFamily"] = f.ScentFamily
	}
	if f.Featured {
		q["featured"] = true
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price"] = price
	}
	if f.Search != "" {
		q["$text"] = bson.M{"$search": f.Search}
	}
	return q
}

var productOrder = bson.D{
	{Key: "featured", Value: -1},
	{Key: "createdAt", Value: -1},
	{Key: "_id", Value: -1},
}

func reviewOrder(s domain.ReviewSort) bson.D {
	keys := s.Keys()
	out := make(bson.D, 0, len(keys)+1)
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: k.Field, Value: dir})
	}
	return append(out, bson.E{Key: "_id", Value: -1})
}
