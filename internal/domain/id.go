package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-hex-character object id. Every store adapter uses
// the same identifier form so that GetByIdentifier behaves identically.
func NewID() string { return primitive.NewObjectID().Hex() }

func IsValidID(s string) bool { return primitive.IsValidObjectID(s) }
