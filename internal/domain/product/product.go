package product

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/geocoder89/marketlink/internal/domain/user"
)

type Condition string

const (
	ConditionNew         Condition = "New"
	ConditionUsed        Condition = "Used"
	ConditionRefurbished Condition = "Refurbished"
)

var Conditions = []Condition{ConditionNew, ConditionUsed, ConditionRefurbished}

// CategoryAll is the feed sentinel meaning "no category filter".
const CategoryAll = "All"

var Categories = []string{
	"Electronics",
	"Fashion",
	"Home & Garden",
	"Beauty & Health",
	"Phones & Tablets",
	"Vehicles",
	"Real Estate",
	"Services",
	"Jobs",
	"Babies & Kids",
}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

var ErrNotFound = errors.New("product not found")

// Image is an opaque URL plus an optional storage identifier.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

// UnmarshalJSON accepts both a bare URL string and an object.
func (i *Image) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.URL)
	}

	type plain Image
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = Image(p)
	return nil
}

// SellerRef is either a bare seller id or an embedded user.
type SellerRef struct {
	ID   string
	User *user.User
}

// IsZero reports a product with no seller attached; such a product encodes
// without a "seller" key.
func (s SellerRef) IsZero() bool {
	return s.ID == "" && s.User == nil
}

func (s SellerRef) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	if s.User != nil {
		return json.Marshal(s.User)
	}
	return json.Marshal(s.ID)
}

func (s *SellerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = SellerRef{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		s.User = nil
		return json.Unmarshal(data, &s.ID)
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	s.ID = u.ID
	s.User = &u
	return nil
}

type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"sellerId,omitempty"`
	Seller      SellerRef `json:"seller,omitzero"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Condition   Condition `json:"condition"`
	Location    string    `json:"location,omitempty"`
	Images      []Image   `json:"images"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON normalises "_id" and the two seller reference shapes so that
// SellerID is always populated when the backend sent either of them.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*p = Product(aux.plain)
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	if p.SellerID == "" {
		p.SellerID = p.Seller.ID
	}
	if p.Seller.ID == "" {
		p.Seller.ID = p.SellerID
	}

	return nil
}

// OwnedBy reports whether the given user id is the seller of the product.
func (p Product) OwnedBy(userID string) bool {
	return userID != "" && p.SellerID == userID
}

// CoverImage is the first image URL or "".
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// with pointers if optional, it will be nil
type ListProductsFilter struct {
	Category string
	Search   string
	SellerID string
}

type CreateProductRequest struct {
	SellerID    string    `json:"sellerId" validate:"required"`
	Title       string    `json:"title" validate:"required,min=2,max=120"`
	Description string    `json:"description" validate:"omitempty,max=5000"`
	Price       float64   `json:"price" validate:"gte=0"`
	Category    string    `json:"category" validate:"required"`
	Condition   Condition `json:"condition" validate:"required,oneof=New Used Refurbished"`
	Location    string    `json:"location,omitempty" validate:"omitempty,max=120"`
	Images      []string  `json:"images"`
}

// UpdateProductRequest is a partial update; nil fields are left untouched.
type UpdateProductRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string    `json:"category,omitempty"`
	Condition   *Condition `json:"condition,omitempty" validate:"omitempty,oneof=New Used Refurbished"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=120"`
	Images      []string   `json:"images,omitempty"`
}
