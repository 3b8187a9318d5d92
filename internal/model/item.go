package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is a found item reported to the registry.
type Item struct {
	ID          int64     `json:"id"`
	UUID        uuid.UUID `json:"uuid"`
	UserID      int64     `json:"-"`
	UserName    string    `json:"user_name"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	DateFound   string    `json:"date_found"`
	Image       string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	Claimed     bool      `json:"claimed"`
}

// Item categories.
const (
	CategoryElectronics = "electronics"
	CategoryDocuments   = "documents"
	CategoryClothing    = "clothing"
	CategoryAccessories = "accessories"
	CategoryOther       = "other"
)

// Categories lists every valid category in display order.
var Categories = []string{
	CategoryElectronics,
	CategoryDocuments,
	CategoryClothing,
	CategoryAccessories,
	CategoryOther,
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// MaxItemNameLength is the longest accepted item name.
const MaxItemNameLength = 120

// DateLayout is the wire and storage format of DateFound.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// claimedLiterals maps every accepted string form of the claimed flag.
var claimedLiterals = map[string]bool{
	"true":  true,
	"True":  true,
	"1":     true,
	"false": false,
	"False": false,
	"0":     false,
}

// ParseClaimed resolves a loosely typed claimed value. Accepted inputs are
// booleans, the strings in claimedLiterals, and the integers 1 and 0 (in any
// numeric type JSON or form decoding may produce). ok is false for anything
// else, including nil.
func ParseClaimed(v any) (claimed bool, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		claimed, ok = claimedLiterals[x]
		return claimed, ok
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return fromNumber(f)
		}
		return false, false
	case int:
		return fromNumber(float64(x))
	case int64:
		return fromNumber(float64(x))
	case float64:
		return fromNumber(x)
	}
	return false, false
}

func fromNumber(f float64) (bool, bool) {
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}
