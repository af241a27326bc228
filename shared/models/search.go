package models

import (
	"fmt"

	"github.com/cafein/cafein-server/shared/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps (Number-1)*Size far from int overflow.
	MaxPageNumber = 10000
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw query values into a usable page.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// FilterCondition is the optional criteria applied to a cafe search. Zero
// values mean "don't care"; a true facility flag means the cafe must have it.
type FilterCondition struct {
	Keyword             string `form:"keyword" validate:"max=100"`
	Region              string `form:"region" validate:"max=100"`
	IsOpenAllTime       bool   `form:"isOpenAllTime"`
	IsChargingAvailable bool   `form:"isChargingAvailable"`
	HasParking          bool   `form:"hasParking"`
	IsPetFriendly       bool   `form:"isPetFriendly"`
	HasDessert          bool   `form:"hasDessert"`
	OpenNow             bool   `form:"openNow"`
}

// SortOrder is the closed set of orderings a cafe search supports.
type SortOrder int

const (
	SortDefault SortOrder = iota
	SortByBookmarkCount
	SortByRating
	SortByPostCount
	SortByCreatedAt
)

var sortOrderKeys = map[string]SortOrder{
	"countBookmark": SortByBookmarkCount,
	"rating":        SortByRating,
	"countPost":     SortByPostCount,
	"createdAt":     SortByCreatedAt,
}

// ParseSortOrder turns a client-supplied key into a SortOrder. Anything
// outside the four known keys is a validation failure.
func ParseSortOrder(key string) (SortOrder, error) {
	order, ok := sortOrderKeys[key]
	if !ok {
		return SortDefault, apperr.Validation(fmt.Sprintf("unsupported sort order %q", key))
	}
	return order, nil
}

func (o SortOrder) String() string {
	for key, order := range sortOrderKeys {
		if order == o {
			return key
		}
	}
	return "default"
}
