package gacha

// SortField identifies a server-side sort column for card listings.
type SortField string

// Sort fields accepted by the storage service.
const (
	SortByPointWorth SortField = "point_worth"
	SortByCardName   SortField = "card_name"
	SortByStockDate  SortField = "date_got_in_stock"
	SortByQuantity   SortField = "quantity"
	SortByRarity     SortField = "rarity"
)

// SortFields returns every accepted sort field, default first.
func SortFields() []SortField {
	return []SortField{SortByPointWorth, SortByCardName, SortByStockDate, SortByQuantity, SortByRarity}
}

// Valid reports whether the field is one the storage service accepts.
func (f SortField) Valid() bool {
	switch f {
	case SortByPointWorth, SortByCardName, SortByStockDate, SortByQuantity, SortByRarity:
		return true
	}
	return false
}

// SortOrder is the direction of a server-side sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether the order is "asc" or "desc".
func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// Defaults applied by both the storage service and the browser when a
// parameter is unset.
const (
	DefaultSortField SortField = SortByPointWorth
	DefaultSortOrder SortOrder = SortDesc
	DefaultPerPage             = 10
)

// PerPageOptions is the fixed set of page sizes the browser offers.
// The storage service itself accepts anything in 1..100.
var PerPageOptions = []int{10, 25, 50, 100}

// ValidPerPage reports whether n is one of the offered page sizes.
func ValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
