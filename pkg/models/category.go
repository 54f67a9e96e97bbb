package models

// PacketCategory is the closed set of traffic classes tracked per hourly window.
type PacketCategory string

const (
	CategoryPosition  PacketCategory = "position"
	CategoryNodeInfo  PacketCategory = "nodeinfo"
	CategoryTelemetry PacketCategory = "telemetry"
	CategoryText      PacketCategory = "text"
	CategoryOther     PacketCategory = "other"
)

// AllCategories lists every category in counter-column order.
var AllCategories = []PacketCategory{
	CategoryPosition,
	CategoryNodeInfo,
	CategoryTelemetry,
	CategoryText,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c PacketCategory) Valid() bool {
	switch c {
	case CategoryPosition, CategoryNodeInfo, CategoryTelemetry, CategoryText, CategoryOther:
		return true
	}
	return false
}
