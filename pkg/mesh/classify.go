package mesh

import (
	"strings"

	"github.com/dbertolani/noise-guard/pkg/models"
)

// Classify maps a port reference to its traffic category. It is total:
// unknown or absent ports classify as "other", never an error. Symbolic
// names are matched case-insensitively with or without the "_APP" suffix;
// numeric values accept both the protobuf wire numbers and the legacy
// telemetry ordinal 8 seen in older JSON uplinks.
func Classify(port PortRef) models.PacketCategory {
	if name := strings.ToUpper(port.Name); name != "" {
		switch strings.TrimSuffix(name, "_APP") {
		case "POSITION":
			return models.CategoryPosition
		case "NODEINFO":
			return models.CategoryNodeInfo
		case "TELEMETRY":
			return models.CategoryTelemetry
		case "TEXT_MESSAGE", "TEXT":
			return models.CategoryText
		}
		return models.CategoryOther
	}
	if port.Num != nil {
		switch *port.Num {
		case 3:
			return models.CategoryNodeInfo
		case 4:
			return models.CategoryPosition
		case 67, 8:
			return models.CategoryTelemetry
		case 1:
			return models.CategoryText
		}
	}
	return models.CategoryOther
}
