package mesh

import (
	"testing"

	"github.com/dbertolani/noise-guard/pkg/models"
)

func num(n int32) *int32 { return &n }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		port PortRef
		want models.PacketCategory
	}{
		{"position symbolic", PortRef{Name: "POSITION_APP"}, models.CategoryPosition},
		{"position short", PortRef{Name: "POSITION"}, models.CategoryPosition},
		{"position lowercase", PortRef{Name: "position_app"}, models.CategoryPosition},
		{"position numeric", PortRef{Num: num(4)}, models.CategoryPosition},
		{"nodeinfo symbolic", PortRef{Name: "NODEINFO_APP"}, models.CategoryNodeInfo},
		{"nodeinfo numeric", PortRef{Num: num(3)}, models.CategoryNodeInfo},
		{"telemetry symbolic", PortRef{Name: "TELEMETRY_APP"}, models.CategoryTelemetry},
		{"telemetry legacy ordinal", PortRef{Num: num(8)}, models.CategoryTelemetry},
		{"telemetry wire number", PortRef{Num: num(67)}, models.CategoryTelemetry},
		{"text symbolic", PortRef{Name: "TEXT_MESSAGE_APP"}, models.CategoryText},
		{"text short", PortRef{Name: "TEXT"}, models.CategoryText},
		{"text numeric", PortRef{Num: num(1)}, models.CategoryText},
		{"unknown symbolic", PortRef{Name: "ADMIN_APP"}, models.CategoryOther},
		{"unknown numeric", PortRef{Num: num(70)}, models.CategoryOther},
		{"absent", PortRef{}, models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.port); got != tt.want {
				t.Errorf("Classify(%+v) = %q, want %q", tt.port, got, tt.want)
			}
		})
	}
}
