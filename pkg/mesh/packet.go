package mesh

// Packet is the normalized view of one inbound bus message: only the fields
// the pipeline acts on, with everything optional except the sender.
type Packet struct {
	// SenderID is the raw sender identifier as it appeared on the wire
	// (decimal, hex, or "!"-prefixed). Run it through NormalizeNodeID
	// before using it as a key.
	SenderID string
	// HopLimit is the remaining relay hop allowance, when the packet carried one.
	HopLimit *uint32
	// Port identifies the application payload type, numeric or symbolic.
	Port PortRef
	// Text is the embedded text payload, if any.
	Text string
}

// PortRef carries a port value in whichever encoding the wire used. Either
// field may be unset; classification treats both uniformly.
type PortRef struct {
	Name string
	Num  *int32
}

// HasPort reports whether any port information was present.
func (p PortRef) HasPort() bool {
	return p.Name != "" || p.Num != nil
}
