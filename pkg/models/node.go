package models

import "time"

// Node is a mesh radio device keyed by its canonical lowercase hex ID
// (no "!" prefix, no leading zero padding).
type Node struct {
	NodeNum      string    `db:"node_num"`
	ShortName    *string   `db:"short_name"`
	LongName     *string   `db:"long_name"`
	LoraItaliaID *int64    `db:"loraitalia_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// PrettyID returns the node ID in the conventional "!hex" form.
func (n *Node) PrettyID() string {
	return "!" + n.NodeNum
}

// DisplayName returns the best available name: long name, then short name,
// then the bare hex ID.
func (n *Node) DisplayName() string {
	if n.LongName != nil && *n.LongName != "" {
		return *n.LongName
	}
	if n.ShortName != nil && *n.ShortName != "" {
		return *n.ShortName
	}
	return n.NodeNum
}

// NodeOverview is the status-API projection of a node with its binding count.
type NodeOverview struct {
	NodeNum     string  `db:"node_num" json:"node_id"`
	DisplayName string  `db:"display_name" json:"display_name"`
	ShortName   *string `db:"short_name" json:"short_name,omitempty"`
	LongName    *string `db:"long_name" json:"long_name,omitempty"`
	Bindings    int     `db:"bindings" json:"bindings"`
}
