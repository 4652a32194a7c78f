package model

import "time"

// UnitType classifies an organizational unit. The set is closed; unit
// creation rejects anything outside it.
type UnitType string

const (
	UnitCPOR    UnitType = "CPOR"
	UnitCPOE    UnitType = "CPOE"
	UnitBPM     UnitType = "BPM"
	UnitCiaInd  UnitType = "CIA_IND"
	UnitCia     UnitType = "CIA"
	UnitCOPOM   UnitType = "COPOM"
	UnitPelotao UnitType = "PELOTAO"
	UnitOutro   UnitType = "OUTRO"
)

// String returns the string representation of the unit type.
func (t UnitType) String() string {
	return string(t)
}

// IsValid checks whether the unit type is a known value.
func (t UnitType) IsValid() bool {
	switch t {
	case UnitCPOR, UnitCPOE, UnitBPM, UnitCiaInd, UnitCia, UnitCOPOM, UnitPelotao, UnitOutro:
		return true
	}
	return false
}

// Unit is a node in the organizational command hierarchy (battalion,
// company, platoon, ...). Units form a forest: ParentID is nil for roots.
// Units are soft-deleted by clearing Active; rows are never removed by
// normal operation.
type Unit struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parent_id"`
	Sigla     string    `json:"sigla"`
	Type      UnitType  `json:"tipo"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnitNode is a unit with its children resolved, used by the tree endpoint.
type UnitNode struct {
	Unit
	Children []*UnitNode `json:"filhos"`
}

// UnitFilter narrows ListUnits results.
type UnitFilter struct {
	// ActiveOnly limits results to units that have not been soft-deleted.
	ActiveOnly bool
}

// BuildUnitTree assembles the unit forest from a flat slice. Children are
// appended in input order; units whose parent is missing from the input
// (other than roots) are dropped, matching how the original admin tree view
// behaved with inactive parents filtered out.
func BuildUnitTree(units []*Unit) []*UnitNode {
	nodes := make(map[string]*UnitNode, len(units))
	for _, u := range units {
		nodes[u.ID] = &UnitNode{Unit: *u, Children: []*UnitNode{}}
	}

	var roots []*UnitNode
	for _, u := range units {
		if u.ParentID == nil {
			roots = append(roots, nodes[u.ID])
			continue
		}
		if parent, ok := nodes[*u.ParentID]; ok {
			parent.Children = append(parent.Children, nodes[u.ID])
		}
	}
	return roots
}
