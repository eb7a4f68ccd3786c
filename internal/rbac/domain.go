package rbac

// Action is an atomic capability verb on a module.
type Action string

const (
	ActionCreate Action = "can_create"
	ActionRead   Action = "can_read"
	ActionUpdate Action = "can_update"
	ActionDelete Action = "can_delete"
)

// Capability identifies one permission cell.
type Capability struct {
	Module string `json:"module"`
	Action Action `json:"action"`
}

// PermissionSet is the resolved capability table for one user. A panel-wide
// full-access flag short-circuits every module check under that panel.
type PermissionSet struct {
	PanelFullAccess map[string]bool     `json:"panelFullAccess"`
	Capabilities    map[Capability]bool `json:"-"`

	// CapabilityList exists only for JSON round-tripping through the cache;
	// map keys with struct type do not marshal.
	CapabilityList []Capability `json:"capabilities"`
}

// Allows reports whether the set grants the given action. The panel-wide
// flag is checked first, then the module/action cell.
func (s PermissionSet) Allows(panel, module string, action Action) bool {
	if s.PanelFullAccess[panel] {
		return true
	}
	return s.Capabilities[Capability{Module: module, Action: action}]
}

// Seal rebuilds the lookup map after the set has been decoded from JSON.
func (s *PermissionSet) Seal() {
	s.Capabilities = make(map[Capability]bool, len(s.CapabilityList))
	for _, c := range s.CapabilityList {
		s.Capabilities[c] = true
	}
}

// Pack flattens the lookup map so the set can be encoded to JSON.
func (s *PermissionSet) Pack() {
	s.CapabilityList = s.CapabilityList[:0]
	for c, ok := range s.Capabilities {
		if ok {
			s.CapabilityList = append(s.CapabilityList, c)
		}
	}
}
