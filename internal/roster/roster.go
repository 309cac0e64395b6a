package roster

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Control is the seat control kind from the lobby.
type Control int

const (
	ControlOpen Control = iota
	ControlClosed
	ControlHuman
	ControlComputer
)

var controlNames = map[Control]string{
	ControlOpen:     "open",
	ControlClosed:   "closed",
	ControlHuman:    "human",
	ControlComputer: "computer",
}

var controlByName = map[string]Control{
	"open":     ControlOpen,
	"closed":   ControlClosed,
	"human":    ControlHuman,
	"computer": ControlComputer,
}

func (c Control) String() string {
	if s, ok := controlNames[c]; ok {
		return s
	}
	return fmt.Sprintf("control(%d)", int(c))
}

func (c Control) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Control) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := controlByName[s]
	if !ok {
		return fmt.Errorf("unknown control kind %q", s)
	}
	*c = v
	return nil
}

// Player is one roster entry. Built once per replay from the decoded lobby
// data; never mutated afterwards.
type Player struct {
	Slot          int     `json:"slot"`
	ParticipantID int     `json:"pid,omitempty"`
	UserID        int     `json:"uid,omitempty"`
	Name          string  `json:"name"`
	Clan          string  `json:"clan,omitempty"`
	Control       Control `json:"control"`
	Handle        string  `json:"handle,omitempty"`
	WorkingSlot   int     `json:"working_slot,omitempty"`
	Color         Color   `json:"color,omitempty"`
}

// Registry resolves event player slots to roster entries. Slot lookup is
// O(1); listing is ordered by slot for reports.
type Registry struct {
	bySlot  map[int]*Player
	ordered []*Player
}

// NewRegistry builds a registry from roster entries. Duplicate slots are a
// construction-time error.
func NewRegistry(players []Player) (*Registry, error) {
	r := &Registry{bySlot: make(map[int]*Player, len(players))}
	for i := range players {
		p := players[i]
		if p.Slot < 0 {
			return nil, fmt.Errorf("player %q: negative slot %d", p.Name, p.Slot)
		}
		if _, ok := r.bySlot[p.Slot]; ok {
			return nil, fmt.Errorf("duplicate slot %d", p.Slot)
		}
		cp := p
		r.bySlot[p.Slot] = &cp
		r.ordered = append(r.ordered, &cp)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].Slot < r.ordered[j].Slot })
	return r, nil
}

func (r *Registry) BySlot(slot int) (*Player, bool) {
	p, ok := r.bySlot[slot]
	return p, ok
}

// Players returns the roster ordered by slot.
func (r *Registry) Players() []*Player { return r.ordered }

func (r *Registry) Len() int { return len(r.ordered) }
