// Package browse builds the head unit's browsable content tree.
package browse

// Reserved node ids.
const (
	RootID           = "__root__"
	RecentlyPlayedID = "__recent__"
)

// Node is one entry in a browse list.
type Node struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	Playable  bool   `json:"playable"`
	Browsable bool   `json:"browsable"`
}

// Tree maps node ids to their ordered children. Every id referenced as
// browsable has an entry, possibly empty.
type Tree map[string][]Node

// Children returns the ordered children of the given node id.
func (t Tree) Children(id string) []Node {
	return t[id]
}
