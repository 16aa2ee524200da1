package browse

import "drivesync/internal/catalog"

// EmptyHistoryPolicy controls what the tree shows when nothing has been
// played yet.
type EmptyHistoryPolicy int

const (
	// OmitFolder leaves the "Recently Played" folder out entirely.
	OmitFolder EmptyHistoryPolicy = iota
	// ShowMessage shows the folder with a single non-playable message row.
	ShowMessage
)

// Options configure tree construction.
type Options struct {
	EmptyHistory EmptyHistoryPolicy
	FolderTitle  string // defaults to "Recently Played"
	EmptyMessage string // defaults to "Nothing played yet"
}

func (o Options) folderTitle() string {
	if o.FolderTitle == "" {
		return "Recently Played"
	}
	return o.FolderTitle
}

func (o Options) emptyMessage() string {
	if o.EmptyMessage == "" {
		return "Nothing played yet"
	}
	return o.EmptyMessage
}

// Build maps a catalog and a play history to a browse tree. Pure: the same
// inputs always produce the same tree.
//
// The root lists the "Recently Played" folder first (when present per the
// policy), then all catalog tracks as playable leaves in catalog order. The
// folder lists history entries most recent first.
func Build(catalogTracks, historyTracks []catalog.Track, opts Options) Tree {
	tree := Tree{}

	root := make([]Node, 0, len(catalogTracks)+1)

	showFolder := len(historyTracks) > 0 || opts.EmptyHistory == ShowMessage
	if showFolder {
		root = append(root, Node{
			ID:        RecentlyPlayedID,
			Title:     opts.folderTitle(),
			Browsable: true,
		})

		recent := make([]Node, 0, len(historyTracks))
		if len(historyTracks) == 0 {
			recent = append(recent, Node{
				ID:    RecentlyPlayedID + "/empty",
				Title: opts.emptyMessage(),
			})
		}
		for _, t := range historyTracks {
			recent = append(recent, trackNode(t))
		}
		tree[RecentlyPlayedID] = recent
	}

	for _, t := range catalogTracks {
		root = append(root, trackNode(t))
	}
	tree[RootID] = root

	return tree
}

func trackNode(t catalog.Track) Node {
	return Node{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Playable: true,
	}
}
