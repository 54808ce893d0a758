package chordbook

//go:generate mockgen -source=gateway.go -destination=../mocks/chordbook/mock_gateway.go -package=mock_chordbook

import "context"

// Gateway is the server's playbook and song API. Each call is exactly one
// request; implementations never retry. Non-2xx answers are returned as
// *RemoteError. Returned entities carry server ids and no local-only state.
type Gateway interface {
	ListPlaybooks(ctx context.Context, userID string) ([]*Playbook, error)
	GetPlaybook(ctx context.Context, id string) (*Playbook, error)
	CreatePlaybook(ctx context.Context, pb *Playbook) (*Playbook, error)
	UpdatePlaybook(ctx context.Context, id string, patch PlaybookPatch) (*Playbook, error)
	DeletePlaybook(ctx context.Context, id string) error

	ListSongs(ctx context.Context, userID string) ([]*Song, error)
	GetSong(ctx context.Context, id string) (*Song, error)
	CreateSong(ctx context.Context, s *Song) (*Song, error)
	UpdateSong(ctx context.Context, id string, patch SongPatch) (*Song, error)
	DeleteSong(ctx context.Context, id string) error
}

// Connectivity reports whether the server is believed reachable.
type Connectivity interface {
	// CheckNow never fails; anything it cannot determine counts as offline.
	CheckNow(ctx context.Context) bool
	// Subscribe registers fn for reachability transitions. Identical
	// consecutive states are not reported twice.
	Subscribe(fn func(online bool)) (unsubscribe func())
}
