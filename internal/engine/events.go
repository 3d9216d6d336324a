package engine

import (
	"time"

	"github.com/google/uuid"
)

// Event verbs.
const (
	VerbFollow   = "follow"
	VerbUnfollow = "unfollow"
	VerbLike     = "like"
	VerbUnlike   = "unlike"
	VerbComment  = "comment"
	VerbView     = "view"
)

// Event describes one social action after the ledger has recorded it.
// Each successful state change produces exactly one event, identified by
// EventID; the notifier derives at most one notification per event (plus
// a reply notification when a comment has a parent).
type Event struct {
	EventID     string
	Verb        string
	ActorID     uint
	TargetOwner uint   // owner of the thing acted on; recipient of any notification
	VideoID     string // set for like/comment/view on content
	CommentID   *uint  // set for comment likes and replies
	OccurredAt  time.Time
}

// NewEvent builds an Event with a fresh ID and timestamp.
func NewEvent(verb string, actorID, targetOwner uint) Event {
	return Event{
		EventID:     uuid.NewString(),
		Verb:        verb,
		ActorID:     actorID,
		TargetOwner: targetOwner,
		OccurredAt:  time.Now().UTC(),
	}
}
