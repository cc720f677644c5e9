package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventUserFollowed   = "user.followed"
	EventUserUnfollowed = "user.unfollowed"
)

const (
	StreamFeed        = "stream:feed"
	ConsumerGroupFeed = "feed_workers"
)

// FeedEvent is the single payload shape carried on the feed stream. Post
// events fill PostID, AuthorID and PostTime; follow events fill FollowerID
// and FolloweeID.
type FeedEvent struct {
	Type       string `json:"type"`
	OccurredAt int64  `json:"occurred_at"`

	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`
	// PostTime is the post's creation time in microseconds, the same unit the
	// feed cache scores with.
	PostTime int64 `json:"post_time,omitempty"`

	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`
}

func NewPostCreatedEvent(postID, authorID int64, createdAt time.Time) FeedEvent {
	return FeedEvent{
		Type:       EventPostCreated,
		OccurredAt: time.Now().Unix(),
		PostID:     postID,
		AuthorID:   authorID,
		PostTime:   createdAt.UnixMicro(),
	}
}

func NewPostDeletedEvent(postID, authorID int64) FeedEvent {
	return FeedEvent{
		Type:       EventPostDeleted,
		OccurredAt: time.Now().Unix(),
		PostID:     postID,
		AuthorID:   authorID,
	}
}

func NewUserFollowedEvent(followerID, followeeID int64) FeedEvent {
	return FeedEvent{
		Type:       EventUserFollowed,
		OccurredAt: time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

func NewUserUnfollowedEvent(followerID, followeeID int64) FeedEvent {
	return FeedEvent{
		Type:       EventUserUnfollowed,
		OccurredAt: time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// ToValues encodes the event as stream fields. The type is duplicated outside
// the JSON body so it shows up in XRANGE output without decoding.
func (e FeedEvent) ToValues() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal feed event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("feed event: missing data field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal feed event: %w", err)
	}
	return event, nil
}
