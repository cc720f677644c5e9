package service

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/model"
	"chirpfeed/internal/queue"
	"chirpfeed/internal/repository"
)

const (
	DefaultSuggestionSampleSize = 10
	DefaultSuggestionLimit      = 4
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it, so
// tests pass a seeded source.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type SuggestionConfig struct {
	// SampleSize is how many random candidates are drawn per round before
	// followed users are filtered out.
	SampleSize int
	// Limit is the maximum number of suggestions returned.
	Limit    int
	Shuffler Shuffler
}

type GraphService struct {
	db            *sqlx.DB
	userRepo      repository.UserRepository
	followRepo    repository.FollowRepository
	notifications *NotificationService
	feeds         cache.FeedCache
	publisher     queue.Publisher
	suggest       SuggestionConfig
}

func NewGraphService(
	db *sqlx.DB,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	notifications *NotificationService,
	feeds cache.FeedCache,
	publisher queue.Publisher,
	suggest SuggestionConfig,
) *GraphService {
	if suggest.SampleSize <= 0 {
		suggest.SampleSize = DefaultSuggestionSampleSize
	}
	if suggest.Limit <= 0 {
		suggest.Limit = DefaultSuggestionLimit
	}
	if suggest.Shuffler == nil {
		suggest.Shuffler = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &GraphService{
		db:            db,
		userRepo:      userRepo,
		followRepo:    followRepo,
		notifications: notifications,
		feeds:         feeds,
		publisher:     publisher,
		suggest:       suggest,
	}
}

// FollowUnfollow toggles requesterID following targetID. Only the follow
// transition notifies the target.
func (s *GraphService) FollowUnfollow(ctx context.Context, requesterID, targetID int64) (*model.FollowResult, error) {
	if requesterID == targetID {
		return nil, model.ErrCannotFollowSelf
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.followRepo.Delete(ctx, tx, requesterID, targetID)
	if err != nil {
		return nil, err
	}

	if !removed {
		created, err := s.followRepo.Create(ctx, tx, requesterID, targetID)
		if err != nil {
			return nil, err
		}
		if created {
			if _, err := s.notifications.Emit(ctx, tx, requesterID, targetID, model.NotificationTypeFollow, nil); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	following := !removed
	s.afterGraphChange(ctx, requesterID, targetID, following)

	log.Printf("[GraphService] follow requester=%d target=%d following=%t", requesterID, targetID, following)
	return &model.FollowResult{Following: following}, nil
}

// afterGraphChange drops the requester's cached following feed right away so
// the next read reflects the new graph, then publishes the event the cache
// workers use.
func (s *GraphService) afterGraphChange(ctx context.Context, requesterID, targetID int64, following bool) {
	if s.feeds != nil {
		if err := s.feeds.Invalidate(ctx, requesterID); err != nil {
			log.Printf("[GraphService] feed invalidate failed user=%d: %v", requesterID, err)
		}
	}

	event := queue.NewUserUnfollowedEvent(requesterID, targetID)
	if following {
		event = queue.NewUserFollowedEvent(requesterID, targetID)
	}
	queue.PublishFeedEvent(ctx, s.publisher, event)
}

// SuggestUsers returns up to Limit random users that requesterID neither is
// nor follows.
//
// Candidates are drawn SampleSize at a time from a shuffled pool and
// filtered. Drawing continues until Limit is reached or the pool runs out, so
// the result is short only when fewer eligible users exist.
func (s *GraphService) SuggestUsers(ctx context.Context, requesterID int64) ([]model.UserSummary, error) {
	pool, err := s.userRepo.ListIDsExcept(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	followees, err := s.followRepo.GetFolloweeIDs(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	following := make(map[int64]struct{}, len(followees))
	for _, id := range followees {
		following[id] = struct{}{}
	}

	s.suggest.Shuffler.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	picked := make([]int64, 0, s.suggest.Limit)
	for start := 0; start < len(pool) && len(picked) < s.suggest.Limit; start += s.suggest.SampleSize {
		end := min(start+s.suggest.SampleSize, len(pool))
		for _, id := range pool[start:end] {
			if _, ok := following[id]; ok {
				continue
			}
			picked = append(picked, id)
			if len(picked) == s.suggest.Limit {
				break
			}
		}
	}

	if len(picked) == 0 {
		return []model.UserSummary{}, nil
	}
	return s.userRepo.GetSummariesByIDs(ctx, picked)
}
