package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"chirpfeed/internal/model"
	"chirpfeed/internal/repository"
	"chirpfeed/internal/storage"
)

// UserService serves profiles and profile edits. Accounts are created
// upstream; this service never creates or deletes users.
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
	feed       *FeedService
	images     ImageStore
}

func NewUserService(
	repo repository.UserRepository,
	followRepo repository.FollowRepository,
	feed *FeedService,
	images ImageStore,
) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
		feed:       feed,
		images:     images,
	}
}

// GetProfile returns username's public profile as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, viewerID int64, username string) (*model.Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.GetFollowerIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.GetFolloweeIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.feed.ByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		ID:              user.ID,
		Username:        user.Username,
		FullName:        user.FullName,
		Bio:             user.Bio,
		Link:            user.Link,
		ProfileImageURL: user.ProfileImageURL,
		CoverImageURL:   user.CoverImageURL,
		Followers:       orEmpty(followers),
		Following:       orEmpty(following),
		IsFollowing:     slices.Contains(followers, viewerID),
		CreatedAt:       user.CreatedAt,
		Posts:           posts,
	}, nil
}

// UpdateProfile applies the non-empty fields of req to userID.
//
// A password change needs both the current and the new password; the current
// one must match and the new one must be at least MinPasswordLength long.
// A new profile or cover image replaces the old object, and the old object is
// deleted only once the row points at the new one.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := applyPasswordChange(user, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(req.FullName); v != "" {
		user.FullName = v
	}
	if v := strings.TrimSpace(req.Email); v != "" {
		user.Email = strings.ToLower(v)
	}
	if v := strings.TrimSpace(req.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(req.Bio); v != "" {
		user.Bio = &v
	}
	if v := strings.TrimSpace(req.Link); v != "" {
		user.Link = &v
	}

	var uploaded, replaced []string
	cleanup := func(keys []string) {
		for _, key := range keys {
			if err := s.images.DeleteImage(ctx, key); err != nil {
				log.Printf("[UserService] failed to delete image key=%s: %v", key, err)
			}
		}
	}

	if req.ProfileImage != nil {
		stored, err := s.images.StoreImage(ctx, storage.ProfileImage, req.ProfileImage)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, stored.Key)
		if user.ProfileImageKey != nil {
			replaced = append(replaced, *user.ProfileImageKey)
		}
		user.ProfileImageURL, user.ProfileImageKey = &stored.URL, &stored.Key
	}
	if req.CoverImage != nil {
		stored, err := s.images.StoreImage(ctx, storage.CoverImage, req.CoverImage)
		if err != nil {
			cleanup(uploaded)
			return nil, err
		}
		uploaded = append(uploaded, stored.Key)
		if user.CoverImageKey != nil {
			replaced = append(replaced, *user.CoverImageKey)
		}
		user.CoverImageURL, user.CoverImageKey = &stored.URL, &stored.Key
	}

	if err := s.repo.Update(ctx, user); err != nil {
		cleanup(uploaded)
		return nil, err
	}
	cleanup(replaced)

	log.Printf("[UserService] updated profile user=%d images=%d", userID, len(uploaded))
	return user, nil
}

func applyPasswordChange(user *model.User, current, next string) error {
	if current == "" && next == "" {
		return nil
	}
	if current == "" || next == "" {
		return model.ErrPasswordPairRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return model.ErrPasswordIncorrect
	}
	if utf8.RuneCountInString(next) < model.MinPasswordLength {
		return model.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	return nil
}
