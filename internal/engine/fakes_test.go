package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

// In-memory stores backing the engine tests. The follow store applies
// the counter pair under the same lock as the fact flip, mirroring the
// transactional behavior of the Postgres implementation.

type fakeUsers struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUsers(ids ...uint) *fakeUsers {
	f := &fakeUsers{users: make(map[uint]*models.User)}
	for _, id := range ids {
		f.users[id] = &models.User{ID: id, Username: "user" + strconv.Itoa(int(id)), DisplayName: "User " + strconv.Itoa(int(id))}
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, &NotFoundError{Kind: "user", ID: strconv.Itoa(int(id))}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Exists(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUsers) AdjustCounter(_ context.Context, userID uint, field UserCounter, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adjustLocked(userID, field, delta)
}

func (f *fakeUsers) adjustLocked(userID uint, field UserCounter, delta int64) error {
	u, ok := f.users[userID]
	if !ok {
		return &NotFoundError{Kind: "user", ID: strconv.Itoa(int(userID))}
	}
	target := f.counterPtr(u, field)
	*target += delta
	if *target < 0 {
		*target = 0
	}
	return nil
}

func (f *fakeUsers) counterPtr(u *models.User, field UserCounter) *int64 {
	switch field {
	case UserFollowers:
		return &u.FollowersCount
	case UserFollowing:
		return &u.FollowingCount
	case UserTotalViews:
		return &u.TotalViews
	default:
		return &u.TotalLikes
	}
}

func (f *fakeUsers) SetCounter(_ context.Context, userID uint, field UserCounter, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return &NotFoundError{Kind: "user", ID: strconv.Itoa(int(userID))}
	}
	*f.counterPtr(u, field) = value
	return nil
}

func (f *fakeUsers) IDs(_ context.Context, afterID uint, limit int) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id := range f.users {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeVideos struct {
	mu     sync.Mutex
	videos map[string]*models.Video

	// failCounterDeltas makes the next n ApplyCounterDelta calls fail.
	failCounterDeltas int
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{videos: make(map[string]*models.Video)}
}

func (f *fakeVideos) add(ownerID uint, publishedAt time.Time, views, likes int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &models.Video{
		ID:          primitive.NewObjectID(),
		OwnerID:     ownerID,
		Title:       "video",
		Views:       views,
		Likes:       likes,
		IsPublic:    true,
		Status:      models.VideoStatusActive,
		Moderation:  models.ModerationApproved,
		PublishedAt: publishedAt,
	}
	f.videos[v.ID.Hex()] = v
	return v.ID.Hex()
}

func (f *fakeVideos) Create(_ context.Context, video *models.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if video.ID.IsZero() {
		video.ID = primitive.NewObjectID()
	}
	cp := *video
	f.videos[video.ID.Hex()] = &cp
	return nil
}

func (f *fakeVideos) GetByID(_ context.Context, id string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, &NotFoundError{Kind: "video", ID: id}
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideos) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.videos[id]; !ok {
		return &NotFoundError{Kind: "video", ID: id}
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeVideos) ApplyCounterDelta(_ context.Context, id string, field VideoCounter, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCounterDeltas > 0 {
		f.failCounterDeltas--
		return errors.New("counter store unavailable")
	}
	v, ok := f.videos[id]
	if !ok {
		return &NotFoundError{Kind: "video", ID: id}
	}
	target := f.counterPtr(v, field)
	*target += delta
	if *target < 0 {
		*target = 0
	}
	return nil
}

func (f *fakeVideos) counterPtr(v *models.Video, field VideoCounter) *int64 {
	switch field {
	case VideoViews:
		return &v.Views
	case VideoLikes:
		return &v.Likes
	case VideoComments:
		return &v.CommentsCount
	default:
		return &v.Shares
	}
}

func (f *fakeVideos) SetCounter(_ context.Context, id string, field VideoCounter, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return &NotFoundError{Kind: "video", ID: id}
	}
	*f.counterPtr(v, field) = value
	return nil
}

func (f *fakeVideos) UpdateScore(_ context.Context, id string, score, engagementRate float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return &NotFoundError{Kind: "video", ID: id}
	}
	v.RecommendationScore = score
	v.EngagementRate = engagementRate
	v.ScoreUpdatedAt = at
	return nil
}

func (f *fakeVideos) ListFeed(_ context.Context, q FeedQuery) ([]models.Video, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Video
	for _, v := range f.videos {
		if !v.IsPublic || v.Status != models.VideoStatusActive || v.Moderation != models.ModerationApproved {
			continue
		}
		if q.Category != "" && v.Category != q.Category {
			continue
		}
		if q.OwnerIDs != nil && !containsUint(q.OwnerIDs, v.OwnerID) {
			continue
		}
		if !q.PublishedAfter.IsZero() && v.PublishedAt.Before(q.PublishedAfter) {
			continue
		}
		matched = append(matched, *v)
	}
	total := int64(len(matched))
	sort.Slice(matched, func(i, j int) bool { return feedLess(q.Sort, matched[i], matched[j]) })
	if q.Offset >= len(matched) {
		return []models.Video{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func feedLess(s FeedSort, a, b models.Video) bool {
	switch s {
	case SortScore:
		if a.RecommendationScore != b.RecommendationScore {
			return a.RecommendationScore > b.RecommendationScore
		}
		return a.PublishedAt.After(b.PublishedAt)
	case SortNewest:
		return a.PublishedAt.After(b.PublishedAt)
	case SortTrending:
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		return a.Likes > b.Likes
	default:
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		if a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		return a.PublishedAt.After(b.PublishedAt)
	}
}

func containsUint(xs []uint, x uint) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (f *fakeVideos) ListByOwner(_ context.Context, ownerID uint, offset, limit int) ([]models.Video, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Video
	for _, v := range f.videos {
		if v.OwnerID == ownerID {
			matched = append(matched, *v)
		}
	}
	total := int64(len(matched))
	sort.Slice(matched, func(i, j int) bool { return matched[i].PublishedAt.After(matched[j].PublishedAt) })
	if offset >= len(matched) {
		return []models.Video{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeVideos) OwnerCounterTotals(_ context.Context, ownerID uint) (views, likes int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.videos {
		if v.OwnerID == ownerID {
			views += v.Views
			likes += v.Likes
		}
	}
	return views, likes, nil
}

type followKey struct{ follower, followee uint }

type fakeFollows struct {
	mu    sync.Mutex
	facts map[followKey]bool
	users *fakeUsers

	// failToggles makes the next n Toggle calls fail with ConflictError.
	failToggles int
}

func newFakeFollows(users *fakeUsers) *fakeFollows {
	return &fakeFollows{facts: make(map[followKey]bool), users: users}
}

func (f *fakeFollows) Toggle(_ context.Context, followerID, followeeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failToggles > 0 {
		f.failToggles--
		return false, &ConflictError{Op: "toggle follow"}
	}
	key := followKey{followerID, followeeID}
	// Counter deltas apply under the same lock, like the real
	// implementation's transaction.
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	if f.facts[key] {
		delete(f.facts, key)
		_ = f.users.adjustLocked(followerID, UserFollowing, -1)
		_ = f.users.adjustLocked(followeeID, UserFollowers, -1)
		return false, nil
	}
	f.facts[key] = true
	_ = f.users.adjustLocked(followerID, UserFollowing, 1)
	_ = f.users.adjustLocked(followeeID, UserFollowers, 1)
	return true, nil
}

func (f *fakeFollows) IsFollowing(_ context.Context, followerID, followeeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.facts[followKey{followerID, followeeID}], nil
}

func (f *fakeFollows) FollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []uint{}
	for key := range f.facts {
		if key.follower == userID {
			ids = append(ids, key.followee)
		}
	}
	return ids, nil
}

func (f *fakeFollows) CountFollowers(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key := range f.facts {
		if key.followee == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollows) CountFollowing(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key := range f.facts {
		if key.follower == userID {
			n++
		}
	}
	return n, nil
}

type likeKey struct {
	actor      uint
	targetType string
	targetID   string
}

type fakeLikes struct {
	mu    sync.Mutex
	facts map[likeKey]bool
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{facts: make(map[likeKey]bool)}
}

func (f *fakeLikes) Toggle(_ context.Context, actorID uint, targetType, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := likeKey{actorID, targetType, targetID}
	if f.facts[key] {
		delete(f.facts, key)
		return false, nil
	}
	f.facts[key] = true
	return true, nil
}

func (f *fakeLikes) HasLiked(_ context.Context, actorID uint, targetType, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.facts[likeKey{actorID, targetType, targetID}], nil
}

func (f *fakeLikes) CountForTarget(_ context.Context, targetType, targetID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key := range f.facts {
		if key.targetType == targetType && key.targetID == targetID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLikes) CountsByTarget(ctx context.Context, targetType string, targetIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, id := range targetIDs {
		n, _ := f.CountForTarget(ctx, targetType, id)
		if n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *fakeLikes) DeleteForTarget(_ context.Context, targetType, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.facts {
		if key.targetType == targetType && key.targetID == targetID {
			delete(f.facts, key)
		}
	}
	return nil
}

func (f *fakeLikes) DeleteForTargets(ctx context.Context, targetType string, targetIDs []string) error {
	for _, id := range targetIDs {
		if err := f.DeleteForTarget(ctx, targetType, id); err != nil {
			return err
		}
	}
	return nil
}

type fakeComments struct {
	mu       sync.Mutex
	nextID   uint
	comments map[uint]*models.Comment
}

func newFakeComments() *fakeComments {
	return &fakeComments{nextID: 1, comments: make(map[uint]*models.Comment)}
}

func (f *fakeComments) Create(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.ID = f.nextID
	f.nextID++
	comment.CreatedAt = time.Now()
	cp := *comment
	f.comments[comment.ID] = &cp
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[id]
	if !ok {
		return nil, &NotFoundError{Kind: "comment", ID: strconv.Itoa(int(id))}
	}
	cp := *cm
	return &cp, nil
}

func (f *fakeComments) ListByVideo(_ context.Context, videoID string, offset, limit int) ([]models.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Comment
	for _, cm := range f.comments {
		if cm.VideoID == videoID {
			matched = append(matched, *cm)
		}
	}
	total := int64(len(matched))
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if offset >= len(matched) {
		return []models.Comment{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeComments) AdjustLikesCount(_ context.Context, commentID uint, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[commentID]
	if !ok {
		return &NotFoundError{Kind: "comment", ID: strconv.Itoa(int(commentID))}
	}
	cm.LikesCount += delta
	if cm.LikesCount < 0 {
		cm.LikesCount = 0
	}
	return nil
}

func (f *fakeComments) SetLikesCount(_ context.Context, commentID uint, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[commentID]
	if !ok {
		return &NotFoundError{Kind: "comment", ID: strconv.Itoa(int(commentID))}
	}
	cm.LikesCount = value
	return nil
}

func (f *fakeComments) CountsByVideo(_ context.Context, videoIDs []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int64)
	for _, cm := range f.comments {
		for _, id := range videoIDs {
			if cm.VideoID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (f *fakeComments) IDsByVideo(_ context.Context, videoID string) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id, cm := range f.comments {
		if cm.VideoID == videoID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeComments) DeleteForVideo(_ context.Context, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, cm := range f.comments {
		if cm.VideoID == videoID {
			delete(f.comments, id)
		}
	}
	return nil
}

func (f *fakeComments) ReconcileLikesCounts(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	nextID  uint
	records []models.Notification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{nextID: 1}
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = f.nextID
	f.nextID++
	f.records = append(f.records, *n)
	return nil
}

func (f *fakeNotifications) all() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.records...)
}

func (f *fakeNotifications) ListByRecipient(_ context.Context, recipientID uint, offset, limit int) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Notification
	for _, n := range f.records {
		if n.RecipientID == recipientID {
			matched = append(matched, n)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Notification{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeNotifications) UnreadCount(_ context.Context, recipientID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.RecipientID == recipientID && !r.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id uint, recipientID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id && f.records[i].RecipientID == recipientID {
			f.records[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].RecipientID == recipientID {
			f.records[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.Notification
	var deleted int64
	for _, n := range f.records {
		if n.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	f.records = kept
	return deleted, nil
}

type fakeViews struct {
	mu      sync.Mutex
	records []models.ViewRecord
}

func newFakeViews() *fakeViews { return &fakeViews{} }

func (f *fakeViews) Insert(_ context.Context, record *models.ViewRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeViews) CompletionCounts(_ context.Context, videoID string, threshold float64) (completed, total int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.VideoID != videoID {
			continue
		}
		total++
		if r.CompletionPercentage >= threshold {
			completed++
		}
	}
	return completed, total, nil
}

func (f *fakeViews) HasHistory(_ context.Context, viewerID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ViewerID == viewerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeViews) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.ViewRecord
	var deleted int64
	for _, r := range f.records {
		if r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return deleted, nil
}

var (
	_ UserStore         = (*fakeUsers)(nil)
	_ VideoStore        = (*fakeVideos)(nil)
	_ FollowStore       = (*fakeFollows)(nil)
	_ LikeStore         = (*fakeLikes)(nil)
	_ CommentStore      = (*fakeComments)(nil)
	_ NotificationStore = (*fakeNotifications)(nil)
	_ ViewStore         = (*fakeViews)(nil)
)

// testRig bundles the engine wired over the fakes.
type testRig struct {
	users    *fakeUsers
	videos   *fakeVideos
	follows  *fakeFollows
	likes    *fakeLikes
	comments *fakeComments
	notifs   *fakeNotifications
	views    *fakeViews

	ranking  *Ranking
	counters *CounterStore
	notifier *Notifier
	ledger   *Ledger
	feed     *FeedAssembler
	engine   *Engine
}

func newTestRig(userIDs ...uint) *testRig {
	r := &testRig{
		users:    newFakeUsers(userIDs...),
		videos:   newFakeVideos(),
		likes:    newFakeLikes(),
		comments: newFakeComments(),
		notifs:   newFakeNotifications(),
		views:    newFakeViews(),
	}
	r.follows = newFakeFollows(r.users)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r.ranking = NewRanking(DefaultRankingConfig())
	r.counters = NewCounterStore(r.users, r.videos, r.comments, r.ranking, log)
	r.notifier = NewNotifier(r.notifs, r.users, 0, log)
	r.ledger = NewLedger(r.users, r.videos, r.comments, r.follows, r.likes, r.counters, r.notifier, time.Second, 3, log)
	r.feed = NewFeedAssembler(r.videos, r.views, r.follows, r.counters, r.ranking, log)
	r.engine = New(r.ledger, r.counters, r.feed, r.notifier, r.ranking,
		r.users, r.videos, r.comments, r.likes, r.views, time.Second, log)
	return r
}
