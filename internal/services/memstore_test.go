package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
)

// memStore 内存版存储，语义与repository包保持一致，计数与集合在同一把锁内更新
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	rels     map[relKey]*models.Relationship
	posts    map[uuid.UUID]*models.Post
	likes    map[uuid.UUID]map[uuid.UUID]time.Time
	comments []*models.Comment
	marks    map[uuid.UUID]map[uuid.UUID]time.Time
	convs    map[uuid.UUID]*models.Conversation
	messages []*models.Message

	feedQueries     int
	beforeFeedQuery func(ctx context.Context)
}

type relKey struct {
	follower  uuid.UUID
	following uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]*models.User),
		rels:  make(map[relKey]*models.Relationship),
		posts: make(map[uuid.UUID]*models.Post),
		likes: make(map[uuid.UUID]map[uuid.UUID]time.Time),
		marks: make(map[uuid.UUID]map[uuid.UUID]time.Time),
		convs: make(map[uuid.UUID]*models.Conversation),
	}
}

func (m *memStore) Users() *memUsers { return &memUsers{m} }
func (m *memStore) Graph() *memGraph { return &memGraph{m} }
func (m *memStore) Posts() *memPosts { return &memPosts{m} }
func (m *memStore) Likes() *memLikes { return &memLikes{m} }
func (m *memStore) Comments() *memComments { return &memComments{m} }
func (m *memStore) Bookmarks() *memBookmarks { return &memBookmarks{m} }
func (m *memStore) Conversations() *memConversations { return &memConversations{m} }

func (m *memStore) addUser(username string, private bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		IsPrivate: private,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.users[u.ID] = u
	return copyUser(u)
}

func (m *memStore) addPost(author uuid.UUID, caption string, createdAt time.Time) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Post{
		ID:        uuid.New(),
		UserID:    author,
		Caption:   caption,
		Hashtags:  models.ExtractHashtags(caption),
		CreatedAt: createdAt,
	}
	m.posts[p.ID] = p
	return copyPost(p)
}

func (m *memStore) setLikeCount(postID uuid.UUID, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[postID].LikeCount = n
}

func (m *memStore) post(postID uuid.UUID) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyPost(m.posts[postID])
}

func (m *memStore) user(userID uuid.UUID) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyUser(m.users[userID])
}

func (m *memStore) likerCount(postID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.likes[postID]))
}

func (m *memStore) edges() []models.Relationship {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Relationship, 0, len(m.rels))
	for _, r := range m.rels {
		out = append(out, *r)
	}
	return out
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func copyPost(p *models.Post) *models.Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Hashtags = append([]string(nil), p.Hashtags...)
	return &cp
}

func adjust(v *int64, delta int64) {
	*v += delta
	if *v < 0 {
		*v = 0
	}
}

func sortedIDs(ids []uuid.UUID, after uuid.UUID, limit int) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	out := make([]uuid.UUID, 0, limit)
	for _, id := range ids {
		if id.String() <= after.String() {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// users

type memUsers struct{ *memStore }

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyUser(m.users[id]), nil
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[user.ID]
	if !ok {
		return errors.New("user not found")
	}
	u.DisplayName = user.DisplayName
	u.Avatar = user.Avatar
	u.Bio = user.Bio
	u.IsPrivate = user.IsPrivate
	return nil
}

func (m *memUsers) Search(ctx context.Context, query string, offset, limit int) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, offset, limit), nil
}

func (m *memUsers) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	return sortedIDs(ids, after, limit), nil
}

func (m *memUsers) RecountFollowCounters(ctx context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fixed int64
	for _, id := range ids {
		u := m.users[id]
		var followers, following int64
		for k, r := range m.rels {
			if r.Status != models.StatusAccepted {
				continue
			}
			if k.following == id {
				followers++
			}
			if k.follower == id {
				following++
			}
		}
		if u.Followers != followers || u.Following != following {
			u.Followers, u.Following = followers, following
			fixed++
		}
	}
	return fixed, nil
}

// relationships

type memGraph struct{ *memStore }

func (m *memGraph) Get(ctx context.Context, followerID, followingID uuid.UUID) (*models.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rels[relKey{followerID, followingID}]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memGraph) Create(ctx context.Context, rel *models.Relationship) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rel.FollowerID == rel.FollowingID {
		return false, errors.New("chk_no_self_follow")
	}
	k := relKey{rel.FollowerID, rel.FollowingID}
	if existing, ok := m.rels[k]; ok && existing.Status != models.StatusRejected {
		return false, nil
	}
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	rel.CreatedAt = time.Now()
	rel.UpdatedAt = rel.CreatedAt
	cp := *rel
	m.rels[k] = &cp
	if rel.Status == models.StatusAccepted {
		m.adjustCounters(k, 1)
	}
	return true, nil
}

func (m *memGraph) Delete(ctx context.Context, followerID, followingID uuid.UUID) (*models.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := relKey{followerID, followingID}
	r, ok := m.rels[k]
	if !ok {
		return nil, nil
	}
	delete(m.rels, k)
	if r.Status == models.StatusAccepted {
		m.adjustCounters(k, -1)
	}
	return r, nil
}

func (m *memGraph) UpdateStatus(ctx context.Context, followerID, followingID uuid.UUID, from, to models.RelationshipStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := relKey{followerID, followingID}
	r, ok := m.rels[k]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	switch {
	case to == models.StatusAccepted && from != models.StatusAccepted:
		m.adjustCounters(k, 1)
	case from == models.StatusAccepted && to != models.StatusAccepted:
		m.adjustCounters(k, -1)
	}
	return true, nil
}

func (m *memGraph) adjustCounters(k relKey, delta int64) {
	if u, ok := m.users[k.follower]; ok {
		adjust(&u.Following, delta)
	}
	if u, ok := m.users[k.following]; ok {
		adjust(&u.Followers, delta)
	}
}

func (m *memGraph) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for k, r := range m.rels {
		if k.follower == userID && r.Status == models.StatusAccepted {
			ids = append(ids, k.following)
		}
	}
	return ids, nil
}

func (m *memGraph) list(userID uuid.UUID, status models.RelationshipStatus, incoming bool, offset, limit int) []*models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for k, r := range m.rels {
		if r.Status != status {
			continue
		}
		if incoming && k.following == userID {
			out = append(out, copyUser(m.users[k.follower]))
		}
		if !incoming && k.follower == userID {
			out = append(out, copyUser(m.users[k.following]))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, offset, limit)
}

func (m *memGraph) GetFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	return m.list(userID, models.StatusAccepted, true, offset, limit), nil
}

func (m *memGraph) GetFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	return m.list(userID, models.StatusAccepted, false, offset, limit), nil
}

func (m *memGraph) GetPendingRequests(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	return m.list(userID, models.StatusPending, true, offset, limit), nil
}

func (m *memGraph) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(m.list(userID, models.StatusAccepted, true, 0, 0))), nil
}

func (m *memGraph) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(m.list(userID, models.StatusAccepted, false, 0, 0))), nil
}

// posts

type memPosts struct{ *memStore }

func (m *memPosts) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = uuid.New()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *memPosts) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.IsDeleted {
		return nil, nil
	}
	return copyPost(p), nil
}

func (m *memPosts) filter(keep func(*models.Post) bool) []*models.Post {
	var out []*models.Post
	for _, p := range m.posts {
		if !p.IsDeleted && keep(p) {
			out = append(out, copyPost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memPosts) GetByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.filter(func(p *models.Post) bool { return p.UserID == userID }), offset, limit), nil
}

func (m *memPosts) GetByHashtag(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.filter(func(p *models.Post) bool {
		for _, t := range p.Hashtags {
			if t == tag {
				return true
			}
		}
		return false
	}), offset, limit), nil
}

func (m *memPosts) Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.filter(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Caption), strings.ToLower(query))
	}), offset, limit), nil
}

func (m *memPosts) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		p.IsDeleted = true
	}
	return nil
}

func (m *memPosts) ListFeedCandidates(ctx context.Context, authorIDs []uuid.UUID, since time.Time, limit, preview int) ([]*models.Post, error) {
	if m.beforeFeedQuery != nil {
		m.beforeFeedQuery(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedQueries++

	authors := make(map[uuid.UUID]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	var out []*models.Post
	for _, p := range m.posts {
		if p.IsDeleted {
			continue
		}
		_, followed := authors[p.UserID]
		if !followed && p.CreatedAt.Before(since) {
			continue
		}
		cp := copyPost(p)
		if u, ok := m.users[p.UserID]; ok {
			cp.User = *copyUser(u)
		}
		cp.Likes = []models.Like{}
		for userID, at := range m.likes[p.ID] {
			cp.Likes = append(cp.Likes, models.Like{UserID: userID, PostID: p.ID, CreatedAt: at, User: copyUser(m.users[userID])})
		}
		sort.Slice(cp.Likes, func(i, j int) bool { return cp.Likes[i].CreatedAt.After(cp.Likes[j].CreatedAt) })
		if len(cp.Likes) > preview {
			cp.Likes = cp.Likes[:preview]
		}
		cp.Comments = []models.Comment{}
		for i := len(m.comments) - 1; i >= 0 && len(cp.Comments) < preview; i-- {
			if c := m.comments[i]; c.PostID == p.ID {
				cc := *c
				cc.User = copyUser(m.users[c.UserID])
				cp.Comments = append([]models.Comment{cc}, cp.Comments...)
			}
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LikeCount != out[j].LikeCount {
			return out[i].LikeCount > out[j].LikeCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.posts))
	for id, p := range m.posts {
		if !p.IsDeleted {
			ids = append(ids, id)
		}
	}
	return sortedIDs(ids, after, limit), nil
}

func (m *memPosts) RecountEngagement(ctx context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fixed int64
	for _, id := range ids {
		p := m.posts[id]
		likes := int64(len(m.likes[id]))
		var comments int64
		for _, c := range m.comments {
			if c.PostID == id {
				comments++
			}
		}
		if p.LikeCount != likes || p.CommentCount != comments {
			p.LikeCount, p.CommentCount = likes, comments
			fixed++
		}
	}
	return fixed, nil
}

// likes

type memLikes struct{ *memStore }

func (m *memLikes) Add(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.likes[postID]
	if !ok {
		set = make(map[uuid.UUID]time.Time)
		m.likes[postID] = set
	}
	if _, liked := set[userID]; liked {
		return false, nil
	}
	set[userID] = time.Now()
	adjust(&m.posts[postID].LikeCount, 1)
	return true, nil
}

func (m *memLikes) Remove(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, liked := m.likes[postID][userID]; !liked {
		return false, nil
	}
	delete(m.likes[postID], userID)
	adjust(&m.posts[postID].LikeCount, -1)
	return true, nil
}

func (m *memLikes) IsLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, liked := m.likes[postID][userID]
	return liked, nil
}

func (m *memLikes) GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Like
	for userID, at := range m.likes[postID] {
		out = append(out, &models.Like{UserID: userID, PostID: postID, CreatedAt: at, User: copyUser(m.users[userID])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

// comments

type memComments struct{ *memStore }

func (m *memComments) Create(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[comment.PostID]
	if !ok {
		return errors.New("post not found")
	}
	comment.ID = uuid.New()
	comment.CreatedAt = time.Now()
	cp := *comment
	m.comments = append(m.comments, &cp)
	adjust(&p.CommentCount, 1)
	return nil
}

func (m *memComments) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.comments {
		if c.ID == id {
			cp := *c
			cp.User = copyUser(m.users[c.UserID])
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memComments) GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			cp := *c
			cp.User = copyUser(m.users[c.UserID])
			out = append(out, &cp)
		}
	}
	return page(out, offset, limit), nil
}

// bookmarks

type memBookmarks struct{ *memStore }

func (m *memBookmarks) Add(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.marks[userID]
	if !ok {
		set = make(map[uuid.UUID]time.Time)
		m.marks[userID] = set
	}
	if _, marked := set[postID]; marked {
		return false, nil
	}
	set[postID] = time.Now()
	return true, nil
}

func (m *memBookmarks) Remove(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, marked := m.marks[userID][postID]; !marked {
		return false, nil
	}
	delete(m.marks[userID], postID)
	return true, nil
}

func (m *memBookmarks) ListPosts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type marked struct {
		post *models.Post
		at   time.Time
	}
	var all []marked
	for postID, at := range m.marks[userID] {
		if p, ok := m.posts[postID]; ok && !p.IsDeleted {
			all = append(all, marked{copyPost(p), at})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })
	out := make([]*models.Post, 0, len(all))
	for _, mk := range all {
		out = append(out, mk.post)
	}
	return page(out, offset, limit), nil
}

// conversations

type memConversations struct{ *memStore }

func (m *memConversations) withUsers(c *models.Conversation) *models.Conversation {
	cp := *c
	cp.Participants = nil
	for _, id := range []uuid.UUID{c.UserAID, c.UserBID} {
		if u, ok := m.users[id]; ok {
			cp.Participants = append(cp.Participants, *copyUser(u))
		}
	}
	return &cp
}

func (m *memConversations) GetOrCreate(ctx context.Context, userID, peerID uuid.UUID) (*models.Conversation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, b := models.OrderedPair(userID, peerID)
	for _, c := range m.convs {
		if c.UserAID == a && c.UserBID == b {
			return m.withUsers(c), false, nil
		}
	}
	now := time.Now()
	c := &models.Conversation{ID: uuid.New(), UserAID: a, UserBID: b, CreatedAt: now, UpdatedAt: now}
	m.convs[c.ID] = c
	return m.withUsers(c), true, nil
}

func (m *memConversations) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil, nil
	}
	return m.withUsers(c), nil
}

func (m *memConversations) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Conversation
	for _, c := range m.convs {
		if c.HasParticipant(userID) {
			out = append(out, m.withUsers(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return page(out, offset, limit), nil
}

func (m *memConversations) AddMessage(ctx context.Context, msg *models.Message, preview string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[msg.ConversationID]
	if !ok {
		return errors.New("conversation not found")
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	cp := *msg
	m.messages = append(m.messages, &cp)
	c.LastMessage = preview
	c.UpdatedAt = msg.CreatedAt
	return nil
}

func (m *memConversations) ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest []*models.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if msg := m.messages[i]; msg.ConversationID == conversationID {
			cp := *msg
			cp.Sender = copyUser(m.users[msg.SenderID])
			newest = append(newest, &cp)
		}
	}
	out := page(newest, offset, limit)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// memFeedCache 代数失效语义与RedisFeedCache一致
type memFeedCache struct {
	mu        sync.Mutex
	globalGen int64
	userGens  map[uuid.UUID]int64
	entries   map[string][]*models.Post
	fail      bool
	hits      int
}

func newMemFeedCache() *memFeedCache {
	return &memFeedCache{
		userGens: make(map[uuid.UUID]int64),
		entries:  make(map[string][]*models.Post),
	}
}

var errCacheDown = errors.New("cache down")

func (c *memFeedCache) Key(ctx context.Context, userID uuid.UUID, limit int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", errCacheDown
	}
	return feedKey(userID, c.globalGen, c.userGens[userID], limit), nil
}

func (c *memFeedCache) Get(ctx context.Context, key string) ([]*models.Post, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, false, errCacheDown
	}
	posts, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return posts, ok, nil
}

func (c *memFeedCache) Set(ctx context.Context, key string, posts []*models.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errCacheDown
	}
	c.entries[key] = posts
	return nil
}

func (c *memFeedCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errCacheDown
	}
	c.globalGen++
	return nil
}

func (c *memFeedCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errCacheDown
	}
	c.userGens[userID]++
	return nil
}

func (c *memFeedCache) userGen(userID uuid.UUID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userGens[userID]
}

// recordingPublisher 记录发送的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []interface{}
	fail   bool
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, value)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
