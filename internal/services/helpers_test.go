package services

import (
	"time"

	"github.com/social-graph/social-graph/internal/config"
	"github.com/social-graph/social-graph/pkg/logger"
)

type testEnv struct {
	store    *memStore
	cache    *memFeedCache
	producer *recordingPublisher
	graph    *SocialGraphService
	engage   *EngagementService
	posts    *PostService
	feed     *FeedService
	users    *UserService
	recovery *CounterRecoveryService
	marks    *BookmarkService
	chat     *MessagingService
	feedCfg  *config.FeedConfig
	graphCfg *config.GraphConfig
}

func newTestEnv() *testEnv {
	store := newMemStore()
	cache := newMemFeedCache()
	producer := &recordingPublisher{}
	log := logger.NewNopLogger()

	feedCfg := &config.FeedConfig{
		DefaultLimit:      50,
		MaxFeedSize:       200,
		TrendingWindow:    7 * 24 * time.Hour,
		CacheTTL:          5 * time.Minute,
		AssemblyTimeout:   time.Second,
		EngagementPreview: 3,
	}
	graphCfg := &config.GraphConfig{PrivateRequiresApproval: true}

	return &testEnv{
		store:    store,
		cache:    cache,
		producer: producer,
		graph:    NewSocialGraphService(store.Users(), store.Graph(), cache, producer, graphCfg, log),
		engage:   NewEngagementService(store.Users(), store.Posts(), store.Likes(), store.Comments(), cache, producer, log),
		posts:    NewPostService(store.Users(), store.Posts(), cache, producer, log),
		feed:     NewFeedService(store.Graph(), store.Posts(), cache, feedCfg, log),
		users:    NewUserService(store.Users(), producer, log),
		recovery: NewCounterRecoveryService(store.Posts(), store.Users(), cache, 2, log),
		marks:    NewBookmarkService(store.Users(), store.Posts(), store.Bookmarks(), producer, log),
		chat:     NewMessagingService(store.Users(), store.Conversations(), producer, log),
		feedCfg:  feedCfg,
		graphCfg: graphCfg,
	}
}
