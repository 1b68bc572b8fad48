package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/internal/middleware"
)

// Routes 需要挂载的处理器，Admin为nil时不注册管理接口
type Routes struct {
	Users     *UserHandler
	Feed      *FeedHandler
	Bookmarks *BookmarkHandler
	Messaging *MessagingHandler
	Admin     *AdminHandler

	JWT          *middleware.JWTConfig
	AdminUserIDs []string
}

// RegisterRoutes 挂载/api/v1下的全部路由
func RegisterRoutes(router *gin.Engine, r Routes) {
	api := router.Group("/api/v1")
	users, feed := r.Users, r.Feed

	// 公开路由
	public := api.Group("/users")
	{
		public.POST("/register", users.Register)
		public.POST("/login", users.Login)
		public.GET("/search", users.SearchUsers)
		public.GET("/:id", middleware.NewOptionalJWTAuth(r.JWT), users.GetProfile)
		public.GET("/:id/followers", users.GetFollowers)
		public.GET("/:id/following", users.GetFollowing)
	}

	protected := api.Group("")
	protected.Use(middleware.NewJWTAuth(r.JWT))
	{
		protected.GET("/users/me", users.GetMe)
		protected.PUT("/users/profile", users.UpdateProfile)
		protected.POST("/users/:id/follow", users.Follow)
		protected.DELETE("/users/:id/follow", users.Unfollow)
		protected.GET("/users/requests", users.GetFollowRequests)
		protected.POST("/users/requests/:id/accept", users.AcceptFollowRequest)
		protected.POST("/users/requests/:id/reject", users.RejectFollowRequest)

		protected.POST("/posts", feed.CreatePost)
		protected.GET("/posts/search", feed.SearchPosts)
		protected.GET("/posts/:id", feed.GetPost)
		protected.DELETE("/posts/:id", feed.DeletePost)
		protected.GET("/users/:id/posts", feed.GetUserPosts)
		protected.GET("/hashtags/:tag/posts", feed.GetHashtagPosts)

		protected.POST("/posts/:id/like", feed.LikePost)
		protected.DELETE("/posts/:id/like", feed.UnlikePost)
		protected.GET("/posts/:id/likes", feed.GetPostLikes)
		protected.POST("/posts/:id/comments", feed.CreateComment)
		protected.GET("/posts/:id/comments", feed.GetPostComments)
		protected.GET("/comments/:id", feed.GetComment)

		protected.GET("/feed", feed.GetFeed)

		if r.Bookmarks != nil {
			protected.POST("/posts/:id/bookmark", r.Bookmarks.BookmarkPost)
			protected.DELETE("/posts/:id/bookmark", r.Bookmarks.UnbookmarkPost)
			protected.GET("/users/me/bookmarks", r.Bookmarks.GetBookmarks)
		}

		if r.Messaging != nil {
			protected.GET("/conversations", r.Messaging.ListConversations)
			protected.POST("/conversations/:id", r.Messaging.OpenConversation)
			protected.GET("/conversations/:id/messages", r.Messaging.ListMessages)
			protected.POST("/conversations/:id/messages", r.Messaging.SendMessage)
		}

		if r.Admin != nil {
			admin := protected.Group("/admin", middleware.RequireAdmin(r.AdminUserIDs))
			admin.POST("/recount", r.Admin.Recount)
		}
	}
}
