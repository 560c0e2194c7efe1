package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/posttranslate/internal/guardian"
	"codeberg.org/snonux/posttranslate/internal/render"
	"codeberg.org/snonux/posttranslate/internal/store"
)

type translateRequest struct {
	PostID int64  `json:"post_id" binding:"required"`
	Locale string `json:"locale"`
}

type createPostRequest struct {
	TopicID  int64  `json:"topic_id" binding:"required"`
	Raw      string `json:"raw" binding:"required"`
	PostType int    `json:"post_type"`
}

type updatePostRequest struct {
	Raw string `json:"raw" binding:"required"`
}

type createTopicRequest struct {
	Title string `json:"title" binding:"required"`
	Raw   string `json:"raw" binding:"required"`
}

type updateTopicRequest struct {
	Title string `json:"title" binding:"required"`
}

// translate handles POST /translator/translate
func (s *Server) translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = s.locale(c)
	}

	result, err := s.proc.TranslatePost(c.Request.Context(), userFrom(c), req.PostID, locale)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// requireUser writes 403 for anonymous requests
func requireUser(c *gin.Context) (*store.User, bool) {
	user := userFrom(c)
	if user == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be logged in"})
		return nil, false
	}
	return user, true
}

func (s *Server) postPayload(c *gin.Context, post *store.Post) (*render.PostPayload, error) {
	ctx := c.Request.Context()
	author, err := s.st.GetUser(ctx, post.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	g := guardian.New(s.cfg, userFrom(c))
	return s.renderer.Post(ctx, g, post, author, s.locale(c), c.Query("show") == "original")
}

// createPost handles POST /posts
func (s *Server) createPost(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	post := &store.Post{TopicID: req.TopicID, UserID: user.ID, Raw: req.Raw, PostType: req.PostType}
	if err := s.st.CreatePost(ctx, post); err != nil {
		writeError(c, err)
		return
	}
	if err := s.proc.PostProcessCooked(ctx, post); err != nil {
		writeError(c, err)
		return
	}

	payload, err := s.postPayload(c, post)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// showPost handles GET /posts/:id
func (s *Server) showPost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	post, err := s.st.GetPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	payload, err := s.postPayload(c, post)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updatePost handles PUT /posts/:id
func (s *Server) updatePost(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	post, err := s.st.GetPost(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if post.UserID != user.ID && !user.Staff {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot edit this post"})
		return
	}

	post, err = s.st.UpdatePostRaw(ctx, id, req.Raw)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.proc.PostEdited(ctx, post); err != nil {
		writeError(c, err)
		return
	}

	payload, err := s.postPayload(c, post)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// createTopic handles POST /topics, creating the topic with its first post
func (s *Server) createTopic(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	topic := &store.Topic{UserID: user.ID, Title: req.Title}
	if err := s.st.CreateTopic(ctx, topic); err != nil {
		writeError(c, err)
		return
	}
	post := &store.Post{TopicID: topic.ID, UserID: user.ID, Raw: req.Raw}
	if err := s.st.CreatePost(ctx, post); err != nil {
		writeError(c, err)
		return
	}

	if err := s.proc.TopicCreated(ctx, topic); err != nil {
		writeError(c, err)
		return
	}
	if err := s.proc.PostProcessCooked(ctx, post); err != nil {
		writeError(c, err)
		return
	}

	s.renderTopic(c, http.StatusCreated, topic)
}

// updateTopic handles PUT /topics/:id
func (s *Server) updateTopic(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	topic, err := s.st.GetTopic(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if topic.UserID != user.ID && !user.Staff {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot edit this topic"})
		return
	}

	topic, err = s.st.UpdateTopicTitle(ctx, id, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.proc.TopicEdited(ctx, topic); err != nil {
		writeError(c, err)
		return
	}

	s.renderTopic(c, http.StatusOK, topic)
}

// showTopic handles GET /t/:id
func (s *Server) showTopic(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	topic, err := s.st.GetTopic(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	s.renderTopic(c, http.StatusOK, topic)
}

func (s *Server) renderTopic(c *gin.Context, status int, topic *store.Topic) {
	ctx := c.Request.Context()
	posts, err := s.st.ListPosts(ctx, topic.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	payloads := make([]*render.PostPayload, 0, len(posts))
	for _, post := range posts {
		payload, err := s.postPayload(c, post)
		if err != nil {
			writeError(c, err)
			return
		}
		payloads = append(payloads, payload)
	}

	payload, err := s.renderer.Topic(ctx, topic, payloads, s.locale(c), c.Query("show") == "original")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, payload)
}

// problems handles GET /admin/problems
func (s *Server) problems(c *gin.Context) {
	user := userFrom(c)
	if user == nil || !user.Staff {
		c.JSON(http.StatusForbidden, gin.H{"error": "staff only"})
		return
	}

	problems, err := s.checker.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"problems": problems})
}
