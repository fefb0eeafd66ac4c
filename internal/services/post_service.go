package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/metrics"
	"github.com/baharkarakas/blog-backend/internal/models"
	repo "github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/baharkarakas/blog-backend/internal/slug"
	"github.com/baharkarakas/blog-backend/internal/storage"
	"github.com/baharkarakas/blog-backend/internal/telemetry"
	"github.com/baharkarakas/blog-backend/internal/validate"
	"github.com/baharkarakas/blog-backend/internal/worker"
)

const (
	MsgPostNotFound      = "Blog not found"
	MsgThumbnailRequired = "Thumbnail is required as either file or URL."
	MsgSearchQuery       = "Search query is required"

	SearchLimit      = 10
	defaultPostPage  = 20
	maxPostPage      = 100
	maxSearchQueryLn = 200
)

// TaskSubmitter runs best-effort work off the request path.
type TaskSubmitter interface {
	Submit(worker.Task) bool
}

type PostConfig struct {
	// PublicBaseURL prefixes stored file references to build thumbnail URLs.
	PublicBaseURL string
}

type PostService struct {
	posts repo.Posts
	saved repo.SavedPosts
	audit repo.AuditLogs
	files storage.Store
	jobs  TaskSubmitter
	cfg   PostConfig
	log   *zap.Logger
}

func NewPostService(posts repo.Posts, saved repo.SavedPosts, audit repo.AuditLogs, files storage.Store, jobs TaskSubmitter, cfg PostConfig, log *zap.Logger) *PostService {
	return &PostService{posts: posts, saved: saved, audit: audit, files: files, jobs: jobs, cfg: cfg, log: log}
}

type CreatePostRequest struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Content      string `json:"content"`
	ThumbnailURL string `json:"thumbnail_url"`
	// Upload wins over ThumbnailURL when both are given.
	Upload *storage.Upload `json:"-"`
}

func (s *PostService) Create(ctx context.Context, actorID string, req CreatePostRequest) (models.PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.Create")
	defer span.End()

	view, err := s.create(ctx, actorID, req)
	telemetry.RecordError(span, err)
	return view, err
}

func (s *PostService) create(ctx context.Context, actorID string, req CreatePostRequest) (models.PostView, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	category := strings.TrimSpace(req.Category)
	content := strings.TrimSpace(req.Content)
	thumbURL := strings.TrimSpace(req.ThumbnailURL)

	checks := []*validate.ErrField{
		validate.Required("title", "Title", title),
		validate.Required("description", "Description", description),
		validate.Required("category", "Category", category),
		validate.Required("content", "Content", content),
		validate.OneOf("category", "Category", category, models.CategoryNames()),
		validate.MaxLen("title", "Title", title, models.MaxTitleLen),
		validate.MaxLen("description", "Description", description, models.MaxDescriptionLen),
		validate.MaxLen("content", "Content", content, models.MaxContentLen),
	}
	switch {
	case req.Upload != nil:
	case thumbURL != "":
		checks = append(checks, validate.HTTPURL("thumbnail", "Thumbnail URL", thumbURL))
	default:
		checks = append(checks, &validate.ErrField{Field: "thumbnail", Msg: MsgThumbnailRequired})
	}
	if err := validate.Collect(checks...).Err(""); err != nil {
		return models.PostView{}, err
	}

	base := title
	if explicit := strings.TrimSpace(req.Slug); explicit != "" {
		base = explicit
	}
	candidate := slug.Derive(base)
	final, err := slug.ResolveUnique(ctx, candidate, s.posts.ExistsBySlug)
	if err != nil {
		return models.PostView{}, s.serverErr("create post: resolve slug", err)
	}

	post := models.Post{
		Title:       title,
		Slug:        final,
		Description: description,
		Category:    models.Category(category),
		Content:     content,
	}
	if req.Upload != nil {
		ref, err := s.files.Save(ctx, *req.Upload)
		if err != nil {
			if !apperr.Is(err, apperr.KindValidation) {
				s.log.Error("create post: store thumbnail", zap.Error(err))
			}
			return models.PostView{}, apperr.As(err)
		}
		post.Thumbnail, post.ThumbnailKind = ref, models.ThumbnailFile
	} else {
		post.Thumbnail, post.ThumbnailKind = thumbURL, models.ThumbnailURL
	}

	created, err := s.posts.Create(ctx, post)
	if errors.Is(err, repo.ErrDuplicate) {
		// lost a race for the slug; one fresh suffix is enough
		post.Slug = slug.WithSuffix(candidate)
		created, err = s.posts.Create(ctx, post)
	}
	if err != nil {
		if post.ThumbnailKind == models.ThumbnailFile {
			if rerr := s.files.Remove(ctx, post.Thumbnail); rerr != nil {
				s.log.Warn("create post: remove orphaned thumbnail", zap.String("ref", post.Thumbnail), zap.Error(rerr))
			}
		}
		return models.PostView{}, s.serverErr("create post: insert", err)
	}

	metrics.PostsTotal.WithLabelValues("created").Inc()
	recordAudit(ctx, s.audit, s.log, actorID, "post", created.ID, models.AuditPostCreated, map[string]any{"slug": created.Slug})
	return s.view(created), nil
}

func (s *PostService) GetBySlug(ctx context.Context, slugStr string) (models.PostView, error) {
	p, err := s.posts.GetBySlug(ctx, slugStr)
	if err != nil {
		return models.PostView{}, s.postErr("get post", err)
	}
	return s.view(p), nil
}

type ListPostsQuery struct {
	Category string
	Limit    int
	Offset   int
}

func (s *PostService) List(ctx context.Context, q ListPostsQuery) ([]models.PostView, error) {
	category := strings.TrimSpace(q.Category)
	if err := validate.Collect(validate.OneOf("category", "Category", category, models.CategoryNames())).Err(""); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPostPage
	}
	if limit > maxPostPage {
		limit = maxPostPage
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	posts, err := s.posts.List(ctx, repo.PostFilter{Category: models.Category(category), Limit: limit, Offset: offset})
	if err != nil {
		return nil, s.serverErr("list posts", err)
	}
	return s.views(posts), nil
}

// Search matches q against title, description and category, newest first.
func (s *PostService) Search(ctx context.Context, q string) ([]models.PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.Search")
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.Validation(MsgSearchQuery, nil)
	}
	if err := validate.Collect(validate.MaxLen("q", "Search query", q, maxSearchQueryLn)).Err(""); err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, q, SearchLimit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.serverErr("search posts", err)
	}
	return s.views(posts), nil
}

// DeleteBySlug removes the post. An uploaded thumbnail is deleted in the
// background; failing to do so leaves an orphan file, never a failed request.
func (s *PostService) DeleteBySlug(ctx context.Context, actorID, slugStr string) error {
	deleted, err := s.posts.DeleteBySlug(ctx, slugStr)
	if err != nil {
		return s.postErr("delete post", err)
	}

	if deleted.ThumbnailKind == models.ThumbnailFile && deleted.Thumbnail != "" {
		ref := deleted.Thumbnail
		queued := s.jobs != nil && s.jobs.Submit(func(ctx context.Context) {
			if err := s.files.Remove(ctx, ref); err != nil {
				s.log.Warn("remove thumbnail", zap.String("ref", ref), zap.Error(err))
			}
		})
		if !queued {
			s.log.Warn("thumbnail cleanup not queued", zap.String("ref", ref))
		}
	}

	metrics.PostsTotal.WithLabelValues("deleted").Inc()
	recordAudit(ctx, s.audit, s.log, actorID, "post", deleted.ID, models.AuditPostDeleted, map[string]any{"slug": deleted.Slug})
	return nil
}

func (s *PostService) Save(ctx context.Context, userID, slugStr string) error {
	p, err := s.posts.GetBySlug(ctx, slugStr)
	if err != nil {
		return s.postErr("save post", err)
	}
	if err := s.saved.Save(ctx, userID, p.ID); err != nil {
		return s.postErr("save post", err)
	}
	return nil
}

func (s *PostService) Unsave(ctx context.Context, userID, slugStr string) error {
	p, err := s.posts.GetBySlug(ctx, slugStr)
	if err != nil {
		return s.postErr("unsave post", err)
	}
	if err := s.saved.Remove(ctx, userID, p.ID); err != nil {
		return s.serverErr("unsave post", err)
	}
	return nil
}

func (s *PostService) ListSaved(ctx context.Context, userID string) ([]models.PostView, error) {
	posts, err := s.saved.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.serverErr("list saved posts", err)
	}
	return s.views(posts), nil
}

func (s *PostService) view(p models.Post) models.PostView {
	v := models.PostView{Post: p}
	switch p.ThumbnailKind {
	case models.ThumbnailFile:
		if p.Thumbnail != "" {
			v.ThumbnailURL = joinURL(s.cfg.PublicBaseURL, p.Thumbnail)
		}
	case models.ThumbnailURL:
		v.ThumbnailURL = p.Thumbnail
	}
	return v
}

func (s *PostService) views(posts []models.Post) []models.PostView {
	out := make([]models.PostView, len(posts))
	for i, p := range posts {
		out[i] = s.view(p)
	}
	return out
}

func (s *PostService) postErr(msg string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(MsgPostNotFound)
	}
	return s.serverErr(msg, err)
}

func (s *PostService) serverErr(msg string, err error) error {
	s.log.Error(msg, zap.Error(err))
	return apperr.Server(err)
}

// joinURL joins base and path with exactly one slash between them.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
