package oneblog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type CreateBlogRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r *CreateBlogRequest) Validate() error {
	if f := missingField([2]string{"title", r.Title}, [2]string{"description", r.Description}); f != "" {
		return validationError(MsgAllFieldsRequired, f)
	}
	return nil
}

// BlogUpdate is a partial edit. Nil fields are left unchanged.
type BlogUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// BlogService enforces that users only see and change their own blogs
type BlogService struct {
	Users  UserStore
	Blogs  BlogStore
	Logger *slog.Logger
	Now    func() time.Time
}

func (s *BlogService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *BlogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// actingUser loads the caller. msg is reported if the store fails.
func (s *BlogService) actingUser(ctx context.Context, userID, msg string) (*User, error) {
	user, err := s.Users.GetUserById(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, NewError(KindNotFound, MsgUserNotFound)
	} else if err != nil {
		s.logger().Error("blogs: user lookup failed", "error", err)
		return nil, upstreamError(msg, err)
	}
	return user, nil
}

// ownedBlog loads the blog and checks that user is its author
func (s *BlogService) ownedBlog(ctx context.Context, user *User, blogID, msg string) (*Blog, error) {
	blog, err := s.Blogs.GetBlog(ctx, blogID)
	if errors.Is(err, ErrBlogNotFound) {
		return nil, NewError(KindNotFound, MsgBlogNotFound)
	} else if err != nil {
		s.logger().Error("blogs: blog lookup failed", "error", err)
		return nil, upstreamError(msg, err)
	}
	if !blog.OwnedBy(user) {
		return nil, NewError(KindForbidden, MsgNotAuthorized)
	}
	return blog, nil
}

func (s *BlogService) List(ctx context.Context, userID string) ([]*Blog, error) {
	user, err := s.actingUser(ctx, userID, MsgFetchBlogsFailed)
	if err != nil {
		return nil, err
	}
	blogs, err := s.Blogs.ListBlogsByAuthor(ctx, user.Email)
	if err != nil {
		s.logger().Error("blogs: list failed", "error", err)
		return nil, upstreamError(MsgFetchBlogsFailed, err)
	}
	if blogs == nil {
		blogs = []*Blog{}
	}
	return blogs, nil
}

func (s *BlogService) Create(ctx context.Context, userID string, req CreateBlogRequest) (*Blog, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.actingUser(ctx, userID, MsgCreateBlogFailed)
	if err != nil {
		return nil, err
	}
	now := s.now()
	blog := &Blog{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		AuthorEmail: user.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Blogs.CreateBlog(ctx, blog); err != nil {
		s.logger().Error("blogs: create failed", "error", err)
		return nil, upstreamError(MsgCreateBlogFailed, err)
	}
	return blog, nil
}

func (s *BlogService) Edit(ctx context.Context, userID, blogID string, update BlogUpdate) (*Blog, error) {
	user, err := s.actingUser(ctx, userID, MsgUpdateBlogFailed)
	if err != nil {
		return nil, err
	}
	blog, err := s.ownedBlog(ctx, user, blogID, MsgUpdateBlogFailed)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		blog.Title = *update.Title
	}
	if update.Description != nil {
		blog.Description = *update.Description
	}
	blog.UpdatedAt = s.now()
	if err := s.Blogs.SaveBlog(ctx, blog); err != nil {
		s.logger().Error("blogs: save failed", "error", err)
		return nil, upstreamError(MsgUpdateBlogFailed, err)
	}
	return blog, nil
}

func (s *BlogService) Delete(ctx context.Context, userID, blogID string) error {
	user, err := s.actingUser(ctx, userID, MsgDeleteBlogFailed)
	if err != nil {
		return err
	}
	if _, err := s.ownedBlog(ctx, user, blogID, MsgDeleteBlogFailed); err != nil {
		return err
	}
	if err := s.Blogs.DeleteBlog(ctx, blogID); err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			return NewError(KindNotFound, MsgBlogNotFound)
		}
		s.logger().Error("blogs: delete failed", "error", err)
		return upstreamError(MsgDeleteBlogFailed, err)
	}
	return nil
}
