package stores

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ob "github.com/panyam/oneblog"
)

// FSBlogStore stores each blog as {StoragePath}/blogs/<blog id>.json.
// Listing scans the directory, which is fine for development sized data.
type FSBlogStore struct {
	StoragePath string
	mu          sync.RWMutex
}

func NewFSBlogStore(storagePath string) *FSBlogStore {
	return &FSBlogStore{StoragePath: storagePath}
}

func (s *FSBlogStore) getBlogPath(blogID string) string {
	return filepath.Join(s.StoragePath, "blogs", blogID+".json")
}

func (s *FSBlogStore) CreateBlog(ctx context.Context, blog *ob.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFile(s.getBlogPath(blog.ID), blog)
}

func (s *FSBlogStore) GetBlog(ctx context.Context, blogID string) (*ob.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readBlog(blogID)
}

func (s *FSBlogStore) readBlog(blogID string) (*ob.Blog, error) {
	// ids come from URLs; refuse anything that could escape the directory
	if blogID == "" || strings.ContainsAny(blogID, `/\`) || blogID == "." || blogID == ".." {
		return nil, ob.ErrBlogNotFound
	}
	var blog ob.Blog
	found, err := readJSONFile(s.getBlogPath(blogID), &blog)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ob.ErrBlogNotFound
	}
	return &blog, nil
}

func (s *FSBlogStore) ListBlogsByAuthor(ctx context.Context, authorEmail string) ([]*ob.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blogsDir := filepath.Join(s.StoragePath, "blogs")
	entries, err := os.ReadDir(blogsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*ob.Blog{}, nil
		}
		return nil, err
	}

	blogs := []*ob.Blog{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var blog ob.Blog
		if _, err := readJSONFile(filepath.Join(blogsDir, entry.Name()), &blog); err != nil {
			log.Printf("skipping unreadable blog file %s: %v", entry.Name(), err)
			continue
		}
		if blog.AuthorEmail == authorEmail {
			blogs = append(blogs, &blog)
		}
	}
	sort.SliceStable(blogs, func(i, j int) bool {
		return blogs[i].CreatedAt.Before(blogs[j].CreatedAt)
	})
	return blogs, nil
}

func (s *FSBlogStore) SaveBlog(ctx context.Context, blog *ob.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readBlog(blog.ID)
	if err != nil {
		return err
	}
	existing.Title = blog.Title
	existing.Description = blog.Description
	existing.UpdatedAt = blog.UpdatedAt
	return writeJSONFile(s.getBlogPath(blog.ID), existing)
}

func (s *FSBlogStore) DeleteBlog(ctx context.Context, blogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readBlog(blogID); err != nil {
		return err
	}
	return removeFile(s.getBlogPath(blogID))
}
