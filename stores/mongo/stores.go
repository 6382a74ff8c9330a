// Package mongo provides MongoDB implementations of the oneblog store
// interfaces. Call EnsureIndexes once at startup: the unique index on
// users.email is what makes CreateUser race safe, and the TTL index lets
// MongoDB expire reset codes on its own.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	ob "github.com/panyam/oneblog"
)

// indexModels returns the indexes EnsureIndexes creates, per collection
func indexModels(otcExpiry time.Duration) map[string][]mongo.IndexModel {
	if otcExpiry <= 0 {
		otcExpiry = ob.DefaultOTCExpiry
	}
	return map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionBlogs: {
			{Keys: bson.D{{Key: "author_email", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		CollectionOTPs: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(otcExpiry / time.Second))},
		},
	}
}

// EnsureIndexes creates the indexes the stores depend on
func EnsureIndexes(ctx context.Context, db *mongo.Database, otcExpiry time.Duration) error {
	for coll, models := range indexModels(otcExpiry) {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// ============================================================================
// UserStore
// ============================================================================

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(CollectionUsers)}
}

func (s *UserStore) CreateUser(ctx context.Context, user *ob.User) error {
	if _, err := s.coll.InsertOne(ctx, userToDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ob.ErrEmailExists
		}
		return err
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*ob.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ob.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*ob.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *UserStore) GetUserById(ctx context.Context, userID string) (*ob.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: userID}})
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ob.ErrUserNotFound
	}
	return nil
}

// ============================================================================
// BlogStore
// ============================================================================

type BlogStore struct {
	coll *mongo.Collection
}

func NewBlogStore(db *mongo.Database) *BlogStore {
	return &BlogStore{coll: db.Collection(CollectionBlogs)}
}

func (s *BlogStore) CreateBlog(ctx context.Context, blog *ob.Blog) error {
	_, err := s.coll.InsertOne(ctx, blogToDoc(blog))
	return err
}

func (s *BlogStore) GetBlog(ctx context.Context, blogID string) (*ob.Blog, error) {
	var doc blogDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: blogID}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ob.ErrBlogNotFound
		}
		return nil, err
	}
	return doc.toBlog(), nil
}

func (s *BlogStore) ListBlogsByAuthor(ctx context.Context, authorEmail string) ([]*ob.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{{Key: "author_email", Value: authorEmail}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	blogs := make([]*ob.Blog, len(docs))
	for i := range docs {
		blogs[i] = docs[i].toBlog()
	}
	return blogs, nil
}

func (s *BlogStore) SaveBlog(ctx context.Context, blog *ob.Blog) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: blog.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: blog.Title},
			{Key: "description", Value: blog.Description},
			{Key: "updatedAt", Value: blog.UpdatedAt},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ob.ErrBlogNotFound
	}
	return nil
}

func (s *BlogStore) DeleteBlog(ctx context.Context, blogID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: blogID}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ob.ErrBlogNotFound
	}
	return nil
}

// ============================================================================
// OTCStore
// ============================================================================

// OTCStore keeps one document per email. The TTL monitor only runs about
// once a minute, so reads also filter on expiresAt.
type OTCStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewOTCStore(db *mongo.Database) *OTCStore {
	return &OTCStore{coll: db.Collection(CollectionOTPs), now: time.Now}
}

// SaveOTC upserts by email, replacing any previous code in one write
func (s *OTCStore) SaveOTC(ctx context.Context, rec *ob.OTCRecord) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: rec.Email}},
		otcRecordToDoc(rec),
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *OTCStore) FindOTC(ctx context.Context, email, code string) (*ob.OTCRecord, error) {
	filter := bson.D{
		{Key: "_id", Value: email},
		{Key: "otp", Value: code},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: s.now()}}},
	}
	var doc otpDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ob.ErrOTCNotFound
		}
		return nil, err
	}
	return doc.toOTCRecord(), nil
}

func (s *OTCStore) DeleteOTCs(ctx context.Context, email string) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{{Key: "_id", Value: email}})
	return err
}

// DeleteExpiredOTCs removes codes the TTL monitor has not reached yet
func (s *OTCStore) DeleteExpiredOTCs(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: s.now()}}}})
	return err
}
