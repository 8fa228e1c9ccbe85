// Package mongostore implements store.Store on MongoDB. Writes run inside
// multi-document transactions, so the server must be a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"citysnap-be/models"
	"citysnap-be/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection      = "users"
	categoriesCollection = "categories"
	issuesCollection     = "issues"
	commentsCollection   = "comments"
	countersCollection   = "counters"

	// taxonomyLock is the counters document every tree-validated write bumps.
	taxonomyLock = "taxonomy"
)

// Store keeps integer ids so records are interchangeable with the SQL backend.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	// sessCtx is set inside a transaction and replaces the caller's ctx.
	sessCtx mongo.SessionContext
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*Store)(nil)

// New returns a Store over the named database of client.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// EnsureIndexes creates the lookup indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "position", Value: 1}}},
			{Keys: bson.D{{Key: "active", Value: 1}}},
		},
		issuesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "categoryId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "latitude", Value: 1}, {Key: "longitude", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "issueId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&Store{client: s.client, db: s.db, sessCtx: sc})
	})
	return err
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) c(ctx context.Context) context.Context {
	if s.sessCtx != nil {
		return s.sessCtx
	}
	return ctx
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.col(countersCollection).FindOneAndUpdate(
		s.c(ctx),
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", name, err)
	}
	return counter.Seq, nil
}

func (s *Store) findOne(ctx context.Context, name string, id int64, out interface{}) error {
	err := s.col(name).FindOne(s.c(ctx), bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) deleteOne(ctx context.Context, name string, id int64) error {
	res, err := s.col(name).DeleteOne(s.c(ctx), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) replaceOne(ctx context.Context, name string, id int64, doc interface{}) error {
	res, err := s.col(name).ReplaceOne(s.c(ctx), bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = now
	}
}

// Users

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, usersCollection, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.col(usersCollection).FindOne(s.c(ctx), bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	id, err := s.nextID(ctx, usersCollection)
	if err != nil {
		return err
	}
	u.ID = id
	stamp(&u.CreatedAt, &u.UpdatedAt)
	_, err = s.col(usersCollection).InsertOne(s.c(ctx), u)
	return err
}

// Categories

// LockTaxonomy writes the shared taxonomy document. Two transactions doing so
// conflict, and WithTransaction retries the loser against the new tree.
func (s *Store) LockTaxonomy(ctx context.Context) error {
	_, err := s.col(countersCollection).UpdateOne(
		s.c(ctx),
		bson.M{"_id": taxonomyLock},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("lock taxonomy: %w", err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.col(categoriesCollection).Find(s.c(ctx), bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(s.c(ctx))

	var cats []models.Category
	if err := cursor.All(s.c(ctx), &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := s.findOne(ctx, categoriesCollection, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CountIssuesInCategories(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.col(issuesCollection).CountDocuments(s.c(ctx), bson.M{"categoryId": bson.M{"$in": ids}})
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ParentID != nil {
		if _, err := s.GetCategory(ctx, *c.ParentID); err != nil {
			return fmt.Errorf("parent category %d: %w", *c.ParentID, err)
		}
	}
	id, err := s.nextID(ctx, categoriesCollection)
	if err != nil {
		return err
	}
	c.ID = id
	stamp(&c.CreatedAt, &c.UpdatedAt)
	_, err = s.col(categoriesCollection).InsertOne(s.c(ctx), c)
	return err
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.replaceOne(ctx, categoriesCollection, c.ID, c)
}

func (s *Store) DeleteCategories(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err := s.deleteOne(ctx, categoriesCollection, id); err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
	}
	return nil
}

// Issues

func (s *Store) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	var i models.Issue
	if err := s.findOne(ctx, issuesCollection, id, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func issueFilter(q store.IssueQuery) bson.M {
	filter := bson.M{}
	if q.LocatedOnly {
		filter["latitude"] = bson.M{"$exists": true, "$ne": nil}
		filter["longitude"] = bson.M{"$exists": true, "$ne": nil}
		filter["streetAddress"] = bson.M{"$exists": true, "$nin": bson.A{nil, ""}}
	}
	if q.OwnerID != nil {
		filter["userId"] = *q.OwnerID
	}
	if q.Status != nil {
		filter["status"] = *q.Status
	}
	if q.CategoryID != nil {
		filter["categoryId"] = *q.CategoryID
	}
	if b := q.Bounds; b != nil {
		filter["latitude"] = bson.M{"$gte": b.South, "$lte": b.North}
		filter["longitude"] = bson.M{"$gte": b.West, "$lte": b.East}
	}
	return filter
}

func (s *Store) ListIssues(ctx context.Context, q store.IssueQuery) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.col(issuesCollection).Find(s.c(ctx), issueFilter(q), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(s.c(ctx))

	var issues []models.Issue
	if err := cursor.All(s.c(ctx), &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *Store) CreateIssue(ctx context.Context, i *models.Issue) error {
	if _, err := s.GetUser(ctx, i.UserID); err != nil {
		return fmt.Errorf("issue owner %d: %w", i.UserID, err)
	}
	id, err := s.nextID(ctx, issuesCollection)
	if err != nil {
		return err
	}
	i.ID = id
	stamp(&i.CreatedAt, &i.UpdatedAt)
	_, err = s.col(issuesCollection).InsertOne(s.c(ctx), i)
	return err
}

func (s *Store) UpdateIssue(ctx context.Context, i *models.Issue) error {
	return s.replaceOne(ctx, issuesCollection, i.ID, i)
}

func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	if _, err := s.col(commentsCollection).DeleteMany(s.c(ctx), bson.M{"issueId": id}); err != nil {
		return err
	}
	return s.deleteOne(ctx, issuesCollection, id)
}

// Comments

func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	if err := s.findOne(ctx, commentsCollection, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, issueID int64) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.col(commentsCollection).Find(s.c(ctx), bson.M{"issueId": issueID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(s.c(ctx))

	var comments []models.Comment
	if err := cursor.All(s.c(ctx), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) CountComments(ctx context.Context, issueID int64) (int64, error) {
	return s.col(commentsCollection).CountDocuments(s.c(ctx), bson.M{"issueId": issueID})
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if _, err := s.GetIssue(ctx, c.IssueID); err != nil {
		return fmt.Errorf("comment issue %d: %w", c.IssueID, err)
	}
	id, err := s.nextID(ctx, commentsCollection)
	if err != nil {
		return err
	}
	c.ID = id
	stamp(&c.CreatedAt, nil)
	_, err = s.col(commentsCollection).InsertOne(s.c(ctx), c)
	return err
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	return s.deleteOne(ctx, commentsCollection, id)
}
