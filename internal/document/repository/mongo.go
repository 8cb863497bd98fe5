package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/collabwrite/collabwrite/internal/document"
)

// MongoRepo implements Repository on a MongoDB collection. Documents use a
// string UUID as _id; shareToken carries a sparse unique index so absent
// tokens don't collide.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "shareToken", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.SharedWith == nil {
		doc.SharedWith = []document.ShareGrant{}
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) GetByShareToken(ctx context.Context, token string) (*document.Document, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"shareToken": token}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"sharedWith.user": userID},
	}}
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) SetContent(ctx context.Context, id string, content json.RawMessage) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) SetTitle(ctx context.Context, id string, title string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Share(ctx context.Context, id string, userID string, role document.Role) error {
	now := time.Now().UTC()
	// update an existing grant in place first, then push a new one
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "sharedWith.user": userID},
		bson.M{"$set": bson.M{"sharedWith.$.role": role, "updatedAt": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	res, err = m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"sharedWith": document.ShareGrant{UserID: userID, Role: role}},
			"$set":  bson.M{"updatedAt": now},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) SetShareToken(ctx context.Context, id string, token string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"shareToken": token, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
