package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insightboard/insightboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository with users, user_tokens and a
// counters collection that hands out sequential int64 user ids.
// Multi-document transactions require a replica set.
type MongoRepository struct {
	client   *mongo.Client
	users    *mongo.Collection
	tokens   *mongo.Collection
	counters *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		client:   client,
		users:    db.Collection("users"),
		tokens:   db.Collection("user_tokens"),
		counters: db.Collection("counters"),
	}
}

// EnsureIndexes creates the unique provider-id index on users.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "githubId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) nextUserID(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": "users"}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	return doc.Seq, err
}

func (r *MongoRepository) UpsertWithCredential(ctx context.Context, p models.Profile, encryptedSecret string) (models.User, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return models.User{}, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()
		var u models.User
		err := r.users.FindOne(sc, bson.M{"githubId": p.ID}).Decode(&u)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			id, err := r.nextUserID(sc)
			if err != nil {
				return nil, fmt.Errorf("allocate user id: %w", err)
			}
			u = models.User{ID: id, ExternalID: p.ID, Username: p.Login, AvatarURL: p.AvatarURL, CreatedAt: now, UpdatedAt: now}
			if _, err := r.users.InsertOne(sc, u); err != nil {
				return nil, fmt.Errorf("insert user: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("find user: %w", err)
		default:
			u.Username, u.AvatarURL, u.UpdatedAt = p.Login, p.AvatarURL, now
			if _, err := r.users.UpdateOne(sc, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
				"username":  u.Username,
				"avatarUrl": u.AvatarURL,
				"updatedAt": u.UpdatedAt,
			}}); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
		}

		if _, err := r.tokens.UpdateOne(sc, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
			"accessTokenEncrypted": encryptedSecret,
			"updatedAt":            now,
		}}, options.Update().SetUpsert(true)); err != nil {
			return nil, fmt.Errorf("upsert credential: %w", err)
		}
		return u, nil
	})
	if err != nil {
		return models.User{}, err
	}
	return res.(models.User), nil
}

func (r *MongoRepository) ListCredentials(ctx context.Context) ([]models.CredentialRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: r.users.Name()},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "username", Value: "$user.username"},
			{Key: "accessTokenEncrypted", Value: 1},
		}}},
	}
	cur, err := r.tokens.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer cur.Close(ctx)

	var recs []models.CredentialRecord
	for cur.Next(ctx) {
		var doc struct {
			UserID          int64  `bson:"_id"`
			Username        string `bson:"username"`
			EncryptedSecret string `bson:"accessTokenEncrypted"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode credential: %w", err)
		}
		recs = append(recs, models.CredentialRecord{UserID: doc.UserID, Username: doc.Username, EncryptedSecret: doc.EncryptedSecret})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return recs, nil
}
