package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
)

type roundDocument struct {
	Round    int    `bson:"round"`
	Question string `bson:"question"`
	Venue    string `bson:"venue"`
	Solution string `bson:"solution"`
}

// RoundRepository stores each path in a collection named after it.
type RoundRepository struct {
	db *mongo.Database
}

func NewRoundRepository(db *mongo.Database) repository.RoundRepository {
	return &RoundRepository{db: db}
}

// Init is a no-op: path collections are created on first write.
func (r *RoundRepository) Init(context.Context) error {
	return nil
}

func (r *RoundRepository) Put(ctx context.Context, round *domain.Round) error {
	coll, err := r.collection(round.Path)
	if err != nil {
		return err
	}
	doc := roundDocument{
		Round:    round.Number,
		Question: round.Question,
		Venue:    round.Venue,
		Solution: round.Solution,
	}
	_, err = coll.ReplaceOne(ctx, bson.M{"round": round.Number}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert round: %w", err)
	}
	return nil
}

func (r *RoundRepository) Get(ctx context.Context, path string, number int) (*domain.Round, error) {
	coll, err := r.collection(path)
	if err != nil {
		return nil, err
	}
	var doc roundDocument
	if err := coll.FindOne(ctx, bson.M{"round": number}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find round: %w", err)
	}
	return &domain.Round{
		Path:     path,
		Number:   doc.Round,
		Question: doc.Question,
		Venue:    doc.Venue,
		Solution: doc.Solution,
	}, nil
}

func (r *RoundRepository) Count(ctx context.Context, path string) (int, error) {
	coll, err := r.collection(path)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count rounds: %w", err)
	}
	return int(n), nil
}

func (r *RoundRepository) collection(path string) (*mongo.Collection, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("path %q: %w", path, err)
	}
	return r.db.Collection(path), nil
}
