package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps projects in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "kitbash"
	}
	if cfg.Collection == "" {
		cfg.Collection = "projects"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// projectDoc is the stored form. Assets are a list because asset names are
// paths and may contain dots, which MongoDB field names should not.
type projectDoc struct {
	ID        string     `bson:"_id"`
	Name      string     `bson:"name"`
	Manifest  []byte     `bson:"manifest"`
	Assets    []assetDoc `bson:"assets,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

type assetDoc struct {
	Name string `bson:"name"`
	Data []byte `bson:"data"`
}

func toDoc(p *Project) projectDoc {
	d := projectDoc{
		ID:        p.ID,
		Name:      p.Name,
		Manifest:  p.Manifest,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	names := make([]string, 0, len(p.Assets))
	for name := range p.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Assets = append(d.Assets, assetDoc{Name: name, Data: p.Assets[name]})
	}
	return d
}

func (d projectDoc) project() *Project {
	p := &Project{
		ID:        d.ID,
		Name:      d.Name,
		Manifest:  d.Manifest,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Assets) > 0 {
		p.Assets = make(map[string][]byte, len(d.Assets))
		for _, a := range d.Assets {
			p.Assets[a.Name] = a.Data
		}
	}
	return p
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Project, error) {
	var d projectDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get %s: %w", id, err)
	}
	return d.project(), nil
}

func (s *MongoStore) Put(ctx context.Context, p *Project) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, toDoc(p), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo put %s: %w", p.ID, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Project, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"assets": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	out := make([]*Project, len(docs))
	for i, d := range docs {
		out[i] = d.project()
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
