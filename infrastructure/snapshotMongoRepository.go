package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mdblp/analytics-service/schema"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const idxSubjectComputedAt = "SubjectIdComputedAt"

// MongoConfig connection parameters of the snapshots database
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

var snapshotIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "subject_id", Value: 1}, {Key: "computed_at", Value: -1}},
		Options: options.Index().SetName(idxSubjectComputedAt),
	},
}

// SnapshotMongoRepository append only store of the analytics snapshots
type SnapshotMongoRepository struct {
	clientOptions *options.ClientOptions
	config        MongoConfig
	client        *mongo.Client
	collection    *mongo.Collection
	logger        *logrus.Logger
}

var errMongoNotStarted = errors.New("mongo client not started")

// snapshotDocument what is stored, one document per computation
type snapshotDocument struct {
	SubjectID  string    `bson:"subject_id" json:"subject_id"`
	Max        float64   `bson:"max" json:"max"`
	Min        float64   `bson:"min" json:"min"`
	Avg        float64   `bson:"avg" json:"avg"`
	ComputedAt string    `bson:"computed_at" json:"computed_at"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

var timeNow = time.Now

func newSnapshotDocument(snapshot *schema.Snapshot, createdAt time.Time) snapshotDocument {
	return snapshotDocument{
		SubjectID:  snapshot.SubjectID,
		Max:        snapshot.Max,
		Min:        snapshot.Min,
		Avg:        snapshot.Avg,
		ComputedAt: snapshot.ComputedAt,
		CreatedAt:  createdAt.UTC(),
	}
}

// NewSnapshotMongoRepository validates the client options, Start connects.
func NewSnapshotMongoRepository(config MongoConfig, logger *logrus.Logger) (*SnapshotMongoRepository, error) {
	clientOptions := options.Client().ApplyURI(config.URI)
	if config.Timeout > 0 {
		clientOptions.SetServerSelectionTimeout(config.Timeout)
		clientOptions.SetConnectTimeout(config.Timeout)
	}
	if err := clientOptions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongo uri: %w", err)
	}
	return &SnapshotMongoRepository{
		clientOptions: clientOptions,
		config:        config,
		logger:        logger,
	}, nil
}

// Start connects the client and creates the indexes.
//
// The driver connects lazily, an unreachable server is reported by Persist or Ping, not here.
// A failure to create the indexes is logged only: the server may come up later.
func (p *SnapshotMongoRepository) Start(ctx context.Context) error {
	client, err := mongo.Connect(ctx, p.clientOptions)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	p.client = client
	p.collection = client.Database(p.config.Database).Collection(p.config.Collection)
	if _, err := p.collection.Indexes().CreateMany(ctx, snapshotIndexes); err != nil {
		p.logger.WithError(err).WithField("collection", p.collection.Name()).Warn("unable to create snapshot indexes")
	}
	return nil
}

// Persist appends one snapshot document, without deduplication
func (p *SnapshotMongoRepository) Persist(ctx context.Context, snapshot *schema.Snapshot) error {
	if p.collection == nil {
		return schema.NewPersistenceError(snapshot.SubjectID, errMongoNotStarted)
	}
	doc := newSnapshotDocument(snapshot, timeNow())
	if _, err := p.collection.InsertOne(ctx, doc); err != nil {
		return schema.NewPersistenceError(snapshot.SubjectID, fmt.Errorf("insert into %s: %w", p.collection.Name(), err))
	}
	return nil
}

func (p *SnapshotMongoRepository) Ping(ctx context.Context) error {
	if p.client == nil {
		return errMongoNotStarted
	}
	return p.client.Ping(ctx, readpref.Primary())
}

func (p *SnapshotMongoRepository) Close(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.Disconnect(ctx)
}
