package database

import (
	"context"
	"errors"
	"fmt"
	"clubq/entity"
	"clubq/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionProgress = "completion_progress"

// MongoDB keeps the advisory completion-progress state. It lives outside
// the relational core on purpose: progress writes happen after the
// onboarding transaction commits and are never allowed to fail it.
type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

type progressDoc struct {
	UserID int64    `bson:"user_id"`
	Role   string   `bson:"role"`
	Steps  []string `bson:"steps"`
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// AddStep records a completed step idempotently: $addToSet leaves the
// document unchanged when the step is already present.
func (m *MongoDB) AddStep(ctx context.Context, userID int64, role entity.RoleKind, step string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionProgress)
	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "role", Value: string(role)}}
	update := bson.D{{Key: "$addToSet", Value: bson.D{{Key: "steps", Value: step}}}}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("mongodb update progress: %w", err)
	}
	return nil
}

// StepsByUser returns the completed steps per role; a user with no
// recorded steps yields an empty map, not an error.
func (m *MongoDB) StepsByUser(ctx context.Context, userID int64) (map[entity.RoleKind][]string, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionProgress)
	filter := bson.D{{Key: "user_id", Value: userID}}
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return map[entity.RoleKind][]string{}, nil
		}
		return nil, fmt.Errorf("mongodb find progress: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []progressDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb decode progress: %w", err)
	}

	steps := make(map[entity.RoleKind][]string, len(docs))
	for _, doc := range docs {
		steps[entity.RoleKind(doc.Role)] = doc.Steps
	}
	return steps, nil
}
