package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/personachat/personachat/internal/models"
)

const (
	collConversations = "conversations"
	collMessages      = "messages"
	collCounters      = "counters"

	defaultDatabase = "personachat"
)

// MongoDB implements the history Store interface for MongoDB
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	uri      string
}

// New creates a new MongoDB history store instance
func New(uri string) *MongoDB {
	return &MongoDB{
		uri: uri,
	}
}

// Connect establishes connection to MongoDB
func (m *MongoDB) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(m.uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.database = client.Database(defaultDatabase)

	if err := m.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.client.Ping(ctx, nil)
}

// createIndexes creates necessary indexes for message lookups
func (m *MongoDB) createIndexes(ctx context.Context) error {
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "timestamp", Value: 1},
			},
		},
	}

	if _, err := m.database.Collection(collMessages).Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	conversationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
			},
		},
	}

	if _, err := m.database.Collection(collConversations).Indexes().CreateMany(ctx, conversationIndexes); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}

	return nil
}

// nextID returns the next value of a named monotonic sequence. SQL backends
// get integer IDs from autoincrement; this keeps the contract identical.
func (m *MongoDB) nextID(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.database.Collection(collCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", name, err)
	}

	return doc.Seq, nil
}

// CreateConversation creates a new conversation and returns it
func (m *MongoDB) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	id, err := m.nextID(ctx, collConversations)
	if err != nil {
		return nil, err
	}

	conv := &models.Conversation{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	doc := bson.M{
		"_id":        conv.ID,
		"created_at": conv.CreatedAt,
	}
	if conv.Title != "" {
		doc["title"] = conv.Title
	}

	if _, err := m.database.Collection(collConversations).InsertOne(ctx, doc); err != nil {
		return nil, err
	}

	return conv, nil
}

// GetConversation retrieves a conversation by ID
func (m *MongoDB) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.database.Collection(collConversations).FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("conversation not found: %d", id)
	}
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

// ListConversations lists all conversations, newest first
func (m *MongoDB) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.database.Collection(collConversations).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []*models.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}

	return conversations, nil
}

// RenameConversation updates a conversation's title
func (m *MongoDB) RenameConversation(ctx context.Context, id int64, title string) error {
	result, err := m.database.Collection(collConversations).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("conversation not found: %d", id)
	}

	return nil
}

// DeleteConversation deletes a conversation and its messages
func (m *MongoDB) DeleteConversation(ctx context.Context, id int64) error {
	result, err := m.database.Collection(collConversations).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("conversation not found: %d", id)
	}

	_, err = m.database.Collection(collMessages).DeleteMany(ctx, bson.M{"conversation_id": id})
	return err
}

// AddMessage appends a message to a conversation
func (m *MongoDB) AddMessage(ctx context.Context, msg *models.Message) error {
	id, err := m.nextID(ctx, collMessages)
	if err != nil {
		return err
	}

	msg.ID = id
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	doc := bson.M{
		"_id":             msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            msg.Role,
		"content":         msg.Content,
		"timestamp":       msg.Timestamp,
	}
	if msg.ModelUsed != "" {
		doc["model_used"] = msg.ModelUsed
	}
	if len(msg.Metadata) > 0 {
		doc["metadata"] = msg.Metadata
	}

	_, err = m.database.Collection(collMessages).InsertOne(ctx, doc)
	return err
}

// ListMessages returns messages for a conversation in chronological order
func (m *MongoDB) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}

	if limit > 0 {
		// Take the tail of the conversation, then restore chronological order
		opts := options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(limit))

		cursor, err := m.database.Collection(collMessages).Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var messages []*models.Message
		if err := cursor.All(ctx, &messages); err != nil {
			return nil, err
		}

		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
		return messages, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := m.database.Collection(collMessages).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// PruneBefore deletes conversations created before cutoff
func (m *MongoDB) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	filter := bson.M{"created_at": bson.M{"$lt": cutoff}}

	cursor, err := m.database.Collection(collConversations).Find(ctx, filter)
	if err != nil {
		return 0, err
	}

	var ids []int64
	for cursor.Next(ctx) {
		var doc struct {
			ID int64 `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			cursor.Close(ctx)
			return 0, err
		}
		ids = append(ids, doc.ID)
	}
	cursor.Close(ctx)

	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := m.database.Collection(collMessages).DeleteMany(ctx, bson.M{"conversation_id": bson.M{"$in": ids}}); err != nil {
		return 0, err
	}

	result, err := m.database.Collection(collConversations).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}

	return int(result.DeletedCount), nil
}

// Stats returns aggregate counts over the stored history
func (m *MongoDB) Stats(ctx context.Context) (*models.HistoryStats, error) {
	stats := &models.HistoryStats{
		MessagesByModel: make(map[string]int),
		LastUpdated:     time.Now().UTC(),
	}

	convCount, err := m.database.Collection(collConversations).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.TotalConversations = int(convCount)

	msgCount, err := m.database.Collection(collMessages).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.TotalMessages = int(msgCount)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"model_used": bson.M{"$exists": true, "$ne": ""}}}},
		{{Key: "$group", Value: bson.M{"_id": "$model_used", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := m.database.Collection(collMessages).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			Model string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		stats.MessagesByModel[doc.Model] = doc.Count
	}

	return stats, cursor.Err()
}
