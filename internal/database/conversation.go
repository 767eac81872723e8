package repository

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"supplyhub/entity"
)

// GetConversations returns the user's conversations, most recently updated first.
func (m *MongoDB) GetConversations(userID string) ([]entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	filter := bson.D{{Key: "participants._id", Value: userID}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find conversations: %w", err)
	}
	defer cursor.Close(m.ctx)

	var conversations []entity.Conversation
	if err := cursor.All(m.ctx, &conversations); err != nil {
		return nil, fmt.Errorf("mongodb decode conversations: %w", err)
	}

	return conversations, nil
}

func (m *MongoDB) GetConversation(id string) (*entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	filter := bson.D{{Key: "_id", Value: id}}

	var conversation entity.Conversation
	err = collection.FindOne(m.ctx, filter).Decode(&conversation)
	if err != nil {
		return nil, m.findError(err)
	}

	return &conversation, nil
}

// FindConversationBetween returns an existing one-on-one conversation
// containing both users, or nil when none exists.
func (m *MongoDB) FindConversationBetween(userID, participantID string) (*entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	filter := bson.D{
		{Key: "participants._id", Value: bson.D{{Key: "$all", Value: bson.A{userID, participantID}}}},
		{Key: "participants", Value: bson.D{{Key: "$size", Value: 2}}},
	}

	var conversation entity.Conversation
	err = collection.FindOne(m.ctx, filter).Decode(&conversation)
	if err != nil {
		return nil, m.findError(err)
	}

	return &conversation, nil
}

func (m *MongoDB) InsertConversation(conversation entity.Conversation) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	_, err = collection.InsertOne(m.ctx, conversation)
	if err != nil {
		return fmt.Errorf("mongodb insert conversation: %w", err)
	}

	return nil
}

// TouchConversation stores the new last message and bumps unread
// counters for every participant except the sender.
func (m *MongoDB) TouchConversation(conversation *entity.Conversation, msg entity.Message) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	inc := bson.D{}
	for _, p := range conversation.Participants {
		if p == nil || msg.Sender == nil || p.ID == msg.Sender.ID {
			continue
		}
		inc = append(inc, bson.E{Key: "unread." + p.ID, Value: 1})
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "last_message", Value: msg},
			{Key: "updated_at", Value: time.Now()},
		}},
	}
	if len(inc) > 0 {
		update = append(update, bson.E{Key: "$inc", Value: inc})
	}

	_, err = collection.UpdateOne(m.ctx, bson.D{{Key: "_id", Value: conversation.ID}}, update)
	if err != nil {
		return fmt.Errorf("mongodb touch conversation: %w", err)
	}

	return nil
}

// ClearUnread zeroes the reader's counter on one conversation.
func (m *MongoDB) ClearUnread(conversationID, userID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	filter := bson.D{{Key: "_id", Value: conversationID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "unread." + userID, Value: 0}}}}

	_, err = collection.UpdateOne(m.ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb clear unread: %w", err)
	}

	return nil
}
