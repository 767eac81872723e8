package repository

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"supplyhub/entity"
)

func (m *MongoDB) GetUserByEmail(email string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "email", Value: email}}

	var user entity.User
	err = collection.FindOne(m.ctx, filter).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}

	return &user, nil
}

func (m *MongoDB) GetUserByID(id string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "_id", Value: id}}

	var user entity.User
	err = collection.FindOne(m.ctx, filter).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}

	return &user, nil
}

// SearchUsers matches username or company name, case-insensitive, capped at 20.
func (m *MongoDB) SearchUsers(query, excludeID string) ([]entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	pattern := primitive.Regex{Pattern: query, Options: "i"}
	filter := bson.D{
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
		{Key: "blocked", Value: false},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "username", Value: pattern}},
			bson.D{{Key: "company_name", Value: pattern}},
		}},
	}

	cursor, err := collection.Find(m.ctx, filter, options.Find().SetLimit(20))
	if err != nil {
		return nil, fmt.Errorf("mongodb search users: %w", err)
	}
	defer cursor.Close(m.ctx)

	var users []entity.User
	if err := cursor.All(m.ctx, &users); err != nil {
		return nil, fmt.Errorf("mongodb decode users: %w", err)
	}

	return users, nil
}

func (m *MongoDB) UpsertUser(user entity.User) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "_id", Value: user.ID}}
	opts := options.Replace().SetUpsert(true)

	_, err = collection.ReplaceOne(m.ctx, filter, user, opts)
	if err != nil {
		return fmt.Errorf("mongodb upsert user: %w", err)
	}

	return nil
}

// SetUserPresence updates the stored online flag and last-seen mark,
// mirrored onto every conversation's embedded participant summary.
func (m *MongoDB) SetUserPresence(userID string, online bool, lastSeen time.Time) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	db := connection.Database(m.database)

	_, err = db.Collection(usersCollection).UpdateOne(m.ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_online", Value: online},
			{Key: "last_seen", Value: lastSeen},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongodb set presence: %w", err)
	}

	_, err = db.Collection(conversationsCollection).UpdateMany(m.ctx,
		bson.D{{Key: "participants._id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "participants.$[p].is_online", Value: online},
			{Key: "participants.$[p].last_seen", Value: lastSeen},
		}}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.D{{Key: "p._id", Value: userID}}},
		}),
	)
	if err != nil {
		return fmt.Errorf("mongodb fan out presence: %w", err)
	}

	return nil
}
