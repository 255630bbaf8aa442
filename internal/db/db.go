// Package db はMongoDBへの接続とコレクションの提供を行います。
package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yourusername/todo-api/internal/config"
)

const (
	collectionTodo = "todo"
	collectionUser = "user"
)

// Client はMongoDBクライアントと使用するコレクションを保持します。
type Client struct {
	client *mongo.Client
	todos  *mongo.Collection
	users  *mongo.Collection
}

// Connect はMongoDBに接続し、疎通を確認してクライアントを返します。
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	database := client.Database(cfg.MongoDB)

	return &Client{
		client: client,
		todos:  database.Collection(collectionTodo),
		users:  database.Collection(collectionUser),
	}, nil
}

// EnsureIndexes は必要なインデックスを作成します。
// email のユニークインデックスは、同時登録による重複を防ぐ最終防衛です。
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Todos は todo コレクションを返します。
func (c *Client) Todos() *mongo.Collection {
	return c.todos
}

// Users は user コレクションを返します。
func (c *Client) Users() *mongo.Collection {
	return c.users
}

// Close はMongoDBとの接続を閉じます。
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
