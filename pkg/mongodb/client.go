package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client represents a MongoDB client bound to the application database
type Client struct {
	client   *mongo.Client
	settings config.MongoSettings
	log      *slog.Logger

	grantMu sync.Mutex
	granted bool
}

// NewClient connects with the credentials from settings and checks the connection
func NewClient(ctx context.Context, settings config.MongoSettings) (*Client, error) {
	clientOptions := options.Client().
		ApplyURI(settings.URI()).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return Wrap(client, settings), nil
}

// Wrap builds a Client around an already connected driver client
func Wrap(client *mongo.Client, settings config.MongoSettings) *Client {
	return &Client{
		client:   client,
		settings: settings,
		log:      slog.Default().With("component", "mongodb"),
	}
}

// Database returns the application database. The first acquisitions grant the
// configured owner role on it to the connecting user; once a grant succeeds it is
// not repeated. A failed grant is logged and the handle is still returned.
func (c *Client) Database(ctx context.Context) *mongo.Database {
	if c.settings.GrantRoleOnConnect {
		if err := c.EnsureRole(ctx); err != nil {
			c.log.Warn("Role grant failed", "user", c.settings.Username, "role", c.settings.OwnerRole, "db", c.settings.AppDatabase, "error", err)
		}
	}
	return c.client.Database(c.settings.AppDatabase)
}

// EnsureRole grants the owner role now unless an earlier grant already succeeded
func (c *Client) EnsureRole(ctx context.Context) error {
	c.grantMu.Lock()
	defer c.grantMu.Unlock()

	if c.granted {
		return nil
	}
	if err := GrantRole(ctx, c.client, c.settings.AuthDatabase, c.settings.Username, c.settings.OwnerRole, c.settings.AppDatabase); err != nil {
		return err
	}
	c.granted = true
	return nil
}

// GrantRole runs grantRolesToUser against authDB. Granting a role the user already
// holds is a no-op on the server.
func GrantRole(ctx context.Context, client *mongo.Client, authDB, user, role, db string) error {
	cmd := bson.D{
		{Key: "grantRolesToUser", Value: user},
		{Key: "roles", Value: bson.A{bson.D{{Key: "role", Value: role}, {Key: "db", Value: db}}}},
	}
	if err := client.Database(authDB).RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("grant %s on %s to %s: %w", role, db, user, err)
	}
	return nil
}

// Ping checks that the deployment is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Disconnect disconnects from MongoDB
func (c *Client) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
