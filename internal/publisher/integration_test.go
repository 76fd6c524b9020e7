//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"blog_aggregator/internal/domain"
	"blog_aggregator/testdata/utils"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

// newPublisher declares a fresh topology per test so queues never share
// messages across tests.
func (s *RabbitMQIntegrationSuite) newPublisher(suffix string) (*RabbitMQ, Config) {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   fmt.Sprintf("posts-exchange-%s", suffix),
		RoutingKey: fmt.Sprintf("posts-key-%s", suffix),
		QueueName:  fmt.Sprintf("posts-queue-%s", suffix),
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	return pub, cfg
}

func (s *RabbitMQIntegrationSuite) simplePost(id string) *domain.Post {
	return &domain.Post{
		ID:          id,
		Title:       "Test Post",
		URL:         "https://dev.to/alice/test-post",
		PublishedAt: time.Now().Truncate(time.Millisecond),
		Tags:        []string{},
		Source:      "dev",
	}
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	pub, _ := s.newPublisher("conn")
	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishCreate() {
	pub, cfg := s.newPublisher("create")
	defer pub.Close()

	s.NoError(pub.Publish(s.ctx, s.simplePost("101"), true))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	var received PostMessage
	s.NoError(json.Unmarshal(msg.Body, &received))
	s.Equal("create", received.Action)
	s.Equal("101", received.Post.ID)
	s.Equal("Test Post", received.Post.Title)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishUpdate() {
	pub, cfg := s.newPublisher("update")
	defer pub.Close()

	s.NoError(pub.Publish(s.ctx, s.simplePost("202"), false))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	var received PostMessage
	s.NoError(json.Unmarshal(msg.Body, &received))
	s.Equal("update", received.Action)
	s.Equal("202", received.Post.ID)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessageFormat() {
	pub, cfg := s.newPublisher("format")
	defer pub.Close()

	now := time.Now().Truncate(time.Millisecond)
	post := &domain.Post{
		ID:                 "303",
		Title:              "Full Post",
		Description:        "Full Description",
		Content:            utils.Ptr("<p>Full Body</p>"),
		Slug:               "full-post",
		URL:                "https://bob.hashnode.dev/full-post",
		CanonicalURL:       "https://bob.hashnode.dev/full-post",
		CoverImage:         utils.Ptr("https://cdn.hashnode.com/cover.png"),
		PublishedAt:        now,
		ReadingTimeMinutes: utils.Ptr(5),
		Tags:               []string{"go", "api"},
		Author: domain.Author{
			Name:     "Bob",
			Username: "bob",
			URL:      "https://hashnode.com/@bob",
		},
		Stats:  domain.PostStats{Reactions: 9, Comments: 2, Views: 150},
		Source: "hashnode",
	}

	s.NoError(pub.Publish(s.ctx, post, true))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)
	s.Equal("application/json", msg.ContentType)

	var received PostMessage
	s.NoError(json.Unmarshal(msg.Body, &received))

	s.Equal("create", received.Action)
	s.Equal("hashnode", received.Post.Source)
	s.Equal("303", received.Post.ID)
	s.Equal("Full Post", received.Post.Title)
	s.Require().NotNil(received.Post.Content)
	s.Equal("<p>Full Body</p>", *received.Post.Content)
	s.Equal([]string{"go", "api"}, received.Post.Tags)
	s.Equal("Bob", received.Post.Author.Name)
	s.Equal(9, received.Post.Stats.Reactions)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessagePersistence() {
	pub, cfg := s.newPublisher("persist")
	defer pub.Close()

	s.NoError(pub.Publish(s.ctx, s.simplePost("404"), true))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("timed out waiting for message")
		return nil
	}
}
