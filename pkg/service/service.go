package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/userposts/pkg/client"
	"github.com/Sternrassler/userposts/pkg/join"
	"github.com/Sternrassler/userposts/pkg/logging"
	"github.com/Sternrassler/userposts/pkg/model"
)

const (
	// DefaultBaseURL is the public JSONPlaceholder API.
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"

	usersPath = "/users"
	postsPath = "/posts"
)

// Fetcher is the subset of *client.Client the service needs.
type Fetcher interface {
	FetchUsers(ctx context.Context, address string, maxAttempts int) ([]model.User, error)
	FetchPosts(ctx context.Context, address string, maxAttempts int) ([]model.Post, error)
}

// Config holds the service configuration.
type Config struct {
	// BaseURL of the upstream API, without trailing slash
	BaseURL string

	// MaxAttempts per collection; <= 0 uses the client default
	MaxAttempts int
}

// Service orchestrates one enrichment run per call.
type Service struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a new Service. An empty BaseURL selects DefaultBaseURL.
func New(fetcher Fetcher, cfg Config) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Service{
		fetcher: fetcher,
		config:  cfg,
		logger:  logging.NewLogger("service"),
	}, nil
}

// NewWithClient wires a *client.Client as the Fetcher.
func NewWithClient(c *client.Client, cfg Config) (*Service, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	return New(ClientFetcher{Client: c}, cfg)
}

// GetUsersAndTheirPosts fetches both collections concurrently and joins them.
// Both fetches must succeed; the first failure cancels the other one. Every
// failure is logged and returned, never replaced by a partial result.
func (s *Service) GetUsersAndTheirPosts(ctx context.Context) ([]model.EnrichedUser, error) {
	runID, ok := client.RequestIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = client.WithRequestID(ctx, runID)
	}
	logger := s.logger.With().Str("run_id", runID).Logger()

	var users []model.User
	var posts []model.Post

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		users, err = s.fetcher.FetchUsers(gctx, s.config.BaseURL+usersPath, s.config.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		posts, err = s.fetcher.FetchPosts(gctx, s.config.BaseURL+postsPath, s.config.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch posts: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Error while retrieving data")
		return nil, err
	}

	enriched, err := join.Join(users, posts)
	if err != nil {
		logger.Error().Err(err).Msg("Error while retrieving data")
		return nil, fmt.Errorf("join: %w", err)
	}

	logger.Info().
		Int("users", len(users)).
		Int("posts", len(posts)).
		Msg("Users enriched with posts")

	return enriched, nil
}

// ClientFetcher adapts *client.Client to Fetcher.
type ClientFetcher struct {
	Client *client.Client
}

// FetchUsers implements Fetcher.
func (f ClientFetcher) FetchUsers(ctx context.Context, address string, maxAttempts int) ([]model.User, error) {
	return client.Fetch[[]model.User](ctx, f.Client, address, maxAttempts)
}

// FetchPosts implements Fetcher.
func (f ClientFetcher) FetchPosts(ctx context.Context, address string, maxAttempts int) ([]model.Post, error) {
	return client.Fetch[[]model.Post](ctx, f.Client, address, maxAttempts)
}
