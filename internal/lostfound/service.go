// Package lostfound implements the registry's use cases: accounts, the
// found-item listing, item reporting and the admin-only claimed transition.
// Storage is reached only through the interfaces below.
package lostfound

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lostfound/registry/internal/imaging"
	"github.com/lostfound/registry/internal/model"
)

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string, isStaff bool) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// TokenStore maps users to their API token.
type TokenStore interface {
	GetOrCreate(ctx context.Context, userID int64) (string, error)
	Lookup(ctx context.Context, key string) (*model.User, error)
}

// ItemStore persists found items.
type ItemStore interface {
	Create(ctx context.Context, item *model.Item) error
	Get(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context, limit, offset int) ([]model.Item, error)
	Count(ctx context.Context) (int, error)
	SetClaimed(ctx context.Context, id int64, claimed bool) error
}

// BlobStore holds item photos.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// DefaultPageSize is used when Params.PageSize is not positive.
const DefaultPageSize = 20

// Service implements the registry operations.
type Service struct {
	users        UserStore
	tokens       TokenStore
	items        ItemStore
	blobs        BlobStore
	processImage func(io.Reader) (*imaging.ProcessResult, error)
	now          func() time.Time
	newUUID      func() uuid.UUID
	pageSize     int
	logger       *slog.Logger
}

// Params holds the collaborators of a Service. ProcessImage, Now, NewUUID
// and Logger are optional.
type Params struct {
	Users        UserStore
	Tokens       TokenStore
	Items        ItemStore
	Blobs        BlobStore
	ProcessImage func(io.Reader) (*imaging.ProcessResult, error)
	Now          func() time.Time
	NewUUID      func() uuid.UUID
	PageSize     int
	Logger       *slog.Logger
}

// New creates a Service.
func New(p Params) *Service {
	s := &Service{
		users:        p.Users,
		tokens:       p.Tokens,
		items:        p.Items,
		blobs:        p.Blobs,
		processImage: p.ProcessImage,
		now:          p.Now,
		newUUID:      p.NewUUID,
		pageSize:     p.PageSize,
		logger:       p.Logger,
	}
	if s.processImage == nil {
		s.processImage = imaging.Process
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newUUID == nil {
		s.newUUID = uuid.New
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "lostfound")
	return s
}
