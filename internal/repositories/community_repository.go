package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"prico-realtime/internal/models"
)

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrSlugTaken         = errors.New("community slug already taken")
)

// CommunityRepository abstracts community and channel persistence.
type CommunityRepository interface {
	CreateCommunity(ctx context.Context, name, slug, description, ownerID string) (models.Community, error)
	GetCommunity(ctx context.Context, communityID int) (models.Community, error)
	ListCommunitiesForUser(ctx context.Context, userID string) ([]models.Community, error)
	AddMember(ctx context.Context, communityID int, userID, role string) error
	RemoveMember(ctx context.Context, communityID int, userID string) error
	IsMember(ctx context.Context, communityID int, userID string) (bool, error)
	ListMembers(ctx context.Context, communityID int) ([]models.Membership, error)
	CreateChannel(ctx context.Context, communityID int, name, kind string) (models.Channel, error)
	GetChannel(ctx context.Context, channelID int) (models.Channel, error)
	ListChannels(ctx context.Context, communityID int) ([]models.Channel, error)
}

// CommunityRepo is a sqlx implementation of CommunityRepository.
type CommunityRepo struct {
	db *sqlx.DB
}

// NewCommunityRepo constructs a CommunityRepo.
func NewCommunityRepo(db *sqlx.DB) *CommunityRepo {
	return &CommunityRepo{db: db}
}

// CreateCommunity inserts a community with its owner as the first member
// and a default general channel.
func (r *CommunityRepo) CreateCommunity(ctx context.Context, name, slug, description, ownerID string) (models.Community, error) {
	var community models.Community
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO communities (name, slug, description, owner_id) VALUES ($1, $2, $3, $4)
         RETURNING id, name, slug, description, owner_id, created_at`,
		name, slug, description, ownerID).StructScan(&community)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Community{}, ErrSlugTaken
		}
		return models.Community{}, err
	}

	if err := r.AddMember(ctx, community.ID, ownerID, "owner"); err != nil {
		return models.Community{}, err
	}
	if _, err := r.CreateChannel(ctx, community.ID, "general", "text"); err != nil {
		return models.Community{}, err
	}
	return community, nil
}

// GetCommunity fetches a community by id.
func (r *CommunityRepo) GetCommunity(ctx context.Context, communityID int) (models.Community, error) {
	var community models.Community
	err := r.db.GetContext(ctx, &community,
		`SELECT id, name, slug, description, owner_id, created_at FROM communities WHERE id=$1`, communityID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Community{}, ErrCommunityNotFound
	}
	return community, err
}

// ListCommunitiesForUser returns communities the user belongs to.
func (r *CommunityRepo) ListCommunitiesForUser(ctx context.Context, userID string) ([]models.Community, error) {
	var communities []models.Community
	err := r.db.SelectContext(ctx, &communities,
		`SELECT c.id, c.name, c.slug, c.description, c.owner_id, c.created_at FROM communities c
         JOIN community_members cm ON cm.community_id = c.id
         WHERE cm.user_id=$1 ORDER BY c.created_at DESC`, userID)
	return communities, err
}

// AddMember adds a user to a community. Idempotent.
func (r *CommunityRepo) AddMember(ctx context.Context, communityID int, userID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO community_members (community_id, user_id, role) VALUES ($1, $2, $3)
         ON CONFLICT (community_id, user_id) DO NOTHING`, communityID, userID, role)
	return err
}

// RemoveMember removes a user from a community. No error if absent.
func (r *CommunityRepo) RemoveMember(ctx context.Context, communityID int, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM community_members WHERE community_id=$1 AND user_id=$2`, communityID, userID)
	return err
}

// IsMember checks whether a user belongs to the community.
func (r *CommunityRepo) IsMember(ctx context.Context, communityID int, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM community_members WHERE community_id=$1 AND user_id=$2)`,
		communityID, userID)
	return exists, err
}

// ListMembers returns the community's membership rows.
func (r *CommunityRepo) ListMembers(ctx context.Context, communityID int) ([]models.Membership, error) {
	var members []models.Membership
	err := r.db.SelectContext(ctx, &members,
		`SELECT community_id, user_id, role, joined_at FROM community_members
         WHERE community_id=$1 ORDER BY joined_at`, communityID)
	return members, err
}

// CreateChannel adds a channel to a community.
func (r *CommunityRepo) CreateChannel(ctx context.Context, communityID int, name, kind string) (models.Channel, error) {
	var channel models.Channel
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO channels (community_id, name, kind) VALUES ($1, $2, $3)
         RETURNING id, community_id, name, kind, created_at`,
		communityID, name, kind).StructScan(&channel)
	return channel, err
}

// GetChannel fetches a channel by id.
func (r *CommunityRepo) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	var channel models.Channel
	err := r.db.GetContext(ctx, &channel,
		`SELECT id, community_id, name, kind, created_at FROM channels WHERE id=$1`, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Channel{}, ErrChannelNotFound
	}
	return channel, err
}

// ListChannels returns a community's channels.
func (r *CommunityRepo) ListChannels(ctx context.Context, communityID int) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.SelectContext(ctx, &channels,
		`SELECT id, community_id, name, kind, created_at FROM channels
         WHERE community_id=$1 ORDER BY id`, communityID)
	return channels, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
