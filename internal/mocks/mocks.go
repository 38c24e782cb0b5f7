package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prico-realtime/internal/auth"
	"prico-realtime/internal/models"
	"prico-realtime/internal/repositories"
)

type CommunityRepositoryMock struct {
	mock.Mock
}

func (m *CommunityRepositoryMock) CreateCommunity(ctx context.Context, name, slug, description, ownerID string) (models.Community, error) {
	args := m.Called(ctx, name, slug, description, ownerID)
	var community models.Community
	if val := args.Get(0); val != nil {
		community = val.(models.Community)
	}
	return community, args.Error(1)
}

func (m *CommunityRepositoryMock) GetCommunity(ctx context.Context, communityID int) (models.Community, error) {
	args := m.Called(ctx, communityID)
	var community models.Community
	if val := args.Get(0); val != nil {
		community = val.(models.Community)
	}
	return community, args.Error(1)
}

func (m *CommunityRepositoryMock) ListCommunitiesForUser(ctx context.Context, userID string) ([]models.Community, error) {
	args := m.Called(ctx, userID)
	var list []models.Community
	if val := args.Get(0); val != nil {
		list = val.([]models.Community)
	}
	return list, args.Error(1)
}

func (m *CommunityRepositoryMock) AddMember(ctx context.Context, communityID int, userID, role string) error {
	args := m.Called(ctx, communityID, userID, role)
	return args.Error(0)
}

func (m *CommunityRepositoryMock) RemoveMember(ctx context.Context, communityID int, userID string) error {
	args := m.Called(ctx, communityID, userID)
	return args.Error(0)
}

func (m *CommunityRepositoryMock) IsMember(ctx context.Context, communityID int, userID string) (bool, error) {
	args := m.Called(ctx, communityID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *CommunityRepositoryMock) ListMembers(ctx context.Context, communityID int) ([]models.Membership, error) {
	args := m.Called(ctx, communityID)
	var members []models.Membership
	if val := args.Get(0); val != nil {
		members = val.([]models.Membership)
	}
	return members, args.Error(1)
}

func (m *CommunityRepositoryMock) CreateChannel(ctx context.Context, communityID int, name, kind string) (models.Channel, error) {
	args := m.Called(ctx, communityID, name, kind)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *CommunityRepositoryMock) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	args := m.Called(ctx, channelID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *CommunityRepositoryMock) ListChannels(ctx context.Context, communityID int) ([]models.Channel, error) {
	args := m.Called(ctx, communityID)
	var channels []models.Channel
	if val := args.Get(0); val != nil {
		channels = val.([]models.Channel)
	}
	return channels, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, channelID int, senderID, content string, replyToID *int, attachments []string) (models.Message, error) {
	args := m.Called(ctx, channelID, senderID, content, replyToID, attachments)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListChannelMessages(ctx context.Context, channelID, limit, beforeID int) ([]models.Message, error) {
	args := m.Called(ctx, channelID, limit, beforeID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int, senderID, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int, senderID string) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) AddReaction(ctx context.Context, messageID int, userID, emoji string) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Error(1)
}

func (m *MessageRepositoryMock) ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (auth.Identity, error) {
	args := m.Called(ctx, token)
	var identity auth.Identity
	if val := args.Get(0); val != nil {
		identity = val.(auth.Identity)
	}
	return identity, args.Error(1)
}

var _ repositories.CommunityRepository = (*CommunityRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ auth.TokenVerifier = (*VerifierMock)(nil)
