package services

import (
	"context"

	"github.com/hba-portal/membership-backend/idp"
)

// mockMailer is a mock implementation of Mailer for testing
// Ensure it implements the Mailer interface
var _ Mailer = (*mockMailer)(nil)

type mockMailer struct {
	sendFunc func(msg *EmailMessage) error
	sent     []*EmailMessage
}

func (m *mockMailer) Send(msg *EmailMessage) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(msg); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

// mockObjectRemover records object deletions for testing
var _ ObjectRemover = (*mockObjectRemover)(nil)

type mockObjectRemover struct {
	removeFunc func(ctx context.Context, publicURL string) error
	removed    []string
}

func (m *mockObjectRemover) Remove(ctx context.Context, publicURL string) error {
	if m.removeFunc != nil {
		if err := m.removeFunc(ctx, publicURL); err != nil {
			return err
		}
	}
	m.removed = append(m.removed, publicURL)
	return nil
}

// mockIdpProvider is a mock identity provider for testing
var _ idp.IdentityProviderAPI = (*mockIdpProvider)(nil)

type mockIdpProvider struct {
	getUserFunc    func(ctx context.Context, userID string) (*idp.User, error)
	createUserFunc func(ctx context.Context, user *idp.User) (*idp.User, error)
	updateUserFunc func(ctx context.Context, userID string, user *idp.User) (*idp.User, error)
	deleteUserFunc func(ctx context.Context, userID string) error

	deletedUsers []string
	groupAdds    []string
}

func (m *mockIdpProvider) GetUser(ctx context.Context, userID string) (*idp.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return &idp.User{Id: userID}, nil
}

func (m *mockIdpProvider) CreateUser(ctx context.Context, user *idp.User) (*idp.User, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, user)
	}
	return user, nil
}

func (m *mockIdpProvider) UpdateUser(ctx context.Context, userID string, user *idp.User) (*idp.User, error) {
	if m.updateUserFunc != nil {
		return m.updateUserFunc(ctx, userID, user)
	}
	return user, nil
}

func (m *mockIdpProvider) DeleteUser(ctx context.Context, userID string) error {
	if m.deleteUserFunc != nil {
		if err := m.deleteUserFunc(ctx, userID); err != nil {
			return err
		}
	}
	m.deletedUsers = append(m.deletedUsers, userID)
	return nil
}

func (m *mockIdpProvider) AddMemberToGroup(ctx context.Context, groupID string, member *idp.GroupMember) error {
	m.groupAdds = append(m.groupAdds, member.Value)
	return nil
}

func (m *mockIdpProvider) RemoveMemberFromGroup(ctx context.Context, groupID string, memberID string) error {
	return nil
}
