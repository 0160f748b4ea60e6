package channel

import (
	"context"
	"testing"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

type fakeMembers struct {
	members map[string]*model.GroupMember
}

func (f *fakeMembers) FindMembership(_ context.Context, groupID int64, userID string) (*model.GroupMember, error) {
	member, ok := f.members[userID]
	if !ok || member.GroupID != groupID {
		return nil, nil
	}
	return member, nil
}

func TestGate_RequireMember(t *testing.T) {
	gate := NewGate(&fakeMembers{members: map[string]*model.GroupMember{
		"user-a": {GroupID: 10, UserID: "user-a", Role: model.RoleMember},
	}})

	member, err := gate.RequireMember(context.Background(), 10, "user-a")
	if err != nil {
		t.Fatalf("RequireMember failed: %v", err)
	}
	if member.UserID != "user-a" {
		t.Errorf("Unexpected member: %+v", member)
	}

	_, err = gate.RequireMember(context.Background(), 10, "user-b")
	if !errors.Is(err, errors.ErrNotGroupMember) {
		t.Errorf("Expected ErrNotGroupMember, got %v", err)
	}
}

func TestGate_RequireRole(t *testing.T) {
	gate := NewGate(&fakeMembers{members: map[string]*model.GroupMember{
		"member": {GroupID: 10, UserID: "member", Role: model.RoleMember},
		"admin":  {GroupID: 10, UserID: "admin", Role: model.RoleAdmin},
		"owner":  {GroupID: 10, UserID: "owner", Role: model.RoleOwner},
	}})

	tests := []struct {
		name    string
		userID  string
		minRole model.GroupRole
		wantErr *errors.AppError
	}{
		{"member as member", "member", model.RoleMember, nil},
		{"member as admin", "member", model.RoleAdmin, errors.ErrInsufficientRole},
		{"admin as admin", "admin", model.RoleAdmin, nil},
		{"admin as owner", "admin", model.RoleOwner, errors.ErrInsufficientRole},
		{"owner as owner", "owner", model.RoleOwner, nil},
		{"outsider", "ghost", model.RoleMember, errors.ErrNotGroupMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.RequireRole(context.Background(), 10, tt.userID, tt.minRole)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
