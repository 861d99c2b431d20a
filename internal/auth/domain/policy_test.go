package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		role     Role
		op       Operation
		expected bool
	}{
		{RoleGuest, OperationReadShared, true},
		{RoleGuest, OperationReadOwn, false},
		{RoleGuest, OperationUpload, false},
		{RoleGuest, OperationShare, false},
		{RoleGuest, OperationDelete, false},
		{RoleGuest, OperationManageUsers, false},
		{RoleRegular, OperationReadShared, true},
		{RoleRegular, OperationReadOwn, true},
		{RoleRegular, OperationUpload, true},
		{RoleRegular, OperationShare, true},
		{RoleRegular, OperationDelete, true},
		{RoleRegular, OperationManageUsers, false},
		{RoleAdmin, OperationUpload, true},
		{RoleAdmin, OperationManageUsers, true},
		{Role("root"), OperationReadShared, false},
		{RoleAdmin, Operation("format_disk"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAllowed(tt.role, tt.op))
		})
	}
}

func TestCanChangeRole(t *testing.T) {
	assert.True(t, CanChangeRole(RoleGuest, RoleRegular))
	assert.True(t, CanChangeRole(RoleGuest, RoleAdmin))
	assert.True(t, CanChangeRole(RoleRegular, RoleAdmin))
	assert.False(t, CanChangeRole(RoleRegular, RoleGuest))
	assert.False(t, CanChangeRole(RoleAdmin, RoleRegular))
	assert.False(t, CanChangeRole(RoleGuest, RoleGuest))
	assert.False(t, CanChangeRole(RoleGuest, Role("owner")))
}
