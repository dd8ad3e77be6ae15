package services

import (
	"testing"

	"tally/internal/models"
	"tally/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	user := testutil.CreateTestUser(t, db)
	group := testutil.CreateTestGroup(t, db, user)

	svc.Log(user.ID, "DELETE_GROUP", "group", group.ID, "127.0.0.1", map[string]interface{}{"name": group.Name})
	svc.Log(user.ID, "LOGIN", "user", user.ID, "127.0.0.1", nil)
	svc.Log(user.ID, "DELETE_BUDGET", "budget", "", "127.0.0.1", map[string]interface{}{"category": "Food"})

	var entries []models.AuditLog
	testutil.AssertNoError(t, db.Order("id ASC").Find(&entries).Error)
	if len(entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
	if entries[0].Action != "DELETE_GROUP" || entries[0].ResourceID == nil || *entries[0].ResourceID != group.ID {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[0].Changes != `{"name":"`+group.Name+`"}` {
		t.Errorf("unexpected changes %q", entries[0].Changes)
	}
	if entries[1].Changes != "" {
		t.Errorf("expected no changes, got %q", entries[1].Changes)
	}
	if entries[2].ResourceID != nil {
		t.Errorf("expected no resource id, got %q", *entries[2].ResourceID)
	}
}
