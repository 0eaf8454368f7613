package activity_test

import (
	"context"
	"testing"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/pkg/database/dbtest"
)

func TestListByUserNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := activity.NewRepository(db)
	userID := dbtest.CreateUser(t, db, "brainqy", 0)

	for _, d := range []string{"first", "second", "third"} {
		if err := repo.Create(ctx, &activity.Activity{UserID: userID, TenantID: "brainqy", Description: d}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, err := repo.ListByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Description != "third" || items[1].Description != "second" {
		t.Fatalf("unexpected feed %+v", items)
	}
}
