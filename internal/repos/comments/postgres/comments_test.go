package comments

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/guilhalves/spotlight/internal/infra/pgtestutil"
	"github.com/guilhalves/spotlight/internal/repos/comments"
	"github.com/guilhalves/spotlight/internal/repos/posts"
)

func seedPost(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	var id int64

	err := db.QueryRow(`
		INSERT INTO posts (user_id, title, content)
		VALUES (99, 'a post', 'body')
		RETURNING id
	`).Scan(&id)
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}

	return id
}

func TestComments_InsertHighlight(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	postID := seedPost(t, db)

	created, err := repo.Insert(context.Background(), comments.Comment{
		UserID: 5, PostID: postID, Title: "hey", Content: "boosted", Coins: 50,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if created.HighlightUp == nil {
		t.Fatal("paid comment must carry highlight_up")
	}

	// Both timestamps come from the same statement, so the offset is exact.
	want := created.CreatedAt.Add(50 * time.Minute)
	if !created.HighlightUp.Equal(want) {
		t.Fatalf("highlight_up: want %v, got %v", want, created.HighlightUp)
	}
}

func TestComments_InsertFree(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	postID := seedPost(t, db)

	created, err := repo.Insert(context.Background(), comments.Comment{
		UserID: 5, PostID: postID, Content: "plain",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if created.HighlightUp != nil {
		t.Fatalf("free comment must not carry highlight_up, got %v", created.HighlightUp)
	}
}

func TestComments_InsertMissingPost(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	_, err := repo.Insert(context.Background(), comments.Comment{
		UserID: 5, PostID: 424242, Content: "orphan",
	})
	if !errors.Is(err, posts.ErrPostNotFound) {
		t.Fatalf("want ErrPostNotFound, got %v", err)
	}
}

func TestComments_HardDelete(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	postID := seedPost(t, db)
	ctx := context.Background()

	created, err := repo.Insert(ctx, comments.Comment{
		UserID: 5, PostID: postID, Content: "gone soon",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = repo.HardDelete(ctx, created.ID)
	if err != nil {
		t.Fatalf("hard delete: %v", err)
	}

	var count int
	err = db.QueryRow(`SELECT count(*) FROM comments WHERE id = $1`, created.ID).Scan(&count)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("row must be gone entirely")
	}

	err = repo.HardDelete(ctx, created.ID)
	if !errors.Is(err, comments.ErrCommentNotFound) {
		t.Fatalf("second delete: want ErrCommentNotFound, got %v", err)
	}
}

func TestComments_ListByPost_HighlightOrder(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	postID := seedPost(t, db)
	ctx := context.Background()

	free, err := repo.Insert(ctx, comments.Comment{UserID: 1, PostID: postID, Content: "oldest free"})
	if err != nil {
		t.Fatalf("insert free: %v", err)
	}

	small, err := repo.Insert(ctx, comments.Comment{UserID: 2, PostID: postID, Content: "small boost", Coins: 10})
	if err != nil {
		t.Fatalf("insert small: %v", err)
	}

	big, err := repo.Insert(ctx, comments.Comment{UserID: 3, PostID: postID, Content: "big boost", Coins: 90})
	if err != nil {
		t.Fatalf("insert big: %v", err)
	}

	expired, err := repo.Insert(ctx, comments.Comment{UserID: 4, PostID: postID, Content: "expired boost", Coins: 200})
	if err != nil {
		t.Fatalf("insert expired: %v", err)
	}

	newest, err := repo.Insert(ctx, comments.Comment{UserID: 5, PostID: postID, Content: "newest free"})
	if err != nil {
		t.Fatalf("insert newest: %v", err)
	}

	// Age the highest-paid highlight past its window: it must rank like a
	// free comment despite the 200 coins.
	_, err = db.Exec(`
		UPDATE comments
		SET created_at = created_at - interval '2 days',
		    highlight_up = highlight_up - interval '2 days'
		WHERE id = $1
	`, expired.ID)
	if err != nil {
		t.Fatalf("age expired: %v", err)
	}

	list, err := repo.ListByPost(ctx, postID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	wantOrder := []int64{big.ID, small.ID, newest.ID, free.ID, expired.ID}
	if len(list) != len(wantOrder) {
		t.Fatalf("list length: want %d, got %d", len(wantOrder), len(list))
	}

	for i, want := range wantOrder {
		if list[i].ID != want {
			t.Fatalf("position %d: want comment %d, got %d (order %v)", i, want, list[i].ID, list)
		}
	}
}

func TestComments_ListByPost_SkipsDeleted(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	postID := seedPost(t, db)
	ctx := context.Background()

	kept, err := repo.Insert(ctx, comments.Comment{UserID: 1, PostID: postID, Content: "kept"})
	if err != nil {
		t.Fatalf("insert kept: %v", err)
	}

	removed, err := repo.Insert(ctx, comments.Comment{UserID: 2, PostID: postID, Content: "removed"})
	if err != nil {
		t.Fatalf("insert removed: %v", err)
	}

	_, err = db.Exec(`UPDATE comments SET deleted_at = now() WHERE id = $1`, removed.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	list, err := repo.ListByPost(ctx, postID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(list) != 1 || list[0].ID != kept.ID {
		t.Fatalf("want only the kept comment, got %v", list)
	}
}
