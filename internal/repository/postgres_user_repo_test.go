package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todolist/internal/model"
)

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestPostgresUserRepo_CreateAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresUserRepo(db)
	ctx := context.Background()

	created := seedPasswordUser(t, repo, "ana@x.com")

	byID, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if byID == nil || byID.Name != "Ana" {
		t.Fatalf("FindByID = %+v, want user Ana", byID)
	}
	if byID.FederatedID != nil {
		t.Errorf("FederatedID = %v, want nil", *byID.FederatedID)
	}
	if !byID.HasPassword() {
		t.Error("expected password account")
	}

	byEmail, err := repo.FindByEmail(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("FindByEmail = %+v, want id %s", byEmail, created.ID)
	}
}

func TestPostgresUserRepo_FindMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresUserRepo(db)
	ctx := context.Background()

	u, err := repo.FindByEmail(ctx, "nobody@x.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if u != nil {
		t.Errorf("FindByEmail = %+v, want nil", u)
	}

	u, err = repo.FindByFederatedID(ctx, "google-404")
	if err != nil {
		t.Fatalf("FindByFederatedID returned error: %v", err)
	}
	if u != nil {
		t.Errorf("FindByFederatedID = %+v, want nil", u)
	}
}

func TestPostgresUserRepo_Create_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresUserRepo(db)

	seedPasswordUser(t, repo, "ana@x.com")

	now := time.Now()
	dup := &model.User{
		ID:           uuid.New().String(),
		Name:         "Otra Ana",
		Email:        strPtr("ana@x.com"),
		PasswordHash: strPtr("$2a$10$other"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, model.ErrDuplicateIdentity) {
		t.Fatalf("Create error = %v, want ErrDuplicateIdentity", err)
	}
}

func TestPostgresUserRepo_FederatedUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresUserRepo(db)
	ctx := context.Background()

	now := time.Now()
	fed := &model.User{
		ID:          uuid.New().String(),
		Name:        "Ana G",
		FederatedID: strPtr("google-123"),
		Verified:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, fed); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := repo.FindByFederatedID(ctx, "google-123")
	if err != nil {
		t.Fatalf("FindByFederatedID returned error: %v", err)
	}
	if got == nil || got.ID != fed.ID {
		t.Fatalf("FindByFederatedID = %+v, want id %s", got, fed.ID)
	}
	if got.Email != nil || got.HasPassword() {
		t.Error("federated user should have neither email nor password")
	}
	if !got.Verified {
		t.Error("federated user should be verified")
	}

	again := *fed
	again.ID = uuid.New().String()
	if err := repo.Create(ctx, &again); !errors.Is(err, model.ErrDuplicateIdentity) {
		t.Fatalf("duplicate federated create error = %v, want ErrDuplicateIdentity", err)
	}
}
