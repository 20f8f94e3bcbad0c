package memory

import (
	"context"
	"errors"
	"testing"

	"gocatalog_api/internal/catalog/business/models"
)

func TestUpsertProductKeepsLocalID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &models.Product{LocalID: "l1", ConnectionID: "c", RemoteID: "r", SKU: "a"}
	if err := s.UpsertProduct(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &models.Product{LocalID: "l2", ConnectionID: "c", RemoteID: "r", SKU: "b"}
	if err := s.UpsertProduct(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.LocalID != "l1" {
		t.Fatalf("local id = %q, want l1", second.LocalID)
	}

	all, _ := s.ListProducts(ctx, "c")
	if len(all) != 1 || all[0].SKU != "b" {
		t.Fatalf("products = %+v", all)
	}
}

func TestSelfParentRejected(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	id := "l1"
	err := s.UpsertProduct(ctx, &models.Product{LocalID: id, ConnectionID: "c", RemoteID: "r", ParentLocalID: &id})
	var se *models.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StorageError", err)
	}
}

func TestUnresolvedParents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	parentRemote := "P1"
	_ = s.UpsertProduct(ctx, &models.Product{LocalID: "child", ConnectionID: "c", RemoteID: "C1", ParentRemoteID: &parentRemote})
	_ = s.UpsertProduct(ctx, &models.Product{LocalID: "other", ConnectionID: "c", RemoteID: "C2"})

	got, _ := s.ListUnresolvedParents(ctx, "c")
	if len(got) != 1 || got[0].LocalID != "child" {
		t.Fatalf("candidates = %+v", got)
	}

	parent := "parent"
	_ = s.UpsertProduct(ctx, &models.Product{LocalID: parent, ConnectionID: "c", RemoteID: "P1"})
	if err := s.SetParent(ctx, "child", &parent); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.ListUnresolvedParents(ctx, "c"); len(got) != 0 {
		t.Fatalf("candidates after backfill = %+v", got)
	}
}

func TestRelationsSoftDeleteAndRevive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a := &models.CategoryRelation{RelationKey: "k1", ProductLocalID: "p", CategoryLocalID: "ca"}
	b := &models.CategoryRelation{RelationKey: "k2", ProductLocalID: "p", CategoryLocalID: "cb"}
	_ = s.UpsertCategoryRelation(ctx, a)
	_ = s.UpsertCategoryRelation(ctx, b)

	if err := s.SoftDeleteRelationsExcept(ctx, "p", []string{"k1"}); err != nil {
		t.Fatal(err)
	}
	rels, _ := s.ListRelations(ctx, "p")
	if rels[0].DeletedAt != nil || rels[1].DeletedAt == nil {
		t.Fatalf("relations = %+v", rels)
	}

	revived := &models.CategoryRelation{RelationKey: "other", ProductLocalID: "p", CategoryLocalID: "cb"}
	_ = s.UpsertCategoryRelation(ctx, revived)
	if revived.RelationKey != "k2" {
		t.Fatalf("revived key = %q", revived.RelationKey)
	}
	rels, _ = s.ListRelations(ctx, "p")
	if rels[1].DeletedAt != nil {
		t.Fatal("relation k2 must be live again")
	}
}

func TestReplaceImagesRejectsDuplicatePaths(t *testing.T) {
	s := NewStore()
	err := s.ReplaceImages(context.Background(), "p", []models.Image{{RemotePath: "a"}, {RemotePath: "a"}})
	if err == nil {
		t.Fatal("expected error")
	}
}
