package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/store"
	mocks "github.com/chrisstore/store/pkg/domain/store/db/mock"
	"github.com/chrisstore/store/pkg/utils/try"
)

func TestWrap(t *testing.T) {
	ctx := context.Background()
	dbmock := mocks.NewStoreDatabase()
	dbmock.Plugin_.Impl.Get = func(ctx context.Context, ids []int) (map[int]*domain.Plugin, error) {
		return map[int]*domain.Plugin{1: {Id: 1}}, nil
	}
	dbmock.Pipeline_.Impl.Get = func(ctx context.Context, id int) (*domain.Pipeline, error) {
		return &domain.Pipeline{Id: id, Owner: "alice"}, nil
	}
	dbmock.Schema_.Impl.Version = func(ctx context.Context) (int, error) { return 1, nil }

	testee := store.Wrap(dbmock)

	if p := try.To(testee.Plugin().Get(ctx, 1)).OrFatal(t); p.Id != 1 {
		t.Errorf("plugin: %+v", p)
	}
	if p := try.To(testee.Pipeline().Get(ctx, "alice", 2)).OrFatal(t); p.Id != 2 {
		t.Errorf("pipeline: %+v", p)
	}
	if v := try.To(testee.Schema().Version(ctx)).OrFatal(t); v != 1 {
		t.Errorf("schema version: %d", v)
	}

	if dbmock.Plugin_.Calls.Get.Times() != 1 || dbmock.Pipeline_.Calls.Get.Times() != 1 {
		t.Error("services are not built on the database")
	}

	if err := testee.Close(); err != nil {
		t.Fatal(err)
	}
	if !dbmock.Closed {
		t.Error("database is not closed")
	}
}

func TestWrap_WithAdmin(t *testing.T) {
	ctx := context.Background()
	dbmock := mocks.NewStoreDatabase()
	dbmock.Pipeline_.Impl.Get = func(ctx context.Context, id int) (*domain.Pipeline, error) {
		return &domain.Pipeline{Id: id, Owner: "alice", Locked: true}, nil
	}

	t.Run("admin can see locked pipeline of others", func(t *testing.T) {
		testee := store.Wrap(dbmock, store.WithAdmin("chris"))
		if p := try.To(testee.Pipeline().Get(ctx, "chris", 2)).OrFatal(t); p.Id != 2 {
			t.Errorf("pipeline: %+v", p)
		}
	})

	t.Run("without admin, nobody but the owner can see locked pipeline", func(t *testing.T) {
		testee := store.Wrap(dbmock, store.WithAdmin(""))
		if _, err := testee.Pipeline().Get(ctx, "chris", 2); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
