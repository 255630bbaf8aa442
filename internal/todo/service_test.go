package todo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const todoNS = "API_DB.todo"

func todoResponse(oid primitive.ObjectID, title, description string) bson.D {
	return mtest.CreateCursorResponse(1, todoNS, mtest.FirstBatch, bson.D{
		{Key: "_id", Value: oid},
		{Key: "title", Value: title},
		{Key: "description", Value: description},
	})
}

func noTodoResponse() bson.D {
	return mtest.CreateCursorResponse(0, todoNS, mtest.FirstBatch)
}

func TestCreateRefetchesDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			todoResponse(oid, "t", "d"),
		)

		created, err := svc.Create(context.Background(), Body{Title: "t", Description: "d"})
		if err != nil {
			mt.Fatalf("Create returned error: %v", err)
		}
		if created.ID != oid.Hex() || created.Title != "t" || created.Description != "d" {
			mt.Fatalf("unexpected todo: %#v", created)
		}
	})
}

func TestListReturnsBatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, todoNS, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "title", Value: "t1"},
				{Key: "description", Value: "d1"},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "title", Value: "t2"},
				{Key: "description", Value: "d2"},
			},
		))

		todos, err := svc.List(context.Background())
		if err != nil {
			mt.Fatalf("List returned error: %v", err)
		}
		if len(todos) != 2 {
			mt.Fatalf("len(todos) = %d, want 2", len(todos))
		}
		if todos[0].Title != "t1" || todos[1].Title != "t2" {
			mt.Fatalf("unexpected todos: %#v", todos)
		}
	})
}

func TestGetInvalidIDIsNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bad hex id", func(mt *mtest.T) {
		svc := NewService(mt.Coll)

		// ObjectIDとして不正なIDはストレージに問い合わせず not found になる
		if _, err := svc.Get(context.Background(), "not-an-object-id"); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("Get with bad id = %v, want ErrTodoNotFound", err)
		}
		if events := mt.GetAllStartedEvents(); len(events) != 0 {
			mt.Fatalf("unexpected commands issued: %d", len(events))
		}
	})
}

func TestGetMissingDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing document", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		mt.AddMockResponses(noTodoResponse())

		id := primitive.NewObjectID().Hex()
		if _, err := svc.Get(context.Background(), id); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("Get of missing id = %v, want ErrTodoNotFound", err)
		}
	})
}

func TestUpdateEmptyPatchSkipsStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty patch", func(mt *mtest.T) {
		svc := NewService(mt.Coll)

		// 空のパッチはコレクションに触れずに not found 扱いになる
		// （「変更なし」と「存在しない」を区別しない仕様）
		id := primitive.NewObjectID().Hex()
		if _, err := svc.Update(context.Background(), id, Patch{}); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("Update with empty patch = %v, want ErrTodoNotFound", err)
		}
		if events := mt.GetAllStartedEvents(); len(events) != 0 {
			mt.Fatalf("unexpected commands issued: %d", len(events))
		}
	})
}

func TestUpdateNoOpIsNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no-op update", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		// マッチはするが値が変わらない更新
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		title := "same title"
		id := primitive.NewObjectID().Hex()
		if _, err := svc.Update(context.Background(), id, Patch{Title: &title}); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("no-op Update = %v, want ErrTodoNotFound", err)
		}
	})
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unknown id", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		title := "new title"
		id := primitive.NewObjectID().Hex()
		if _, err := svc.Update(context.Background(), id, Patch{Title: &title}); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("Update of unknown id = %v, want ErrTodoNotFound", err)
		}
	})
}

func TestUpdateAppliedRefetches(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("applied update", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 1},
			),
			todoResponse(oid, "new title", "d"),
		)

		title := "new title"
		updated, err := svc.Update(context.Background(), oid.Hex(), Patch{Title: &title})
		if err != nil {
			mt.Fatalf("Update returned error: %v", err)
		}
		if updated.Title != "new title" || updated.Description != "d" {
			mt.Fatalf("unexpected todo: %#v", updated)
		}
	})
}

func TestDeleteInvalidIDIsNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bad hex id", func(mt *mtest.T) {
		svc := NewService(mt.Coll)

		if err := svc.Delete(context.Background(), "not-an-object-id"); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("Delete with bad id = %v, want ErrTodoNotFound", err)
		}
		if events := mt.GetAllStartedEvents(); len(events) != 0 {
			mt.Fatalf("unexpected commands issued: %d", len(events))
		}
	})
}

func TestDeleteMissingDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing document", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		id := primitive.NewObjectID().Hex()
		if err := svc.Delete(context.Background(), id); !errors.Is(err, ErrTodoNotFound) {
			mt.Fatalf("Delete of missing id = %v, want ErrTodoNotFound", err)
		}
	})
}

func TestDeleteRemovesDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("delete", func(mt *mtest.T) {
		svc := NewService(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := svc.Delete(context.Background(), primitive.NewObjectID().Hex()); err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
	})
}
