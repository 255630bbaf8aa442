package todo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 一覧取得の上限件数。ページネーションは未実装の既知の制限です。
const listLimit = 100

// ErrTodoNotFound は指定されたTodoが存在しない場合のエラーです。
// 更新で変更が発生しなかった場合も同じエラーになります。
var ErrTodoNotFound = errors.New("todo: not found")

// Service は todo コレクションに対するCRUD操作を提供します。
type Service struct {
	col *mongo.Collection
}

// NewService はTodoサービスを作成します。
func NewService(col *mongo.Collection) *Service {
	return &Service{col: col}
}

// Create はTodoを追加し、追加後のドキュメントを取り直して返します。
func (s *Service) Create(ctx context.Context, body Body) (*Todo, error) {
	res, err := s.col.InsertOne(ctx, todoDoc{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		return nil, err
	}

	var created todoDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		return nil, err
	}

	return todoSerializer(&created), nil
}

// List はTodoの一覧を返します（最大 listLimit 件）。
func (s *Service) List(ctx context.Context) ([]Todo, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetLimit(listLimit))
	if err != nil {
		return nil, err
	}

	var docs []todoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	todos := make([]Todo, 0, len(docs))
	for i := range docs {
		todos = append(todos, *todoSerializer(&docs[i]))
	}
	return todos, nil
}

// Get はIDを指定してTodoを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTodoNotFound
	}

	var doc todoDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}

	return todoSerializer(&doc), nil
}

// Update は指定されたフィールドだけを $set で上書きし、更新後のTodoを返します。
// 存在しないID・空のパッチ・値の変化しない更新は、いずれも ErrTodoNotFound になります
// （「変更なし」と「存在しない」を区別しない元の仕様を維持）。
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTodoNotFound
	}

	fields := patch.fields()
	if len(fields) == 0 {
		return nil, ErrTodoNotFound
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, ErrTodoNotFound
	}

	var updated todoDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
		return nil, err
	}

	return todoSerializer(&updated), nil
}

// Delete はIDを指定してTodoを削除します。
func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTodoNotFound
	}

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTodoNotFound
	}

	return nil
}
