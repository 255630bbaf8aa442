// Package todo はTodoのCRUD操作とそのHTTPハンドラーを提供します。
package todo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Todo はAPIが返すTodoの公開表現です。
type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Body は作成リクエストのボディです。
type Body struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Patch は部分更新のボディです。指定されたフィールドだけを上書きします。
type Patch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// fields は指定されたフィールドだけを $set 用のドキュメントに変換します。
func (p Patch) fields() bson.M {
	fields := bson.M{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	return fields
}

// todoDoc はMongoDBに保存するTodoドキュメントです。
type todoDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
}

func todoSerializer(doc *todoDoc) *Todo {
	return &Todo{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
	}
}
