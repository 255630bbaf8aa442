package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// パスワードの最短文字数。
const minPasswordLength = 6

var (
	// ErrEmailTaken は既に登録済みのメールアドレスを示すエラーです。
	ErrEmailTaken = errors.New("auth: email is already taken")
	// ErrPasswordTooShort はパスワードが短すぎる場合のエラーです。
	ErrPasswordTooShort = errors.New("auth: password too short")
	// ErrInvalidCredentials はメールアドレスかパスワードが正しくない場合のエラーです。
	// ユーザー列挙を防ぐため、どちらが誤りかは区別しません。
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
)

// User はAPIが返すユーザーの公開表現です。
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// userDoc はMongoDBに保存するユーザードキュメントです。
type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"` // bcryptハッシュ
}

func userSerializer(doc *userDoc) *User {
	return &User{
		ID:    doc.ID.Hex(),
		Email: doc.Email,
	}
}

// Service は user コレクションに対する登録・ログイン処理を提供します。
type Service struct {
	users  *mongo.Collection
	hasher *Hasher
	codec  *Codec
}

// NewService はアカウントサービスを作成します。
func NewService(users *mongo.Collection, hasher *Hasher, codec *Codec) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		codec:  codec,
	}
}

// Signup は新規ユーザーを登録し、公開表現を返します。
func (s *Service) Signup(ctx context.Context, email, password string) (*User, error) {
	// 既に同じメールアドレスのユーザーがいないか確認する
	// （親切なエラーメッセージのための事前チェック。競合の最終防衛は
	// email のユニークインデックス）
	var existing userDoc
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// パスワードのバリデーション
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	res, err := s.users.InsertOne(ctx, userDoc{
		Email:    email,
		Password: hashed,
	})
	if err != nil {
		// 同時登録との競合はユニークインデックス違反として現れる
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// 追加したユーザーを取り直して正規の形で返す
	var created userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		return nil, err
	}

	return userSerializer(&created), nil
}

// Login は認証に成功した場合、新しいセッショントークンを返します。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	var user userDoc
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(ctx, password, user.Password) {
		return "", ErrInvalidCredentials
	}

	return s.codec.Issue(user.Email)
}
