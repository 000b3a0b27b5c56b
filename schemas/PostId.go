package schemas

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostId primitive.ObjectID

type CommentId primitive.ObjectID

func NewPostId() PostId {
	return PostId(primitive.NewObjectID())
}

func NewCommentId() CommentId {
	return CommentId(primitive.NewObjectID())
}

// IDFromText parses the 24-char hex form used in URLs.
func IDFromText(s string) (PostId, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return PostId{}, fmt.Errorf("invalid post id %q: %w", s, err)
	}
	return PostId(oid), nil
}

func (id PostId) Hex() string {
	return primitive.ObjectID(id).Hex()
}

func (id PostId) String() string {
	return id.Hex()
}

func (id PostId) IsZero() bool {
	return primitive.ObjectID(id).IsZero()
}

// Stored as a native ObjectID so the documents stay readable from the mongo shell.
func (id PostId) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(primitive.ObjectID(id))
}

func (id *PostId) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var oid primitive.ObjectID
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&oid); err != nil {
		return err
	}
	*id = PostId(oid)
	return nil
}

func (id CommentId) Hex() string {
	return primitive.ObjectID(id).Hex()
}

func (id CommentId) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(primitive.ObjectID(id))
}

func (id *CommentId) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var oid primitive.ObjectID
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&oid); err != nil {
		return err
	}
	*id = CommentId(oid)
	return nil
}
