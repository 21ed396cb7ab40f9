// 策略参数检查点存取
// 参数内容对本包不透明：只负责按版本标签保存/加载字节块与声明的参数形状，
// 后端支持本地文件与MongoDB（与输入数据的db/col配置形式保持一致）
package checkpoint

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/tsinghua-fib-lab/signalctl/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Params 序列化后的策略参数
type Params struct {
	Tag   string // 版本标签
	Shape []int  // 声明的参数形状（各层维度）
	Blob  []byte // 不透明的参数字节块
}

// Store 检查点后端
type Store interface {
	Save(p Params) error
	Load(tag string) (Params, error)
}

// New 根据配置选择后端：File非空用文件，否则用MongoDB
func New(c config.Checkpoint) (Store, error) {
	if c.File != "" {
		return &fileStore{path: c.File}, nil
	}
	if c.URI != "" {
		return newMongoStore(c)
	}
	return nil, fmt.Errorf("checkpoint: neither file nor mongodb uri configured")
}

// fileStore 单文件后端，gob编码
type fileStore struct {
	path string
}

func (s *fileStore) Save(p Params) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("checkpoint: create %s: %w", s.path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	return nil
}

func (s *fileStore) Load(tag string) (Params, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Params{}, fmt.Errorf("checkpoint: open %s: %w", s.path, err)
	}
	defer f.Close()
	var p Params
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return Params{}, fmt.Errorf("checkpoint: decode: %w", err)
	}
	if tag != "" && p.Tag != tag {
		return Params{}, fmt.Errorf("checkpoint: tag mismatch, want %q got %q", tag, p.Tag)
	}
	return p, nil
}

// mongoStore MongoDB后端，按tag作为文档主键upsert
type mongoStore struct {
	coll *mongo.Collection
}

func newMongoStore(c config.Checkpoint) (*mongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: mongodb connect: %w", err)
	}
	return &mongoStore{coll: client.Database(c.DB).Collection(c.Col)}, nil
}

type mongoDoc struct {
	Tag   string `bson:"_id"`
	Shape []int  `bson:"shape"`
	Blob  []byte `bson:"blob"`
}

func (s *mongoStore) Save(p Params) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	doc := mongoDoc{Tag: p.Tag, Shape: p.Shape, Blob: p.Blob}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.Tag}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("checkpoint: mongodb save: %w", err)
	}
	return nil
}

func (s *mongoStore) Load(tag string) (Params, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var doc mongoDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": tag}).Decode(&doc); err != nil {
		return Params{}, fmt.Errorf("checkpoint: mongodb load %q: %w", tag, err)
	}
	return Params{Tag: doc.Tag, Shape: doc.Shape, Blob: doc.Blob}, nil
}
