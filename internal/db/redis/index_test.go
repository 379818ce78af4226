package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/croptalk/internal/db"
)

func passageIndex() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:   "croptalk:passages:idx",
		Prefix: "croptalk:passage:",
		Tags: []db.TagField{
			{Name: "state", CaseSensitive: true},
			{Name: "doc_category"},
		},
		Vector: db.VectorField{Name: "vector", Dim: 1536, M: 16, EFConstruct: 200},
	}
}

func TestCreateArgs(t *testing.T) {
	args, err := createArgs(passageIndex())
	if err != nil {
		t.Fatalf("createArgs: %v", err)
	}
	want := "croptalk:passages:idx ON HASH PREFIX 1 croptalk:passage: SCHEMA " +
		"state TAG CASESENSITIVE doc_category TAG " +
		"vector VECTOR HNSW 10 TYPE FLOAT32 DIM 1536 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args =\n  %s\nwant\n  %s", got, want)
	}
}

func TestCreateArgs_ServerDefaults(t *testing.T) {
	def := passageIndex()
	def.Vector = db.VectorField{Name: "vector", Dim: 8, Distance: db.DistanceL2}
	args, err := createArgs(def)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(args[len(args)-10:], " "); got != "vector VECTOR HNSW 6 TYPE FLOAT32 DIM 8 DISTANCE_METRIC L2" {
		t.Errorf("vector args = %q", got)
	}
}

func TestCreateIndex(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE" && cmd[1] == "croptalk:passages:idx"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	if err := s.CreateIndex(context.Background(), passageIndex()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
}

func TestCreateIndex_Errors(t *testing.T) {
	s, c := newMockStore(t)

	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.Result(mock.RedisError("Index already exists")))
	if err := s.CreateIndex(context.Background(), passageIndex()); !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("exists: err = %v", err)
	}

	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))
	if err := s.CreateIndex(context.Background(), passageIndex()); !isDBError(err) {
		t.Errorf("transport: err = %v, want db.Error", err)
	}

	bad := passageIndex()
	bad.Vector.Dim = 0
	if err := s.CreateIndex(context.Background(), bad); err == nil || isDBError(err) {
		t.Errorf("invalid definition: err = %v", err)
	}
}

func TestDropIndex(t *testing.T) {
	s, c := newMockStore(t)

	c.EXPECT().Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).Return(mock.Result(mock.RedisString("OK")))
	if err := s.DropIndex(context.Background(), "idx"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).Return(mock.Result(mock.RedisError("Unknown Index name")))
	if err := s.DropIndex(context.Background(), "idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name    string
		result  rueidis.RedisResult
		want    bool
		wantErr bool
	}{
		{"present", mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx"))), true, false},
		{"unknown", mock.Result(mock.RedisError("Unknown index name")), false, false},
		{"no such index", mock.Result(mock.RedisError("idx: no such index")), false, false},
		{"transport", mock.ErrorResult(context.DeadlineExceeded), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "idx")).Return(tt.result)

			got, err := s.IndexExists(context.Background(), "idx")
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("got (%v, %v), want (%v, err=%v)", got, err, tt.want, tt.wantErr)
			}
		})
	}
}
