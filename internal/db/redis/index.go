package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/croptalk/internal/db"
)

// CreateIndex runs FT.CREATE for def over hashes.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return fmt.Errorf("index %s: %w", def.Name, err)
	}
	err = s.client.Do(ctx, s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case serverError(err, "index already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// DropIndex removes the index, keeping the hashes it covered.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	err := s.client.Do(ctx, s.client.B().Arbitrary("FT.DROPINDEX").Args(name).Build()).Error()
	switch {
	case err == nil:
		return nil
	case unknownIndex(err):
		return db.ErrIndexNotFound
	default:
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
}

// IndexExists asks FT.INFO about the index.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.client.Do(ctx, s.client.B().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case unknownIndex(err):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// createArgs renders:
//
//	<name> ON HASH PREFIX 1 <prefix> SCHEMA
//	  <tag> TAG [CASESENSITIVE] ...
//	  <vector> VECTOR HNSW <n> TYPE FLOAT32 DIM <d> DISTANCE_METRIC <m> [M <m>] [EF_CONSTRUCTION <ef>]
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH", "PREFIX", "1", def.Prefix, "SCHEMA"}
	for _, t := range def.Tags {
		args = append(args, t.Name, "TAG")
		if t.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}

	v := def.Vector
	distance := v.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(v.Dim), "DISTANCE_METRIC", string(distance)}
	if v.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(v.M))
	}
	if v.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruct))
	}
	args = append(args, v.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(args, attrs...), nil
}
