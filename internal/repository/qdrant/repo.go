package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/candidate"
)

const payloadDocumentID = "document_id"

// pointsClient is the subset of pb.PointsClient used by the repository.
type pointsClient interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsClient is the subset of pb.CollectionsClient used by the repository.
type collectionsClient interface {
	List(
		ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption,
	) (*pb.ListCollectionsResponse, error)
	Create(
		ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption,
	) (*pb.CollectionOperationResponse, error)
}

// Repo is a vector candidate source and vector index backed by a Qdrant collection.
// Each document maps to one point whose payload carries the document id.
type Repo struct {
	conn        *grpc.ClientConn
	points      pointsClient
	collections collectionsClient
	collection  string
	vectorCfg   domain.VectorConfig
}

// Dial connects to Qdrant over gRPC.
func Dial(addr, collection string, vectorCfg domain.VectorConfig) (*Repo, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", addr, err)
	}
	r := NewWithClients(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection, vectorCfg)
	r.conn = conn
	return r, nil
}

// NewWithClients creates a repository over existing gRPC clients.
func NewWithClients(
	points pointsClient, collections collectionsClient,
	collection string, vectorCfg domain.VectorConfig,
) *Repo {
	return &Repo{
		points:      points,
		collections: collections,
		collection:  collection,
		vectorCfg:   vectorCfg,
	}
}

// Close closes the underlying gRPC connection, if any.
func (r *Repo) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// EnsureIndex creates the collection if it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	list, err := r.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == r.collection {
			return nil
		}
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorCfg.Dimensions), //nolint:gosec // validated positive in config
					Distance: distance(r.vectorCfg.DistanceMetric),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}
	return nil
}

func distance(name string) pb.Distance {
	switch strings.ToLower(name) {
	case "l2":
		return pb.Distance_Euclid
	case "ip", "dot":
		return pb.Distance_Dot
	default:
		return pb.Distance_Cosine
	}
}

// FindSimilar searches the collection; Qdrant drops points below minScore.
func (r *Repo) FindSimilar(
	ctx context.Context, vector []float32, limit int, minScore float64,
) ([]candidate.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	threshold := float32(minScore)
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &threshold,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Include{
				Include: &pb.PayloadIncludeSelector{Fields: []string{payloadDocumentID}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.collection, err)
	}

	out := make([]candidate.Candidate, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		docID := p.GetPayload()[payloadDocumentID].GetStringValue()
		if docID == "" {
			continue
		}
		out = append(out, candidate.New(docID, float64(p.GetScore())))
	}
	return out, nil
}

// Upsert writes the document vector under a point id derived from the document id.
func (r *Repo) Upsert(ctx context.Context, docID string, vector []float32) (string, error) {
	if len(vector) != r.vectorCfg.Dimensions {
		return "", fmt.Errorf("%w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(vector), r.vectorCfg.Dimensions)
	}

	pointID := PointID(docID)
	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}},
			},
			Payload: map[string]*pb.Value{
				payloadDocumentID: {Kind: &pb.Value_StringValue{StringValue: docID}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("upsert point %s: %w", pointID, err)
	}
	return pointID, nil
}

// Delete removes a point by vector id.
func (r *Repo) Delete(ctx context.Context, vectorID string) error {
	wait := true
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: vectorID}}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete point %s: %w", vectorID, err)
	}
	return nil
}

// PointID maps a document id to a stable UUIDv5, since Qdrant only accepts UUIDs or integers.
func PointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("semsearch:document:"+docID)).String()
}

// HealthCheck verifies the Qdrant endpoint answers.
func (r *Repo) HealthCheck(ctx context.Context) error {
	if _, err := r.collections.List(ctx, &pb.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant health: %w", err)
	}
	return nil
}
