package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultVectorDimension = 1024

// VectorRepositoryConfig holds configuration for the Qdrant connection.
type VectorRepositoryConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API key (enables TLS automatically)
	UseTLS          bool   // explicitly enable TLS without an API key
	VectorDimension int
}

// apiKeyInterceptor creates a unary interceptor that adds the API key to metadata.
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// VectorRepository stores precomputed meme-text embeddings in Qdrant. The
// seeding CLI fills it; the scoring engine reads meme vectors back by catalog
// ID, and the similar-memes lookup searches it.
type VectorRepository struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
}

// NewVectorRepository creates a new VectorRepository.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API key).
func NewVectorRepository(cfg *VectorRepositoryConfig) (*VectorRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption
	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &VectorRepository{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
	}, nil
}

// Close closes the gRPC connection.
func (r *VectorRepository) Close() error {
	return r.conn.Close()
}

// pointID derives a stable Qdrant point UUID from a catalog meme ID. Catalog
// IDs are short codes, not UUIDs, so they are hashed into the UUID namespace.
func pointID(memeID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(memeID)).String()
}

// EnsureCollection creates the collection if it doesn't exist and verifies
// the vector dimension when it does.
func (r *VectorRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(r.vectorDimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
			}
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}
	config := info.GetConfig()
	if config == nil {
		return 0, false
	}
	params := config.GetParams()
	if params == nil {
		return 0, false
	}
	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}
	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}
	return 0, false
}

// Upsert inserts or updates the embedding of one meme's representative text.
func (r *VectorRepository) Upsert(ctx context.Context, memeID string, vector []float32, text string) error {
	points := []*pb.PointStruct{
		{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(memeID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: map[string]*pb.Value{
				"meme_id": {Kind: &pb.Value_StringValue{StringValue: memeID}},
				"text":    {Kind: &pb.Value_StringValue{StringValue: text}},
			},
		},
	}

	_, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Retrieve returns the stored embedding for a meme, or (nil, nil) when the
// meme has no vector in the index.
func (r *VectorRepository) Retrieve(ctx context.Context, memeID string) ([]float32, error) {
	resp, err := r.pointsClient.Get(ctx, &pb.GetPoints{
		CollectionName: r.collectionName,
		Ids: []*pb.PointId{
			{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(memeID)}},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve point: %w", err)
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}

	vectors := resp.Result[0].GetVectors()
	if vectors == nil {
		return nil, nil
	}
	if v := vectors.GetVector(); v != nil {
		return v.GetData(), nil
	}
	return nil, nil
}

// VectorHit is one similar-meme search result.
type VectorHit struct {
	MemeID string
	Score  float32
}

// Search performs a cosine similarity search over the meme vectors.
func (r *VectorRepository) Search(ctx context.Context, vector []float32, topK int) ([]VectorHit, error) {
	resp, err := r.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]VectorHit, 0, len(resp.Result))
	for _, scored := range resp.Result {
		hit := VectorHit{Score: scored.Score}
		if v, ok := scored.Payload["meme_id"]; ok {
			hit.MemeID = v.GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Delete removes the vector of one meme.
func (r *VectorRepository) Delete(ctx context.Context, memeID string) error {
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(memeID)}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}
