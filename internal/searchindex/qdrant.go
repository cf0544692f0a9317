package searchindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"lessonarchiver/internal/contextutil"
)

const (
	textVector   = "text"
	ownerField   = "owner_id"
	entityField  = "entity_id"
	defaultGRPC  = 6334
	defaultLimit = 20
)

// qdrantAPI is the subset of *qdrant.Client the index uses.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

// QdrantIndex implements Index using Qdrant sparse vectors. Each Kind lives in its own
// collection; owner_id is a tenant payload index so per-owner filters stay cheap.
type QdrantIndex struct {
	client qdrantAPI
	prefix string
}

// NewQdrantIndex creates a new Qdrant index client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantIndex(urlStr, apiKey, prefix string) (*QdrantIndex, error) {
	host, port, useTLS, err := grpcTarget(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client: client,
		prefix: prefix,
	}, nil
}

// grpcTarget derives the gRPC host and port from the Qdrant HTTP URL.
func grpcTarget(urlStr string) (string, int, bool, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := defaultGRPC
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// Close releases the underlying gRPC connections.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}

// Collection returns the collection name for kind.
func (s *QdrantIndex) Collection(kind Kind) string {
	if s.prefix == "" {
		return string(kind) + "s"
	}
	return s.prefix + "_" + string(kind) + "s"
}

// EnsureCollections creates each missing collection with a sparse text vector scored by
// IDF and a tenant keyword index on the owner.
func (s *QdrantIndex) EnsureCollections(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	for _, kind := range Kinds {
		collection := s.Collection(kind)

		exists, err := s.client.CollectionExists(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to check collection existence: %w", err)
		}
		if exists {
			logger.DebugContext(ctx, "collection exists", "collection", collection)
			continue
		}

		logger.InfoContext(ctx, "creating collection", "collection", collection)
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			SparseVectorsConfig: qdrant.NewSparseVectorsConfig(map[string]*qdrant.SparseVectorParams{
				textVector: {Modifier: qdrant.Modifier_Idf.Enum()},
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}

		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      ownerField,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			FieldIndexParams: qdrant.NewPayloadIndexParamsKeyword(&qdrant.KeywordIndexParams{
				IsTenant: qdrant.PtrOf(true),
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create owner index on %s: %w", collection, err)
		}
		logger.InfoContext(ctx, "collection created", "collection", collection)
	}
	return nil
}

// Upsert writes doc as a single point keyed by the document id.
func (s *QdrantIndex) Upsert(ctx context.Context, doc Document) error {
	logger := contextutil.LoggerFromContext(ctx)
	collection := s.Collection(doc.Kind)

	indices, values := SparseVector(doc.Fields)
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id: qdrant.NewID(doc.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					textVector: qdrant.NewVectorSparse(indices, values),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					ownerField:  doc.OwnerID,
					entityField: doc.ID,
				}),
			},
		},
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert document", "collection", collection, "id", doc.ID, "error", err)
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	logger.DebugContext(ctx, "upserted document", "collection", collection, "id", doc.ID, "terms", len(indices))
	return nil
}

// Delete removes the document only if it belongs to ownerID.
func (s *QdrantIndex) Delete(ctx context.Context, kind Kind, id, ownerID string) error {
	logger := contextutil.LoggerFromContext(ctx)
	collection := s.Collection(kind)

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewHasID(qdrant.NewID(id)),
				qdrant.NewMatchKeyword(ownerField, ownerID),
			},
		}),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete document", "collection", collection, "id", id, "error", err)
		return fmt.Errorf("failed to delete document: %w", err)
	}

	logger.DebugContext(ctx, "deleted document", "collection", collection, "id", id)
	return nil
}

// Search runs a sparse query restricted to ownerID. A query with no searchable
// tokens returns no hits.
func (s *QdrantIndex) Search(ctx context.Context, kind Kind, ownerID, query string, limit int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)
	collection := s.Collection(kind)

	indices, values := QueryVector(query)
	if len(indices) == 0 {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuerySparse(indices, values),
		Using:          qdrant.PtrOf(textVector),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchKeyword(ownerField, ownerID)},
		},
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(false),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search documents", "collection", collection, "error", err)
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	hits := make([]Hit, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		if point.GetId() == nil {
			continue
		}
		hits = append(hits, Hit{ID: point.GetId().GetUuid(), Score: point.GetScore()})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "hits", len(hits))
	return hits, nil
}

// Ping checks the Qdrant server is reachable.
func (s *QdrantIndex) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}
