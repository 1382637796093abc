package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("retrievald.vectorstore.qdrant")

// Payload keys used for chunk fields.
const (
	payloadContent      = "content"
	payloadChunkID      = "chunk_id"
	payloadDocumentID   = "document_id"
	payloadDocumentName = "document_name"
	payloadKeywords     = "important_keywords"
)

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string `koanf:"host"`

	// Port is the Qdrant gRPC port (6334 by default, not the 6333 REST port).
	Port int `koanf:"port"`

	// APIKey authenticates against a secured Qdrant deployment.
	APIKey string `koanf:"api_key"`

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool `koanf:"use_tls"`

	// VectorSize is the embedding dimensionality for created collections.
	// Must match the tenant's embedding model output.
	VectorSize uint64 `koanf:"vector_size"`

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int `koanf:"max_retries"`

	// RetryBackoff is the initial backoff, doubled per attempt.
	RetryBackoff time.Duration `koanf:"retry_backoff"`

	// MaxMessageSize is the gRPC message cap in bytes.
	MaxMessageSize int `koanf:"max_message_size"`
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	return nil
}

// isTransient reports whether a gRPC error is worth retrying.
func isTransient(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// QdrantStore is a Store backed by Qdrant's native gRPC client.
//
// gRPC avoids the REST layer's payload limits and gives binary protobuf
// encoding; one Qdrant collection holds the chunks of one knowledge base.
type QdrantStore struct {
	client *qdrant.Client
	config QdrantConfig
}

// NewQdrantStore connects to Qdrant and verifies the connection with a
// health check before returning.
func NewQdrantStore(config QdrantConfig) (*QdrantStore, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	s := &QdrantStore{client: client, config: config}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return s, nil
}

// Search implements Store.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, limit int, docIDs []string) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "qdrant.search")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("limit", limit),
	)

	var filter *qdrant.Filter
	if len(docIDs) > 0 {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				{
					ConditionOneOf: &qdrant.Condition_Field{
						Field: &qdrant.FieldCondition{
							Key: payloadDocumentID,
							Match: &qdrant.Match{
								MatchValue: &qdrant.Match_Keywords{
									Keywords: &qdrant.RepeatedStrings{Strings: docIDs},
								},
							},
						},
					},
				},
			},
		}
	}

	var points []*qdrant.ScoredPoint
	err := s.retry(ctx, func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
			Filter:         filter,
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status.Code(err) == grpccodes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
		}
		return nil, fmt.Errorf("searching collection %s: %w", collection, err)
	}

	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		hit := Hit{Score: p.Score}
		hit.ID = pointIDString(p.Id)
		if p.Payload != nil {
			hit.Content = payloadString(p.Payload, payloadContent)
			hit.DocumentID = payloadString(p.Payload, payloadDocumentID)
			hit.DocumentName = payloadString(p.Payload, payloadDocumentName)
			if id := payloadString(p.Payload, payloadChunkID); id != "" {
				hit.ID = id
			}
			if kw := payloadString(p.Payload, payloadKeywords); kw != "" {
				hit.ImportantKeywords = strings.Split(kw, ",")
			}
		}
		if v := p.Vectors.GetVector(); v != nil {
			hit.Vector = v.Data
		}
		hits = append(hits, hit)
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}

// Upsert implements Store.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, chunks []Chunk) error {
	ctx, span := tracer.Start(ctx, "qdrant.upsert")
	defer span.End()

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", collection, err)
	}
	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.config.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", collection, err)
		}
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		payload := map[string]*qdrant.Value{
			payloadContent:      {Kind: &qdrant.Value_StringValue{StringValue: c.Content}},
			payloadChunkID:      {Kind: &qdrant.Value_StringValue{StringValue: c.ID}},
			payloadDocumentID:   {Kind: &qdrant.Value_StringValue{StringValue: c.DocumentID}},
			payloadDocumentName: {Kind: &qdrant.Value_StringValue{StringValue: c.DocumentName}},
		}
		if len(c.ImportantKeywords) > 0 {
			payload[payloadKeywords] = &qdrant.Value{
				Kind: &qdrant.Value_StringValue{StringValue: strings.Join(c.ImportantKeywords, ",")},
			}
		}

		id := c.ID
		if _, err := uuid.Parse(id); err != nil {
			// Qdrant point ids must be UUIDs or integers.
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(c.ID)).String()
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: payload,
		}
	}

	return s.retry(ctx, func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	})
}

// Close implements Store.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// retry runs op with exponential backoff on transient gRPC failures.
func (s *QdrantStore) retry(ctx context.Context, op func() error) error {
	backoff := s.config.RetryBackoff
	var err error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if err = op(); err == nil || !isTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return err
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
		return sv.StringValue
	}
	return ""
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}
