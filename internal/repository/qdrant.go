package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"rental-assistant/internal/model"
)

// pointsAPI is the subset of the qdrant points service the index uses
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Get(ctx context.Context, in *pb.GetPoints, opts ...grpc.CallOption) (*pb.GetResponse, error)
}

// collectionsAPI is the subset of the qdrant collections service the index uses
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// QdrantIndex is a vector index backed by a qdrant collection. Listing
// metadata is stored as the point payload.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// NewQdrantIndex connects to qdrant at the given gRPC address
func NewQdrantIndex(addr, collection string) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", addr, err)
	}
	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewQdrantIndexWithClients builds an index over existing clients
func NewQdrantIndexWithClients(points pointsAPI, collections collectionsAPI, collection string) *QdrantIndex {
	return &QdrantIndex{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection
func (q *QdrantIndex) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dims int) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", q.collection, err)
	}
	return nil
}

// Query performs a filtered k-NN search
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, topK int, filter model.CompiledFilter) ([]model.SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter:         buildQdrantFilter(filter),
	}

	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	results := make([]model.SearchResult, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		results = append(results, model.SearchResult{
			Score:    float64(p.GetScore()),
			Metadata: payloadToMetadata(p.GetPayload()),
		})
	}
	return results, nil
}

// Upsert stores listings as points keyed by a UUID derived from the listing ID
func (q *QdrantIndex) Upsert(ctx context.Context, listings []model.IndexedListing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	points := make([]*pb.PointStruct, len(listings))
	for i, item := range listings {
		points[i] = &pb.PointStruct{
			Id: pointID(item.Listing.ID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: item.Embedding},
				},
			},
			Payload: metadataToPayload(item.Listing.Metadata()),
		}
	}

	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: upsert %d points: %w", len(listings), err)
	}
	return len(listings), nil
}

// GetListingByID fetches one listing's payload. A missing listing is (nil, nil).
func (q *QdrantIndex) GetListingByID(ctx context.Context, id string) (*model.Listing, error) {
	resp, err := q.points.Get(ctx, &pb.GetPoints{
		CollectionName: q.collection,
		Ids:            []*pb.PointId{pointID(id)},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: get %s: %w", id, err)
	}
	if len(resp.GetResult()) == 0 {
		return nil, nil
	}
	listing := payloadToMetadata(resp.GetResult()[0].GetPayload()).Listing()
	return &listing, nil
}

func pointID(listingID string) *pb.PointId {
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Uuid{
			Uuid: uuid.NewSHA1(uuid.NameSpaceURL, []byte(listingID)).String(),
		},
	}
}

func buildQdrantFilter(filter model.CompiledFilter) *pb.Filter {
	if filter.IsEmpty() {
		return nil
	}
	must := make([]*pb.Condition, 0, filter.Len())
	for _, c := range filter.Conditions() {
		must = append(must, fieldMatch(c.Field, c.Value))
	}
	return &pb.Filter{Must: must}
}

func fieldMatch(key string, value any) *pb.Condition {
	match := &pb.Match{}
	switch v := value.(type) {
	case bool:
		match.MatchValue = &pb.Match_Boolean{Boolean: v}
	case int:
		match.MatchValue = &pb.Match_Integer{Integer: int64(v)}
	case int64:
		match.MatchValue = &pb.Match_Integer{Integer: v}
	case string:
		match.MatchValue = &pb.Match_Keyword{Keyword: v}
	default:
		match.MatchValue = &pb.Match_Keyword{Keyword: fmt.Sprint(v)}
	}
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{Key: key, Match: match},
		},
	}
}

func metadataToPayload(md model.Metadata) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(md))
	for k, val := range md {
		payload[k] = toValue(val)
	}
	return payload
}

func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: ""}}
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func payloadToMetadata(payload map[string]*pb.Value) model.Metadata {
	md := make(model.Metadata, len(payload))
	for k, v := range payload {
		md[k] = fromValue(v)
	}
	return md
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_IntegerValue:
		return float64(kind.IntegerValue)
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			items = append(items, fromValue(item))
		}
		return items
	case *pb.Value_StructValue:
		m := make(map[string]any, len(kind.StructValue.GetFields()))
		for fk, fv := range kind.StructValue.GetFields() {
			m[fk] = fromValue(fv)
		}
		return m
	default:
		return nil
	}
}
