package dbclient

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
)

// mongoConnector implements Connector for MongoDB.
type mongoConnector struct {
	client *mongo.Client
	dbName string
}

// buildMongoURI returns the connection URI and database name for src.
func buildMongoURI(src domain.DataSource, password string) (string, string) {
	var uri string

	// A full connection string (Atlas mongodb+srv:// or mongodb://) is used
	// as is, with the password placeholder filled in.
	if strings.HasPrefix(src.Host, "mongodb+srv://") || strings.HasPrefix(src.Host, "mongodb://") {
		uri = src.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
	} else {
		port := src.Port
		if port == 0 {
			port = 27017
		}
		if src.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", src.Username, password, src.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", src.Host, port)
		}
		if len(src.Extra) > 0 {
			params := make([]string, 0, len(src.Extra))
			for _, k := range slices.Sorted(maps.Keys(src.Extra)) {
				params = append(params, k+"="+src.Extra[k])
			}
			uri += "/?" + strings.Join(params, "&")
		}
	}

	dbName := src.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	return uri, dbName
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		rest = strings.TrimPrefix(rest, prefix)
	}
	if at := strings.Index(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return "test"
	}
	path := rest[slash+1:]
	if q := strings.Index(path, "?"); q != -1 {
		path = path[:q]
	}
	if path == "" {
		return "test"
	}
	return path
}

func newMongoConnector(src domain.DataSource, password string) (*mongoConnector, error) {
	uri, dbName := buildMongoURI(src, password)

	logURI := uri
	if password != "" {
		logURI = strings.ReplaceAll(logURI, password, "***")
	}
	log.Info(log.CatDB, "connecting to mongo", "uri", logURI, "database", dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoConnector{client: client, dbName: dbName}, nil
}

func (m *mongoConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// mongoFilter turns equality conditions into a filter, converting _id hex
// strings into ObjectIDs.
func mongoFilter(where map[string]any) bson.M {
	filter := bson.M{}
	for k, v := range where {
		if s, ok := v.(string); ok && k == "_id" {
			if oid, err := bson.ObjectIDFromHex(s); err == nil {
				filter[k] = oid
				continue
			}
		}
		filter[k] = v
	}
	return filter
}

func mongoSort(sorts []string) bson.D {
	d := bson.D{}
	for _, s := range sorts {
		dir := 1
		if strings.HasPrefix(s, "-") {
			dir = -1
		}
		d = append(d, bson.E{Key: strings.TrimPrefix(s, "-"), Value: dir})
	}
	return d
}

func (m *mongoConnector) FindOne(ctx context.Context, q Query) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := m.client.Database(m.dbName).Collection(q.Table)
	opts := options.FindOne()
	if len(q.Sorts) > 0 {
		opts.SetSort(mongoSort(q.Sorts))
	}

	var doc bson.M
	err := coll.FindOne(ctx, mongoFilter(q.Where), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("findOne: %w", err)
	}
	return toRecord(doc), nil
}

func (m *mongoConnector) FindMany(ctx context.Context, q Query) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := m.client.Database(m.dbName).Collection(q.Table)
	opts := options.Find()
	if len(q.Sorts) > 0 {
		opts.SetSort(mongoSort(q.Sorts))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}

	cursor, err := coll.Find(ctx, mongoFilter(q.Where), opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cursor.Close(ctx)

	records := []Record{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		records = append(records, toRecord(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}

// toRecord flattens driver types into JSON-friendly values.
func toRecord(doc bson.M) Record {
	rec := make(Record, len(doc))
	for k, v := range doc {
		rec[k] = fromBSON(v)
	}
	return rec
}

func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case bson.M:
		return toRecord(t)
	case bson.D:
		m := make(Record, len(t))
		for _, e := range t {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	default:
		return t
	}
}

func (m *mongoConnector) Introspect(ctx context.Context) (*SchemaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db := m.client.Database(m.dbName)
	collections, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	slices.Sort(collections)

	schema := &SchemaInfo{}
	for _, name := range collections {
		// Sample one document to extract field names
		var doc bson.M
		if err := db.Collection(name).FindOne(ctx, bson.M{}).Decode(&doc); err != nil {
			schema.Tables = append(schema.Tables, TableInfo{Name: name})
			continue
		}
		cols := make([]ColumnInfo, 0, len(doc))
		for _, k := range slices.Sorted(maps.Keys(doc)) {
			cols = append(cols, ColumnInfo{Name: k, Type: fmt.Sprintf("%T", doc[k])})
		}
		schema.Tables = append(schema.Tables, TableInfo{Name: name, Columns: cols})
	}
	return schema, nil
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
