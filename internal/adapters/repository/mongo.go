package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/zanshin/internal/domain/counter"
	"github.com/okian/zanshin/internal/domain/model"
)

// Collection names.
const (
	colMatches  = "matches"
	colBouts    = "bouts"
	colPoints   = "points"
	colCounters = "daily_counters"
)

// MongoStore implements Store against a MongoDB deployment. The daily
// counters rely on $inc upserts, which gives the stream aggregator its
// atomic read-modify-write; overwrites use $set upserts so the batch rebuild
// stays idempotent.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	matches  *mongo.Collection
	bouts    *mongo.Collection
	points   *mongo.Collection
	counters *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to the given URI and binds the service collections.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if uri == "" || dbName == "" {
		return nil, errors.New("mongo uri and database name must not be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}
	db := client.Database(dbName)
	return &MongoStore{
		client:   client,
		db:       db,
		matches:  db.Collection(colMatches),
		bouts:    db.Collection(colBouts),
		points:   db.Collection(colPoints),
		counters: db.Collection(colCounters),
	}, nil
}

// Document shapes. Kept separate from the domain models so bson concerns do
// not leak into the domain layer.

type matchDoc struct {
	ID              string    `bson:"_id"`
	Date            time.Time `bson:"date"`
	OurUniversity   string    `bson:"our_university"`
	TheirUniversity string    `bson:"their_university"`
	Venue           string    `bson:"venue,omitempty"`
	Tournament      string    `bson:"tournament,omitempty"`
	Practice        bool      `bson:"practice"`
}

type boutDoc struct {
	ID            string `bson:"_id"`
	MatchID       string `bson:"match_id"`
	OurPlayerID   string `bson:"our_player_id"`
	TheirPlayerID string `bson:"their_player_id"`
	Position      string `bson:"position,omitempty"`
	OurStance     string `bson:"our_stance,omitempty"`
	TheirStance   string `bson:"their_stance,omitempty"`
	WinnerID      string `bson:"winner_id,omitempty"`
	WinType       string `bson:"win_type,omitempty"`
	Seq           int    `bson:"seq"`
	PointsVersion int64  `bson:"points_version"`
}

type pointDoc struct {
	ID           string    `bson:"_id"`
	BoutID       string    `bson:"bout_id"`
	TimeSec      int       `bson:"t_sec"`
	ScorerID     string    `bson:"scorer_id"`
	OpponentID   string    `bson:"opponent_id"`
	Target       string    `bson:"target,omitempty"`
	Methods      []string  `bson:"methods,omitempty"`
	Judgement    string    `bson:"judgement"`
	Decisive     bool      `bson:"decisive"`
	TechniqueKey string    `bson:"technique_key"`
	RecordedAt   time.Time `bson:"recorded_at"`
	Version      int64     `bson:"version"`
}

type counterDoc struct {
	ID       string `bson:"_id"` // "<player>|<date>|<kind>|<name>"
	PlayerID string `bson:"player_id"`
	Date     string `bson:"date"`
	Kind     string `bson:"kind"`
	Name     string `bson:"name"`
	Count    int64  `bson:"count"`
}

func counterID(k counter.Key) string {
	return strings.Join([]string{k.PlayerID, k.Date, string(k.Kind), k.Name}, "|")
}

func toMatchDoc(m model.Match) matchDoc {
	return matchDoc{
		ID:              m.ID,
		Date:            m.Date.UTC(),
		OurUniversity:   m.OurUniversity,
		TheirUniversity: m.TheirUniversity,
		Venue:           m.Venue,
		Tournament:      m.Tournament,
		Practice:        m.Practice,
	}
}

func (d matchDoc) toModel() model.Match {
	return model.Match{
		ID:              d.ID,
		Date:            d.Date,
		OurUniversity:   d.OurUniversity,
		TheirUniversity: d.TheirUniversity,
		Venue:           d.Venue,
		Tournament:      d.Tournament,
		Practice:        d.Practice,
	}
}

func toBoutDoc(b model.Bout) boutDoc {
	return boutDoc{
		ID:            b.ID,
		MatchID:       b.MatchID,
		OurPlayerID:   b.OurPlayerID,
		TheirPlayerID: b.TheirPlayerID,
		Position:      b.Position,
		OurStance:     b.OurStance,
		TheirStance:   b.TheirStance,
		WinnerID:      b.WinnerID,
		WinType:       string(b.WinType),
		Seq:           b.Seq,
	}
}

func (d boutDoc) toModel() model.Bout {
	return model.Bout{
		ID:            d.ID,
		MatchID:       d.MatchID,
		OurPlayerID:   d.OurPlayerID,
		TheirPlayerID: d.TheirPlayerID,
		Position:      d.Position,
		OurStance:     d.OurStance,
		TheirStance:   d.TheirStance,
		WinnerID:      d.WinnerID,
		WinType:       model.WinType(d.WinType),
		Seq:           d.Seq,
	}
}

func toPointDoc(p model.Point) pointDoc {
	return pointDoc{
		ID:           p.ID,
		BoutID:       p.BoutID,
		TimeSec:      p.TimeSec,
		ScorerID:     p.ScorerID,
		OpponentID:   p.OpponentID,
		Target:       p.Target,
		Methods:      p.Methods,
		Judgement:    string(p.Judgement),
		Decisive:     p.Decisive,
		TechniqueKey: p.TechniqueKey,
		RecordedAt:   p.RecordedAt.UTC(),
		Version:      p.Version,
	}
}

func (d pointDoc) toModel() model.Point {
	return model.Point{
		ID:           d.ID,
		BoutID:       d.BoutID,
		TimeSec:      d.TimeSec,
		ScorerID:     d.ScorerID,
		OpponentID:   d.OpponentID,
		Target:       d.Target,
		Methods:      d.Methods,
		Judgement:    model.Judgement(d.Judgement),
		Decisive:     d.Decisive,
		TechniqueKey: d.TechniqueKey,
		RecordedAt:   d.RecordedAt,
		Version:      d.Version,
	}
}

// CreateMatch persists a match shell and returns its id.
func (s *MongoStore) CreateMatch(ctx context.Context, m model.Match) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, err := s.matches.InsertOne(ctx, toMatchDoc(m)); err != nil {
		return "", fmt.Errorf("insert match failed: %w", err)
	}
	return m.ID, nil
}

// GetMatch returns a match hydrated with its bouts and points.
func (s *MongoStore) GetMatch(ctx context.Context, id string) (model.Match, error) {
	var doc matchDoc
	err := s.matches.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Match{}, ErrNotFound
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("fetch match failed: %w", err)
	}
	m := doc.toModel()
	if err := s.hydrateMatch(ctx, &m); err != nil {
		return model.Match{}, err
	}
	return m, nil
}

// ListMatches pages through all matches, hydrated, ordered by date.
func (s *MongoStore) ListMatches(ctx context.Context, token string, limit int) ([]model.Match, string, error) {
	offset, err := parseToken(token)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return nil, "", ErrInvalidLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := s.matches.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, "", fmt.Errorf("list matches failed: %w", err)
	}
	var docs []matchDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, "", fmt.Errorf("decode matches failed: %w", err)
	}

	page := make([]model.Match, 0, len(docs))
	for _, d := range docs {
		m := d.toModel()
		if err := s.hydrateMatch(ctx, &m); err != nil {
			return nil, "", err
		}
		page = append(page, m)
	}

	next := ""
	if len(docs) == limit {
		next = strconv.Itoa(offset + limit)
	}
	return page, next, nil
}

// DeleteMatch removes a match shell; fails while bouts still reference it.
func (s *MongoStore) DeleteMatch(ctx context.Context, id string) error {
	n, err := s.bouts.CountDocuments(ctx, bson.D{{Key: "match_id", Value: id}})
	if err != nil {
		return fmt.Errorf("count bouts failed: %w", err)
	}
	if n > 0 {
		return ErrNotEmpty
	}
	res, err := s.matches.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete match failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateBout registers a match-up and returns its id.
func (s *MongoStore) CreateBout(ctx context.Context, b model.Bout) (string, error) {
	if b.MatchID != "" {
		n, err := s.matches.CountDocuments(ctx, bson.D{{Key: "_id", Value: b.MatchID}})
		if err != nil {
			return "", fmt.Errorf("check match failed: %w", err)
		}
		if n == 0 {
			return "", ErrNotFound
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, err := s.bouts.InsertOne(ctx, toBoutDoc(b)); err != nil {
		return "", fmt.Errorf("insert bout failed: %w", err)
	}
	return b.ID, nil
}

// GetBout returns a bout hydrated with its points.
func (s *MongoStore) GetBout(ctx context.Context, id string) (model.Bout, error) {
	var doc boutDoc
	err := s.bouts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Bout{}, ErrNotFound
	}
	if err != nil {
		return model.Bout{}, fmt.Errorf("fetch bout failed: %w", err)
	}
	b := doc.toModel()
	pts, err := s.ListBoutPoints(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.Bout{}, err
	}
	b.Points = pts
	return b, nil
}

// UpdateBoutOutcome sets the derived or manually assigned outcome.
func (s *MongoStore) UpdateBoutOutcome(ctx context.Context, boutID string, winType model.WinType, winnerID string) error {
	res, err := s.bouts.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: boutID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "win_type", Value: string(winType)},
			{Key: "winner_id", Value: winnerID},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update bout outcome failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBout removes a bout; fails while points still reference it.
func (s *MongoStore) DeleteBout(ctx context.Context, id string) error {
	n, err := s.points.CountDocuments(ctx, bson.D{{Key: "bout_id", Value: id}})
	if err != nil {
		return fmt.Errorf("count points failed: %w", err)
	}
	if n > 0 {
		return ErrNotEmpty
	}
	res, err := s.bouts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete bout failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceBoutPoints swaps the bout's point set. On replica-set deployments
// the delete and insert run inside one transaction; on standalone
// deployments the delete is still fully acknowledged before the insert
// starts, which preserves the ordering guarantee if not the atomicity.
func (s *MongoStore) ReplaceBoutPoints(ctx context.Context, boutID string, pts []model.Point) ([]model.Point, error) {
	var after boutDoc
	err := s.bouts.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: boutID}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "points_version", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bump points version failed: %w", err)
	}
	gen := after.PointsVersion

	docs := make([]interface{}, 0, len(pts))
	stamped := make([]model.Point, 0, len(pts))
	for _, p := range pts {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.BoutID = boutID
		p.Version = gen
		docs = append(docs, toPointDoc(p))
		stamped = append(stamped, p)
	}

	swap := func(sc context.Context) error {
		if _, err := s.points.DeleteMany(sc, bson.D{{Key: "bout_id", Value: boutID}}); err != nil {
			return fmt.Errorf("delete points failed: %w", err)
		}
		if len(docs) > 0 {
			if _, err := s.points.InsertMany(sc, docs, options.InsertMany().SetOrdered(true)); err != nil {
				return fmt.Errorf("insert points failed: %w", err)
			}
		}
		return nil
	}

	sess, err := s.client.StartSession()
	if err != nil {
		// Standalone deployment: sequential fallback, delete acknowledged
		// before inserting.
		if err := swap(ctx); err != nil {
			return nil, err
		}
		return stamped, nil
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, swap(sc)
	})
	if err != nil {
		return nil, err
	}
	return stamped, nil
}

// ListBoutPoints returns the bout's current point set ordered by time.
func (s *MongoStore) ListBoutPoints(ctx context.Context, boutID string) ([]model.Point, error) {
	opts := options.Find().SetSort(bson.D{{Key: "t_sec", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.points.Find(ctx, bson.D{{Key: "bout_id", Value: boutID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list bout points failed: %w", err)
	}
	var docs []pointDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode points failed: %w", err)
	}
	pts := make([]model.Point, 0, len(docs))
	for _, d := range docs {
		pts = append(pts, d.toModel())
	}
	return pts, nil
}

// ListPoints pages through every recorded point.
func (s *MongoStore) ListPoints(ctx context.Context, token string, limit int) ([]model.Point, string, error) {
	offset, err := parseToken(token)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return nil, "", ErrInvalidLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := s.points.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, "", fmt.Errorf("list points failed: %w", err)
	}
	var docs []pointDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, "", fmt.Errorf("decode points failed: %w", err)
	}

	page := make([]model.Point, 0, len(docs))
	for _, d := range docs {
		page = append(page, d.toModel())
	}
	next := ""
	if len(docs) == limit {
		next = strconv.Itoa(offset + limit)
	}
	return page, next, nil
}

// IncrementDailyCounter applies a native atomic add ($inc upsert); two
// concurrent writers can never lose an update.
func (s *MongoStore) IncrementDailyCounter(ctx context.Context, key counter.Key, delta int64) error {
	_, err := s.counters.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: counterID(key)}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "count", Value: delta}}},
			{Key: "$setOnInsert", Value: bson.D{
				{Key: "player_id", Value: key.PlayerID},
				{Key: "date", Value: key.Date},
				{Key: "kind", Value: string(key.Kind)},
				{Key: "name", Value: key.Name},
			}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("increment counter failed: %w", err)
	}
	return nil
}

// PutDailyCounter overwrites the row with an absolute count.
func (s *MongoStore) PutDailyCounter(ctx context.Context, key counter.Key, count int64) error {
	_, err := s.counters.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: counterID(key)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "player_id", Value: key.PlayerID},
			{Key: "date", Value: key.Date},
			{Key: "kind", Value: string(key.Kind)},
			{Key: "name", Value: key.Name},
			{Key: "count", Value: count},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put counter failed: %w", err)
	}
	return nil
}

// ListDailyCounters returns a player's counter rows ordered by date, kind,
// then name.
func (s *MongoStore) ListDailyCounters(ctx context.Context, playerID string) ([]model.Counter, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "kind", Value: 1},
		{Key: "name", Value: 1},
	})
	cur, err := s.counters.Find(ctx, bson.D{{Key: "player_id", Value: playerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list counters failed: %w", err)
	}
	var docs []counterDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode counters failed: %w", err)
	}
	rows := make([]model.Counter, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, model.Counter{
			PlayerID: d.PlayerID,
			Date:     d.Date,
			Kind:     model.CounterKind(d.Kind),
			Name:     d.Name,
			Count:    d.Count,
		})
	}
	return rows, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect failed: %w", err)
	}
	return nil
}

// hydrateMatch attaches bouts (ordered by seq) and their points.
func (s *MongoStore) hydrateMatch(ctx context.Context, m *model.Match) error {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.bouts.Find(ctx, bson.D{{Key: "match_id", Value: m.ID}}, opts)
	if err != nil {
		return fmt.Errorf("list bouts failed: %w", err)
	}
	var docs []boutDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode bouts failed: %w", err)
	}

	bouts := make([]model.Bout, 0, len(docs))
	for _, d := range docs {
		b := d.toModel()
		pts, err := s.ListBoutPoints(ctx, b.ID)
		if err != nil {
			return err
		}
		b.Points = pts
		bouts = append(bouts, b)
	}
	m.Bouts = bouts
	return nil
}
