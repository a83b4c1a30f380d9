package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection is an in-memory CollectionInterface honouring equality filters, the $ne, $gte, $lte
// and $regex operators, $set and $inc updates, sorting and unique indexes.
type fakeCollection struct {
	mu      sync.Mutex
	name    string
	docs    []bson.M
	unique  map[string][]string
	writes  int
	indexes []mongo.IndexModel

	// beforeInsert runs outside the lock, letting tests line up concurrent inserts
	beforeInsert func()
	// failNext makes the next operation return this error
	failNext error
}

func newFakeCollection(name string) *fakeCollection {
	return &fakeCollection{name: name, unique: map[string][]string{}}
}

// withUnique declares a unique index over keys
func (c *fakeCollection) withUnique(name string, keys ...string) *fakeCollection {
	c.unique[name] = keys
	return c
}

func (c *fakeCollection) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *fakeCollection) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// raw returns a copy of the stored document with the given _id
func (c *fakeCollection) raw(id string) bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.docs {
		if d[fieldID] == id {
			return clone(d)
		}
	}
	return nil
}

// put stores doc directly, bypassing indexes and counters
func (c *fakeCollection) put(doc interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := toM(doc)
	if err != nil {
		panic(err)
	}
	c.docs = append(c.docs, m)
}

func (c *fakeCollection) takeFailure() error {
	err := c.failNext
	c.failNext = nil
	return err
}

func (c *fakeCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return 0, err
	}
	f, err := toM(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, d := range c.docs {
		if matches(d, f) {
			n++
		}
	}
	return n, nil
}

func (c *fakeCollection) InsertOne(ctx context.Context, doc interface{}) (interface{}, error) {
	if c.beforeInsert != nil {
		c.beforeInsert()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return nil, err
	}
	m, err := toM(doc)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique(m, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, m)
	c.writes++
	return m[fieldID], nil
}

func (c *fakeCollection) FindOne(ctx context.Context, filter interface{}) SingleResultInterface {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return &fakeSingleResult{err: err}
	}
	f, err := toM(filter)
	if err != nil {
		return &fakeSingleResult{err: err}
	}
	for _, d := range c.docs {
		if matches(d, f) {
			return &fakeSingleResult{doc: clone(d)}
		}
	}
	return &fakeSingleResult{err: mongo.ErrNoDocuments}
}

func (c *fakeCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (UpdateResultInterface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return nil, err
	}
	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return matchedCount(0), err
	}
	updated, err := applyUpdate(c.docs[idx], update)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique(updated, idx); err != nil {
		return nil, err
	}
	c.docs[idx] = updated
	c.writes++
	return matchedCount(1), nil
}

func (c *fakeCollection) DeleteOne(ctx context.Context, filter interface{}) (DeleteResultInterface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return nil, err
	}
	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return deletedCount(0), err
	}
	c.docs = append(c.docs[:idx], c.docs[idx+1:]...)
	c.writes++
	return deletedCount(1), nil
}

func (c *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return nil, err
	}
	f, err := toM(filter)
	if err != nil {
		return nil, err
	}
	var out []bson.M
	for _, d := range c.docs {
		if matches(d, f) {
			out = append(out, clone(d))
		}
	}
	for _, o := range opts {
		if o == nil || o.Sort == nil {
			continue
		}
		if keys, ok := o.Sort.(bson.D); ok {
			sortDocs(out, keys)
		}
	}
	return &fakeCursor{docs: out, pos: -1}, nil
}

func (c *fakeCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (UpdateResultInterface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return nil, err
	}
	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return matchedCount(0), err
	}
	m, err := toM(replacement)
	if err != nil {
		return nil, err
	}
	m[fieldID] = c.docs[idx][fieldID]
	if err := c.checkUnique(m, idx); err != nil {
		return nil, err
	}
	c.docs[idx] = m
	c.writes++
	return matchedCount(1), nil
}

func (c *fakeCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) SingleResultInterface {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return &fakeSingleResult{err: err}
	}
	idx, err := c.first(filter)
	if err != nil {
		return &fakeSingleResult{err: err}
	}
	if idx < 0 {
		return &fakeSingleResult{err: mongo.ErrNoDocuments}
	}
	before := clone(c.docs[idx])
	updated, err := applyUpdate(c.docs[idx], update)
	if err != nil {
		return &fakeSingleResult{err: err}
	}
	if err := c.checkUnique(updated, idx); err != nil {
		return &fakeSingleResult{err: err}
	}
	c.docs[idx] = updated
	c.writes++

	for _, o := range opts {
		if o != nil && o.ReturnDocument != nil && *o.ReturnDocument == options.After {
			return &fakeSingleResult{doc: clone(updated)}
		}
	}
	return &fakeSingleResult{doc: before}
}

func (c *fakeCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(models))
	for _, m := range models {
		c.indexes = append(c.indexes, m)
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		if m.Options != nil && m.Options.Unique != nil && *m.Options.Unique {
			var keys []string
			for _, k := range m.Keys.(bson.D) {
				keys = append(keys, k.Key)
			}
			c.unique[name] = keys
		}
		names = append(names, name)
	}
	return names, nil
}

func (c *fakeCollection) first(filter interface{}) (int, error) {
	f, err := toM(filter)
	if err != nil {
		return -1, err
	}
	for i, d := range c.docs {
		if matches(d, f) {
			return i, nil
		}
	}
	return -1, nil
}

// checkUnique rejects doc when another document shares its _id or any unique key set
func (c *fakeCollection) checkUnique(doc bson.M, self int) error {
	for i, d := range c.docs {
		if i == self {
			continue
		}
		if equalValues(d[fieldID], doc[fieldID]) {
			return duplicateKey(c.name, "_id_")
		}
		for name, keys := range c.unique {
			same := true
			for _, k := range keys {
				if !equalValues(d[k], doc[k]) {
					same = false
					break
				}
			}
			if same {
				return duplicateKey(c.name, name)
			}
		}
	}
	return nil
}

func duplicateKey(collection, index string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.%s index: %s", collection, index),
	}}}
}

type fakeSingleResult struct {
	doc bson.M
	err error
}

func (r *fakeSingleResult) Decode(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	return decodeInto(r.doc, v)
}

type fakeCursor struct {
	docs []bson.M
	pos  int
	err  error
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.pos+1 >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Decode(val interface{}) error { return decodeInto(c.docs[c.pos], val) }
func (c *fakeCursor) Close(ctx context.Context) error { return nil }
func (c *fakeCursor) Err() error                      { return c.err }

// ---- document helpers ----

func toM(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeInto(doc bson.M, v interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, v)
}

func clone(doc bson.M) bson.M {
	out, err := toM(doc)
	if err != nil {
		panic(err)
	}
	return out
}

func applyUpdate(doc bson.M, update interface{}) (bson.M, error) {
	u, err := toM(update)
	if err != nil {
		return nil, err
	}
	out := clone(doc)
	for op, raw := range u {
		fields, ok := asM(raw)
		if !ok {
			return nil, fmt.Errorf("unsupported update value for %s", op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				out[k] = v
			}
		case "$inc":
			for k, v := range fields {
				out[k] = addNumbers(out[k], v)
			}
		default:
			return nil, fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return toM(out)
}

func matches(doc, filter bson.M) bool {
	for key, cond := range filter {
		value := doc[key]
		if ops, ok := asM(cond); ok && isOperatorDoc(ops) {
			if !matchOperators(value, ops) {
				return false
			}
			continue
		}
		if !equalValues(value, cond) {
			return false
		}
	}
	return true
}

func isOperatorDoc(m bson.M) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return len(m) > 0
}

func matchOperators(value interface{}, ops bson.M) bool {
	for op, arg := range ops {
		switch op {
		case "$ne":
			if equalValues(value, arg) {
				return false
			}
		case "$gte":
			a, okA := toFloat(value)
			b, okB := toFloat(arg)
			if !okA || !okB || a < b {
				return false
			}
		case "$lte":
			a, okA := toFloat(value)
			b, okB := toFloat(arg)
			if !okA || !okB || a > b {
				return false
			}
		case "$regex":
			pattern, _ := arg.(string)
			if opts, _ := ops["$options"].(string); strings.Contains(opts, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			s, isString := value.(string)
			if err != nil || !isString || !re.MatchString(s) {
				return false
			}
		case "$options":
		default:
			return false
		}
	}
	return true
}

func asM(v interface{}) (bson.M, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case map[string]interface{}:
		return bson.M(t), true
	case bson.D:
		return t.Map(), true
	}
	return nil, false
}

func equalValues(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func addNumbers(a, b interface{}) interface{} {
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	return int64(fa + fb)
}

func sortDocs(docs []bson.M, keys bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			dir, _ := toFloat(k.Value)
			c := compareValues(docs[i][k.Key], docs[j][k.Key])
			if c == 0 {
				continue
			}
			if dir < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
