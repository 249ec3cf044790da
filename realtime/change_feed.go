package realtime

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	Logger "github.com/Luismorlan/mediamux/utils/log"
	"gorm.io/gorm"
)

// WatchedTables are the tables dashboard clients follow.
var WatchedTables = []string{"media", "channels", "messages", "sync_logs", "webhook_history", "edge_function_logs"}

// ChangeFeed is a gorm plugin publishing a ChangeEvent after every
// committed create, update or delete on the watched tables. Listeners run
// synchronously before the event reaches the bus.
type ChangeFeed struct {
	bus    Bus
	tables map[string]bool

	mu        sync.RWMutex
	listeners []func(ChangeEvent)
}

func NewChangeFeed(bus Bus, tables ...string) *ChangeFeed {
	f := &ChangeFeed{bus: bus, tables: map[string]bool{}}
	for _, t := range tables {
		f.tables[t] = true
	}
	return f
}

func (f *ChangeFeed) Name() string {
	return "mediamux:change_feed"
}

func (f *ChangeFeed) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:commit_or_rollback_transaction").Register("mediamux:publish_create", f.publish(EventInsert)); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:commit_or_rollback_transaction").Register("mediamux:publish_update", f.publish(EventUpdate)); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:commit_or_rollback_transaction").Register("mediamux:publish_delete", f.publish(EventDelete))
}

// OnChange registers fn to run on the writing goroutine for every change,
// before subscribers of the bus can observe it.
func (f *ChangeFeed) OnChange(fn func(ChangeEvent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *ChangeFeed) emit(ctx context.Context, event ChangeEvent) {
	f.mu.RLock()
	listeners := f.listeners
	f.mu.RUnlock()
	for _, fn := range listeners {
		fn(event)
	}
	if err := f.bus.Publish(ctx, event); err != nil {
		Logger.Log.Warn("fail to publish change event: ", err)
	}
}

func (f *ChangeFeed) publish(eventType EventType) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.RowsAffected == 0 || !f.tables[db.Statement.Table] {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		ids := primaryKeys(db)
		if len(ids) == 0 {
			ids = []string{""}
		}
		now := time.Now()
		p, deferred := ctx.Value(pendingKey{}).(*pendingEvents)
		for _, id := range ids {
			event := ChangeEvent{Table: db.Statement.Table, Type: eventType, Id: id, At: now}
			if deferred {
				p.add(f, event)
				continue
			}
			f.emit(ctx, event)
		}
	}
}

type pendingKey struct{}

// pendingEvents holds the events of a transaction until it commits.
type pendingEvents struct {
	mu     sync.Mutex
	feeds  []*ChangeFeed
	events []ChangeEvent
}

func (p *pendingEvents) add(f *ChangeFeed, event ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feeds = append(p.feeds, f)
	p.events = append(p.events, event)
}

// Transaction runs fn in a database transaction. Change events of the
// statements issued on tx are published once the transaction committed and
// dropped when it rolled back.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	p := &pendingEvents{}
	if err := db.WithContext(context.WithValue(ctx, pendingKey{}, p)).Transaction(fn); err != nil {
		return err
	}
	for i, event := range p.events {
		p.feeds[i].emit(ctx, event)
	}
	return nil
}

// primaryKeys returns the non-zero primary keys of the statement's model.
func primaryKeys(db *gorm.DB) []string {
	stmt := db.Statement
	if stmt.Schema == nil || stmt.Schema.PrioritizedPrimaryField == nil {
		return nil
	}
	field := stmt.Schema.PrioritizedPrimaryField
	var ids []string
	collect := func(rv reflect.Value) {
		if v, zero := field.ValueOf(stmt.Context, rv); !zero {
			ids = append(ids, fmt.Sprint(v))
		}
	}

	rv := reflect.Indirect(stmt.ReflectValue)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			elem := reflect.Indirect(rv.Index(i))
			if elem.Kind() == reflect.Struct {
				collect(elem)
			}
		}
	case reflect.Struct:
		collect(rv)
	}
	return ids
}
