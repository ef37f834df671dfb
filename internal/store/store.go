// Package store is the relational store adapter. Tables are addressed by
// their gorm model type, filters are column equalities, and every error
// leaving the package has been classified by failure.Classify.
package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Kawdoor/aizer/internal/failure"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter is an equality condition. A nil Value matches NULL.
type Filter struct {
	Column string
	Value  interface{}
	// In matches Column against any of Values instead of Value.
	In     bool
	Values []interface{}
}

func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Value: value}
}

// In matches rows whose column equals any of values. No values match
// nothing.
func In(column string, values ...interface{}) Filter {
	return Filter{Column: column, In: true, Values: values}
}

type Order struct {
	Column     string
	Descending bool
}

// NewestFirst is the ordering every snapshot query uses.
var NewestFirst = &Order{Column: "created_at", Descending: true}

type Store interface {
	Query(ctx context.Context, dest interface{}, filters []Filter, order *Order) error
	Get(ctx context.Context, dest interface{}, filters []Filter) error
	Count(ctx context.Context, model interface{}, filters []Filter) (int64, error)
	Insert(ctx context.Context, records interface{}) error
	Upsert(ctx context.Context, records interface{}, conflictColumns, updateColumns []string) error
	Update(ctx context.Context, model interface{}, patch map[string]interface{}, filters []Filter) (int64, error)
	Delete(ctx context.Context, model interface{}, filters []Filter) (int64, error)
}

// Transactor is a Store that can scope several calls to one transaction.
type Transactor interface {
	Store
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func where(db *gorm.DB, filters []Filter) *gorm.DB {
	if len(filters) == 0 {
		return db
	}
	exprs := make([]clause.Expression, 0, len(filters))
	for _, f := range filters {
		if f.In {
			exprs = append(exprs, clause.IN{Column: clause.Column{Name: f.Column}, Values: f.Values})
			continue
		}
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: f.Column}, Value: f.Value})
	}
	return db.Clauses(clause.Where{Exprs: exprs})
}

func (s *GormStore) Query(ctx context.Context, dest interface{}, filters []Filter, order *Order) error {
	q := where(s.DB.WithContext(ctx), filters)
	if order != nil {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: order.Column}, Desc: order.Descending})
	}
	if err := q.Find(dest).Error; err != nil {
		return failure.Classify(fmt.Sprintf("query %s", tableOf(dest)), err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, dest interface{}, filters []Filter) error {
	if err := where(s.DB.WithContext(ctx), filters).Take(dest).Error; err != nil {
		return failure.Classify(fmt.Sprintf("get %s", tableOf(dest)), err)
	}
	return nil
}

func (s *GormStore) Count(ctx context.Context, model interface{}, filters []Filter) (int64, error) {
	var count int64
	if err := where(s.DB.WithContext(ctx).Model(model), filters).Count(&count).Error; err != nil {
		return 0, failure.Classify(fmt.Sprintf("count %s", tableOf(model)), err)
	}
	return count, nil
}

func (s *GormStore) Insert(ctx context.Context, records interface{}) error {
	if err := s.DB.WithContext(ctx).Create(records).Error; err != nil {
		return failure.Classify(fmt.Sprintf("insert %s", tableOf(records)), err)
	}
	return nil
}

// Upsert inserts records, updating only updateColumns when a row with the
// same conflictColumns already exists.
func (s *GormStore) Upsert(ctx context.Context, records interface{}, conflictColumns, updateColumns []string) error {
	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, name := range conflictColumns {
		columns = append(columns, clause.Column{Name: name})
	}
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: columns, DoUpdates: clause.AssignmentColumns(updateColumns)}).
		Create(records).Error
	if err != nil {
		return failure.Classify(fmt.Sprintf("upsert %s", tableOf(records)), err)
	}
	return nil
}

// Update applies patch as one UPDATE statement. Both columns of a
// mutually exclusive pair must be present in patch; callers build patches
// with the relocation helpers rather than by hand.
func (s *GormStore) Update(ctx context.Context, model interface{}, patch map[string]interface{}, filters []Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, failure.Validation(fmt.Sprintf("update %s", tableOf(model)), "refusing to update without filters")
	}
	res := where(s.DB.WithContext(ctx).Model(model), filters).Updates(patch)
	if res.Error != nil {
		return 0, failure.Classify(fmt.Sprintf("update %s", tableOf(model)), res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) Delete(ctx context.Context, model interface{}, filters []Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, failure.Validation(fmt.Sprintf("delete %s", tableOf(model)), "refusing to delete without filters")
	}
	res := where(s.DB.WithContext(ctx), filters).Delete(model)
	if res.Error != nil {
		return 0, failure.Classify(fmt.Sprintf("delete %s", tableOf(model)), res.Error)
	}
	return res.RowsAffected, nil
}

// Transaction runs fn against a store bound to one database transaction.
// Only group deletion uses it; the hierarchy and relocation code issue
// single statements.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
	return failure.Classify("transaction", err)
}

type tabler interface {
	TableName() string
}

func tableOf(v interface{}) string {
	t := reflect.TypeOf(v)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	if tb, ok := reflect.New(t).Interface().(tabler); ok {
		return tb.TableName()
	}
	return t.Name()
}
