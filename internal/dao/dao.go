package dao

import (
	"context"
)

// Save calls Default().Save.
func Save(ctx context.Context, rec Record) error { return Default().Save(ctx, rec) }

// Insert calls Default().Insert.
func Insert(ctx context.Context, rec Record) error { return Default().Insert(ctx, rec) }

// Replace calls Default().Replace.
func Replace(ctx context.Context, rec Record) error { return Default().Replace(ctx, rec) }

// Update calls Default().Update.
func Update(ctx context.Context, rec Record) error { return Default().Update(ctx, rec) }

// Delete calls Default().Delete.
func Delete(ctx context.Context, rec Record) error { return Default().Delete(ctx, rec) }

// Reload calls Default().Reload.
func Reload(ctx context.Context, rec Record) error { return Default().Reload(ctx, rec) }

// Call calls Default().Call.
func Call(rec Record, method string, args ...any) (any, error) {
	return Default().Call(rec, method, args...)
}

// Get calls Default().Get.
func Get(rec Record, name string) (any, error) { return Default().Get(rec, name) }

// Set calls Default().Set.
func Set(rec Record, name string, v any) error { return Default().Set(rec, name, v) }

// Dictionary calls Default().Dictionary.
func Dictionary(rec Record) (map[string]any, error) { return Default().Dictionary(rec) }

// Load loads a T by id through the default engine.
func Load[T any, P Ptr[T]](ctx context.Context, id any) (P, bool, error) {
	return TableOf[T, P](Default()).Load(ctx, id)
}

// LoadAllWhere loads every matching T through the default engine.
func LoadAllWhere[T any, P Ptr[T]](ctx context.Context, where string, args ...any) (*Results[P], error) {
	return TableOf[T, P](Default()).LoadAllWhere(ctx, where, args...)
}

// LoadOneWhere loads the single matching T through the default engine.
func LoadOneWhere[T any, P Ptr[T]](ctx context.Context, where string, args ...any) (P, bool, error) {
	return TableOf[T, P](Default()).LoadOneWhere(ctx, where, args...)
}
