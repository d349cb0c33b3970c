package fw

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// MockRecord tracks one mock: the replacement, where it was installed, the
// value it displaced and how often it was called.
type MockRecord struct {
	mu sync.Mutex

	fn       interface{}
	owner    interface{}
	name     string
	original reflect.Value
	restore  func()

	replaced bool
	restored bool
	calls    int
	err      error
}

// Name returns the replaced property name, empty before Replace.
func (m *MockRecord) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Calls returns how many times the installed replacement has been invoked.
func (m *MockRecord) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Err returns the error that prevented Replace from installing the mock.
func (m *MockRecord) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Replaced reports whether the replacement was installed.
func (m *MockRecord) Replaced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced
}

// Restored reports whether the original value was put back.
func (m *MockRecord) Restored() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restored
}

// Original returns the displaced value, nil when nothing was displaced.
func (m *MockRecord) Original() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.original.IsValid() {
		return nil
	}
	return m.original.Interface()
}

func (m *MockRecord) called() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// undo puts the original value back. It reports false for records that
// were never installed or are already restored.
func (m *MockRecord) undo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.replaced || m.restored || m.restore == nil {
		return false
	}
	m.restore()
	m.restored = true
	return true
}

// Mocker installs a registered mock.
type Mocker struct {
	r   *Runner
	rec *MockRecord
}

// Mock registers a replacement. fn is usually a function; a nil fn becomes
// a stub returning zero values. The record is installed by Replace and
// undone by Restore.
func (r *Runner) Mock(fn interface{}) *Mocker {
	rec := &MockRecord{fn: fn}
	r.mu.Lock()
	r.mocks = append(r.mocks, rec)
	count := len(r.mocks)
	r.mu.Unlock()
	r.metrics.UpdateMocksActive(count)
	return &Mocker{r: r, rec: rec}
}

// Record returns the mock's record.
func (m *Mocker) Record() *MockRecord {
	return m.rec
}

// Replace installs the mock as owner's property name and returns its record.
//
// Owners may be a pointer to a struct (an exported field called name), a map
// with string keys (the key name), or a pointer to any other variable, such
// as a func variable (name is then only a label). Function replacements are
// wrapped so their calls are counted.
//
// On failure the owner is left untouched and the error is kept on the
// record; Restore skips such records.
func (m *Mocker) Replace(owner interface{}, name string) *MockRecord {
	rec := m.rec
	rec.mu.Lock()
	err := rec.install(owner, name)
	rec.err = err
	rec.mu.Unlock()

	if err != nil {
		m.r.logger.Warn("mock replace failed", zap.String("name", name), zap.Error(err))
	} else {
		m.r.logger.Debug("mock installed", zap.String("name", name))
	}
	return rec
}

// install does the work of Replace; rec.mu is held.
func (m *MockRecord) install(owner interface{}, name string) error {
	if m.replaced {
		return &RunnerError{Message: fmt.Sprintf("mock already installed as %q", m.name), Code: "ALREADY_REPLACED"}
	}

	ov := reflect.ValueOf(owner)
	switch {
	case !ov.IsValid():
		return fmt.Errorf("%w: nil", ErrInvalidMockOwner)

	case ov.Kind() == reflect.Map:
		if ov.IsNil() {
			return fmt.Errorf("%w: nil map", ErrInvalidMockOwner)
		}
		kt := ov.Type().Key()
		if kt.Kind() != reflect.String {
			return fmt.Errorf("%w: map key type %s is not a string", ErrInvalidMockOwner, kt)
		}
		repl, err := m.replacement(ov.Type().Elem())
		if err != nil {
			return err
		}
		key := reflect.ValueOf(name).Convert(kt)
		orig := ov.MapIndex(key)
		if orig.IsValid() {
			m.original = copyValue(orig)
		}
		ov.SetMapIndex(key, repl)
		m.restore = func() {
			if orig.IsValid() {
				ov.SetMapIndex(key, m.original)
				return
			}
			ov.SetMapIndex(key, reflect.Value{})
		}

	case ov.Kind() == reflect.Ptr && !ov.IsNil():
		target := ov.Elem()
		if target.Kind() == reflect.Struct {
			field, err := structField(target, name)
			if err != nil {
				return err
			}
			target = field
		}
		repl, err := m.replacement(target.Type())
		if err != nil {
			return err
		}
		m.original = copyValue(target)
		target.Set(repl)
		m.restore = func() { target.Set(m.original) }

	default:
		return fmt.Errorf("%w: %T", ErrInvalidMockOwner, owner)
	}

	m.owner = owner
	m.name = name
	m.replaced = true
	return nil
}

func structField(sv reflect.Value, name string) (reflect.Value, error) {
	sf, ok := sv.Type().FieldByName(name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s has no field %q", ErrNoSuchProperty, sv.Type(), name)
	}
	if !sf.IsExported() {
		return reflect.Value{}, fmt.Errorf("%w: field %q of %s is unexported", ErrNoSuchProperty, name, sv.Type())
	}
	field, err := sv.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrNoSuchProperty, err)
	}
	if !field.CanSet() {
		return reflect.Value{}, fmt.Errorf("%w: field %q of %s cannot be set", ErrNoSuchProperty, name, sv.Type())
	}
	return field, nil
}

func copyValue(v reflect.Value) reflect.Value {
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// replacement builds the value installed into a property of type t.
func (m *MockRecord) replacement(t reflect.Type) (reflect.Value, error) {
	fv := reflect.ValueOf(m.fn)

	if !fv.IsValid() {
		switch t.Kind() {
		case reflect.Func:
			return reflect.MakeFunc(t, func([]reflect.Value) []reflect.Value {
				m.called()
				return zeroResults(t)
			}), nil
		case reflect.Interface:
			stub := reflect.TypeOf(func() {})
			if !stub.AssignableTo(t) {
				break
			}
			return reflect.MakeFunc(stub, func([]reflect.Value) []reflect.Value {
				m.called()
				return nil
			}), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: no stub for %s", ErrMockTypeMismatch, t)
	}

	if fv.Kind() != reflect.Func {
		if !fv.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrMockTypeMismatch, fv.Type(), t)
		}
		return fv, nil
	}

	ft := fv.Type()
	wrapType := ft
	switch {
	case t.Kind() == reflect.Func:
		if !ft.ConvertibleTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrMockTypeMismatch, ft, t)
		}
		wrapType = t
	case !ft.AssignableTo(t):
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrMockTypeMismatch, ft, t)
	}

	return reflect.MakeFunc(wrapType, func(args []reflect.Value) []reflect.Value {
		m.called()
		if wrapType.IsVariadic() {
			return fv.CallSlice(args)
		}
		return fv.Call(args)
	}), nil
}

func zeroResults(t reflect.Type) []reflect.Value {
	out := make([]reflect.Value, t.NumOut())
	for i := range out {
		out[i] = reflect.Zero(t.Out(i))
	}
	return out
}

// MockVar replaces the variable at target with replacement and registers the
// mock on r under name.
//
//	rec := fw.MockVar(r, &timeNow, "timeNow", func() time.Time { return fixed })
func MockVar[T any](r *Runner, target *T, name string, replacement T) *MockRecord {
	return r.Mock(replacement).Replace(target, name)
}

// Restore undoes mocks in reverse registration order. With no names every
// mock is restored and the registry is cleared. With names only the mocks
// installed under those names are restored and removed; the others stay
// registered. It returns the number of mocks restored.
func (r *Runner) Restore(names ...string) int {
	r.mu.Lock()
	var keep []*MockRecord
	restored := 0
	for i := len(r.mocks) - 1; i >= 0; i-- {
		rec := r.mocks[i]
		if len(names) > 0 && !containsName(names, rec.Name()) {
			keep = append(keep, rec)
			continue
		}
		if rec.undo() {
			restored++
		}
	}
	for i, j := 0, len(keep)-1; i < j; i, j = i+1, j-1 {
		keep[i], keep[j] = keep[j], keep[i]
	}
	r.mocks = keep
	count := len(keep)
	r.mu.Unlock()

	r.metrics.UpdateMocksActive(count)
	r.logger.Debug("mocks restored", zap.Int("restored", restored), zap.Int("remaining", count))
	return restored
}

// RestoreQueued queues a Restore so it runs after every task registered
// before it, such as the tests that use the mocks.
func (r *Runner) RestoreQueued(names ...string) *Runner {
	r.queue.enqueue(func(context.Context) {
		r.Restore(names...)
	})
	return r
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
