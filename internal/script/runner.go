package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/previewsync/internal/app"
	"github.com/dshills/previewsync/internal/host/memhost"
)

// DefaultTimeout bounds one script execution.
const DefaultTimeout = 5 * time.Second

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where print writes. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTimeout bounds each execution. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithForm sets the form scripts act on.
func WithForm(f *memhost.Form) Option {
	return func(r *Runner) {
		r.form = f
	}
}

// Runner executes scripts against one session.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes
// executions.
type Runner struct {
	mu      sync.Mutex
	L       *lua.LState
	sess    *app.Session
	form    *memhost.Form
	out     io.Writer
	timeout time.Duration
	closed  bool
}

// New creates a sandboxed runner bound to sess.
func New(sess *app.Session, opts ...Option) *Runner {
	r := &Runner{
		sess:    sess,
		out:     os.Stdout,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.install()
	return r
}

// openSafeLibraries opens the base, table, string and math libraries and
// removes the base functions that load code from outside the script.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"require", "module", "getfenv", "setfenv", "collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Run executes src against sess and closes the runner.
func Run(ctx context.Context, sess *app.Session, src string, opts ...Option) error {
	r := New(sess, opts...)
	defer r.Close()
	return r.DoString(ctx, src)
}

// DoString executes a chunk of Lua.
func (r *Runner) DoString(ctx context.Context, code string) error {
	return r.do(ctx, func() error { return r.L.DoString(code) })
}

// DoFile executes a Lua file.
func (r *Runner) DoFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.do(ctx, func() error { return r.L.DoString(string(data)) })
}

func (r *Runner) do(ctx context.Context, fn func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}

// Close releases the Lua state.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.L.Close()
	return nil
}

func (r *Runner) install() {
	funcs := map[string]lua.LGFunction{
		"edit":       r.luaEdit,
		"blur":       r.luaBlur,
		"toggle":     r.luaToggle,
		"submit":     r.luaSubmit,
		"advance":    r.luaAdvance,
		"flush":      r.luaFlush,
		"scan":       r.luaScan,
		"text":       r.luaText,
		"elements":   r.luaElements,
		"checkboxes": r.luaCheckboxes,
		"nodes":      r.luaNodes,
		"form":       r.luaForm,
		"log":        r.luaLog,
		"print":      r.luaPrint,
	}
	for name, fn := range funcs {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

// current returns the form scripts act on, raising a Lua error if there
// is none.
func (r *Runner) current(L *lua.LState) *memhost.Form {
	if r.form == nil {
		f, err := r.sess.Form(0)
		if err != nil {
			L.RaiseError("%v", ErrNoForm)
			return nil
		}
		r.form = f
	}
	return r.form
}

func raise(L *lua.LState, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Runner) luaEdit(L *lua.LState) int {
	target, text := L.CheckString(1), L.CheckString(2)
	return raise(L, r.sess.Edit(r.current(L), target, text))
}

func (r *Runner) luaBlur(L *lua.LState) int {
	return raise(L, r.sess.Blur(r.current(L), L.CheckString(1)))
}

func (r *Runner) luaToggle(L *lua.LState) int {
	return raise(L, r.sess.Click(r.current(L), L.CheckInt(1)-1))
}

func (r *Runner) luaSubmit(L *lua.LState) int {
	return raise(L, r.sess.Submit(r.current(L)))
}

func (r *Runner) luaAdvance(L *lua.LState) int {
	d, err := duration(L.Get(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	return raise(L, r.sess.Advance(d))
}

// duration accepts a number of milliseconds or a Go duration string.
func duration(v lua.LValue) (time.Duration, error) {
	switch val := v.(type) {
	case lua.LNumber:
		return time.Duration(float64(val) * float64(time.Millisecond)), nil
	case lua.LString:
		return time.ParseDuration(string(val))
	default:
		return 0, fmt.Errorf("duration expected, got %s", v.Type())
	}
}

func (r *Runner) luaFlush(L *lua.LState) int {
	L.Push(lua.LNumber(r.sess.Flush()))
	return 1
}

func (r *Runner) luaScan(L *lua.LState) int {
	res := r.sess.Scan()
	t := L.NewTable()
	t.RawSetString("containers", lua.LNumber(res.Containers))
	t.RawSetString("checkboxes", lua.LNumber(res.Checkboxes))
	t.RawSetString("editables", lua.LNumber(res.Editables))
	L.Push(t)
	return 1
}

func (r *Runner) luaText(L *lua.LState) int {
	L.Push(lua.LString(r.sess.Text(r.current(L))))
	return 1
}

func (r *Runner) luaElements(L *lua.LState) int {
	form := r.current(L)
	t := L.NewTable()
	for _, el := range form.Body().Blocks() {
		t.Append(lua.LString(el.Text()))
	}
	for _, task := range form.Body().Tasks() {
		t.Append(lua.LString(task.Text()))
	}
	L.Push(t)
	return 1
}

func (r *Runner) luaCheckboxes(L *lua.LState) int {
	t := L.NewTable()
	for _, checked := range r.sess.Checkboxes(r.current(L)) {
		t.Append(lua.LBool(checked))
	}
	L.Push(t)
	return 1
}

func (r *Runner) luaNodes(L *lua.LState) int {
	L.Push(lua.LNumber(r.sess.Enhancer().Nodes()))
	return 1
}

func (r *Runner) luaForm(L *lua.LState) int {
	f, err := r.sess.Form(L.CheckInt(1) - 1)
	if err != nil {
		return raise(L, err)
	}
	r.form = f
	return 0
}

func (r *Runner) luaLog(L *lua.LState) int {
	r.sess.Logger().WithComponent("script").Info("%s", L.CheckString(1))
	return 0
}

func (r *Runner) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	_, _ = fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}
