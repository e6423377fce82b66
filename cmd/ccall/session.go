package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/cbridge/errors"
	"github.com/wippyai/cbridge/guest"
)

const wasiModule = wasi_snapshot_preview1.ModuleName

// retKind selects how a call result is shown.
type retKind string

const (
	retAuto   retKind = "auto"
	retString retKind = "string"
	retI32    retKind = "i32"
	retNone   retKind = "none"
)

func parseRetKind(s string) (retKind, error) {
	switch k := retKind(s); k {
	case retAuto, retString, retI32, retNone:
		return k, nil
	case "":
		return retAuto, nil
	default:
		return "", errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("unknown result kind %q (want auto, string, i32 or none)", s))
	}
}

type funcInfo struct {
	name    string
	params  []api.ValueType
	names   []string
	results []api.ValueType
}

func (f funcInfo) signature() string {
	params := make([]string, len(f.params))
	for i, t := range f.params {
		params[i] = paramName(f.names, i) + " " + api.ValueTypeName(t)
	}
	sig := f.name + "(" + strings.Join(params, ", ") + ")"
	if len(f.results) > 0 {
		results := make([]string, len(f.results))
		for i, t := range f.results {
			results[i] = api.ValueTypeName(t)
		}
		sig += " -> " + strings.Join(results, ", ")
	}
	return sig
}

func paramName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return "arg" + strconv.Itoa(i)
}

// session is one instantiated guest module.
type session struct {
	rt        wazero.Runtime
	mod       api.Module
	guest     *guest.Guest
	attachErr error
	funcs     []funcInfo
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	log       *zap.Logger
}

func openSession(ctx context.Context, path string, log *zap.Logger) (*session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read file", err)
	}

	s := &session{rt: wazero.NewRuntime(ctx), log: log}
	if err := s.load(ctx, data); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *session) load(ctx context.Context, data []byte) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, s.rt); err != nil {
		return errors.Instantiation(err)
	}

	compiled, err := s.rt.CompileModule(ctx, data)
	if err != nil {
		return errors.Load("compile module", err)
	}
	if err := checkImports(compiled); err != nil {
		return err
	}
	s.funcs = exportedFuncs(compiled)

	cfg := wazero.NewModuleConfig().
		WithStdout(&s.stdout).
		WithStderr(&s.stderr).
		WithStartFunctions("_initialize")
	s.mod, err = s.rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return errors.Instantiation(err)
	}

	s.guest, s.attachErr = guest.Attach(ctx, s.mod, guest.WithLogger(s.log))
	if s.attachErr != nil {
		// Modules without malloc can still take numeric args and return
		// strings; only outbound strings need the allocator.
		mem := guest.WrapMemory(s.mod.ExportedMemory(guest.DefaultMemoryName))
		if mem != nil {
			s.guest = guest.New(mem, nil, guest.WithLogger(s.log))
		}
		s.log.Debug("guest allocator unavailable", zap.Error(s.attachErr))
	}
	return nil
}

// checkImports reports every import that WASI preview1 does not satisfy.
func checkImports(compiled wazero.CompiledModule) error {
	var missing []string
	for _, def := range compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		if mod != wasiModule {
			missing = append(missing, mod+"#"+name)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

func exportedFuncs(compiled wazero.CompiledModule) []funcInfo {
	var funcs []funcInfo
	for name, def := range compiled.ExportedFunctions() {
		if name == "_initialize" || name == "_start" {
			continue
		}
		funcs = append(funcs, funcInfo{
			name:    name,
			params:  def.ParamTypes(),
			names:   def.ParamNames(),
			results: def.ResultTypes(),
		})
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].name < funcs[j].name })
	return funcs
}

func (s *session) lookup(name string) (funcInfo, bool) {
	for _, f := range s.funcs {
		if f.name == name {
			return f, true
		}
	}
	return funcInfo{}, false
}

// call invokes name with args and formats its result. String arguments
// live in guest memory until the result has been decoded.
func (s *session) call(ctx context.Context, name string, args []string, ret retKind) (string, error) {
	f, ok := s.lookup(name)
	if !ok {
		return "", errors.NotFound(errors.PhaseHost, "function", name)
	}
	if len(args) != len(f.params) {
		return "", errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("%s takes %d arguments, got %d", f.signature(), len(f.params), len(args)))
	}

	var scope *guest.Scope
	writeString := func(v string) (uint32, error) {
		if s.guest == nil || s.attachErr != nil {
			return 0, s.attachErr
		}
		if scope == nil {
			scope = s.guest.NewScope()
		}
		return s.guest.WriteCString(scope, v)
	}
	defer func() {
		if scope != nil {
			scope.Close()
		}
	}()

	stack := make([]uint64, len(args))
	for i, arg := range args {
		v, err := encodeArg(arg, f.params[i], writeString)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = append([]string{paramName(f.names, i)}, e.Path...)
			}
			return "", err
		}
		stack[i] = v
	}

	s.log.Debug("calling guest function", zap.String("func", name), zap.Strings("args", args))
	results, err := s.mod.ExportedFunction(name).Call(ctx, stack...)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	return s.formatResult(results, f.results, ret)
}

// encodeArg converts one command-line argument for a parameter of type t.
// For i32 parameters "i:<n>" passes an integer, "null" passes a null
// pointer and anything else is written as a C string.
func encodeArg(arg string, t api.ValueType, writeString func(string) (uint32, error)) (uint64, error) {
	bad := func(err error) error {
		return errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Value(arg).
			Cause(err).
			Detail("cannot pass %q as %s", arg, api.ValueTypeName(t)).
			Build()
	}

	switch t {
	case api.ValueTypeI32:
		if n, ok := strings.CutPrefix(arg, "i:"); ok {
			v, err := strconv.ParseInt(n, 0, 32)
			if err != nil {
				u, uerr := strconv.ParseUint(n, 0, 32)
				if uerr != nil {
					return 0, bad(err)
				}
				return api.EncodeU32(uint32(u)), nil
			}
			return api.EncodeI32(int32(v)), nil
		}
		if arg == "null" {
			return 0, nil
		}
		ptr, err := writeString(arg)
		if err != nil {
			return 0, err
		}
		return api.EncodeU32(ptr), nil
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(strings.TrimPrefix(arg, "i:"), 0, 64)
		if err != nil {
			return 0, bad(err)
		}
		return api.EncodeI64(v), nil
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return 0, bad(err)
		}
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, bad(err)
		}
		return api.EncodeF64(v), nil
	default:
		return 0, errors.Unsupported(errors.PhaseHost,
			fmt.Sprintf("parameter type %s", api.ValueTypeName(t)))
	}
}

func (s *session) formatResult(results []uint64, types []api.ValueType, ret retKind) (string, error) {
	if ret == retNone || len(results) == 0 {
		return "", nil
	}
	switch ret {
	case retString:
		if s.guest == nil {
			return "", errors.NotFound(errors.PhaseGuest, "memory export", guest.DefaultMemoryName)
		}
		v, err := s.guest.ReadOptional(api.DecodeU32(results[0]))
		if err != nil {
			return "", err
		}
		if v == nil {
			return "<null>", nil
		}
		return strconv.Quote(*v), nil
	case retI32:
		return strconv.FormatInt(int64(api.DecodeI32(results[0])), 10), nil
	}

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = formatValue(r, types[i])
	}
	return strings.Join(out, ", "), nil
}

func formatValue(v uint64, t api.ValueType) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	default:
		return fmt.Sprintf("%#x", v)
	}
}

// output returns what the guest wrote to stdout and stderr so far and
// resets both.
func (s *session) output() (stdout, stderr string) {
	stdout, stderr = s.stdout.String(), s.stderr.String()
	s.stdout.Reset()
	s.stderr.Reset()
	return stdout, stderr
}

func (s *session) Close(ctx context.Context) {
	if err := s.rt.Close(ctx); err != nil {
		s.log.Warn("close runtime", zap.Error(err))
	}
}
