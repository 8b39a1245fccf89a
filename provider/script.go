package provider

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/rule"
)

// Rule scripts describe tables for code that carries no call frame
// information, such as JIT emitted code. A script is Starlark; it must bind
// the global 'tables' to a list of table() values:
//
//	tables = [
//	    table(0x1000, 0x1100, cfa = reg("rsp", 16), rules = {
//	        "rip": saved(-8),
//	        "rbp": saved(-16),
//	    }),
//	]
//
// Builtins:
//
//	table(low, high, cfa, rules)  rules for pc in [low, high)
//	reg(name, offset=0)           name+offset; "cfa" with an offset loads
//	saved(offset)                 word at cfa+offset
//	same()                        callee value
//	undefined()                   not recoverable
//	expr(code, indirect=False)    DWARF expression, bytes or list of ints
//
// The predeclared 'arch' is the architecture name.

type ruleValue struct {
	rule rule.Rule
	arch *regs.Arch
}

var _ starlark.Value = ruleValue{}

func (rv ruleValue) String() string        { return rv.rule.Format(rv.arch) }
func (rv ruleValue) Type() string          { return "rule" }
func (rv ruleValue) Freeze()               {}
func (rv ruleValue) Truth() starlark.Bool  { return starlark.True }
func (rv ruleValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: rule") }

type tableValue struct {
	table *rule.Table
}

var _ starlark.Value = tableValue{}

func (tv tableValue) String() string {
	return fmt.Sprintf("table(0x%x, 0x%x)", tv.table.Low, tv.table.High)
}
func (tv tableValue) Type() string          { return "table" }
func (tv tableValue) Freeze()               {}
func (tv tableValue) Truth() starlark.Bool  { return starlark.True }
func (tv tableValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }

// scriptBuiltins binds the rule constructors to an architecture.
type scriptBuiltins struct {
	arch *regs.Arch
}

func (sb *scriptBuiltins) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"arch":      starlark.String(sb.arch.Name),
		"table":     starlark.NewBuiltin("table", sb.table),
		"reg":       starlark.NewBuiltin("reg", sb.reg),
		"saved":     starlark.NewBuiltin("saved", sb.saved),
		"same":      starlark.NewBuiltin("same", sb.same),
		"undefined": starlark.NewBuiltin("undefined", sb.undefined),
		"expr":      starlark.NewBuiltin("expr", sb.expr),
	}
}

func (sb *scriptBuiltins) wrap(r rule.Rule) starlark.Value {
	return ruleValue{rule: r, arch: sb.arch}
}

func toUint64(fn string, v starlark.Int) (value uint64, err error) {
	value, ok := v.Uint64()
	if !ok {
		err = fmt.Errorf("%s: %v out of range", fn, v)
	}
	return
}

func toInt64(fn string, v starlark.Int) (value int64, err error) {
	value, ok := v.Int64()
	if !ok {
		err = fmt.Errorf("%s: %v out of range", fn, v)
	}
	return
}

func (sb *scriptBuiltins) table(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var low, high starlark.Int
	var cfa starlark.Value
	var rules *starlark.Dict
	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "low", &low, "high", &high, "cfa", &cfa, "rules?", &rules)
	if err != nil {
		return nil, err
	}

	table := &rule.Table{
		Rules: map[regs.Register]rule.Rule{},
	}
	if table.Low, err = toUint64(fn.Name(), low); err != nil {
		return nil, err
	}
	if table.High, err = toUint64(fn.Name(), high); err != nil {
		return nil, err
	}

	rv, ok := cfa.(ruleValue)
	if !ok {
		return nil, fmt.Errorf("%s: cfa: got %s, want rule", fn.Name(), cfa.Type())
	}
	table.CFA = rv.rule

	if rules == nil {
		return tableValue{table: table}, nil
	}

	for _, item := range rules.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("%s: rules: got %s key, want string", fn.Name(), item[0].Type())
		}
		reg, err := sb.arch.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		if reg == regs.CFA {
			return nil, fmt.Errorf("%s: rules: cfa is given by the cfa argument", fn.Name())
		}
		rv, ok := item[1].(ruleValue)
		if !ok {
			return nil, fmt.Errorf("%s: rules[%q]: got %s, want rule", fn.Name(), name, item[1].Type())
		}
		table.Rules[reg] = rv.rule
	}

	return tableValue{table: table}, nil
}

func (sb *scriptBuiltins) reg(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	offset := starlark.MakeInt(0)
	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "offset?", &offset)
	if err != nil {
		return nil, err
	}

	reg, err := sb.arch.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	off, err := toInt64(fn.Name(), offset)
	if err != nil {
		return nil, err
	}

	return sb.wrap(rule.RegisterPlusOffset(reg, off)), nil
}

func (sb *scriptBuiltins) saved(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var offset starlark.Int
	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "offset", &offset)
	if err != nil {
		return nil, err
	}

	off, err := toInt64(fn.Name(), offset)
	if err != nil {
		return nil, err
	}

	return sb.wrap(rule.SavedAt(off)), nil
}

func (sb *scriptBuiltins) same(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return sb.wrap(rule.SameValue()), nil
}

func (sb *scriptBuiltins) undefined(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return sb.wrap(rule.Undefined()), nil
}

func (sb *scriptBuiltins) expr(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var code starlark.Value
	var indirect bool
	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "code", &code, "indirect?", &indirect)
	if err != nil {
		return nil, err
	}

	var bytecode []byte
	switch v := code.(type) {
	case starlark.Bytes:
		bytecode = []byte(v)
	case *starlark.List:
		for n := range v.Len() {
			b, err := starlark.AsInt32(v.Index(n))
			if err != nil || b < 0 || b > 0xff {
				return nil, fmt.Errorf("%s: code[%d]: want byte", fn.Name(), n)
			}
			bytecode = append(bytecode, byte(b))
		}
	default:
		return nil, fmt.Errorf("%s: code: got %s, want bytes or list", fn.Name(), code.Type())
	}

	if indirect {
		return sb.wrap(rule.SavedAtExpression(bytecode)), nil
	}
	return sb.wrap(rule.Expression(bytecode)), nil
}

// ParseScript evaluates a rule script. src is as for
// starlark.ExecFileOptions: nil reads the file called name.
func ParseScript(name string, src any, arch *regs.Arch) (st *Static, err error) {
	sb := &scriptBuiltins{arch: arch}

	thread := starlark.Thread{Name: name}
	opts := syntax.FileOptions{
		TopLevelControl: true,
		GlobalReassign:  true,
	}

	globals, err := starlark.ExecFileOptions(&opts, &thread, name, src, sb.predeclared())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScript, err)
	}

	st_tables, ok := globals["tables"]
	if !ok {
		return nil, fmt.Errorf("%w: %v: 'tables' not defined", ErrScript, name)
	}
	iterable, ok := st_tables.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%w: %v: 'tables' is %s, want list", ErrScript, name, st_tables.Type())
	}

	var tables []*rule.Table
	iter := iterable.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		tv, ok := item.(tableValue)
		if !ok {
			return nil, fmt.Errorf("%w: %v: 'tables' holds %s, want table", ErrScript, name, item.Type())
		}
		tables = append(tables, tv.table)
	}

	st, err = NewStatic(tables...)
	if err != nil {
		err = fmt.Errorf("%w: %v: %w", ErrScript, name, err)
	}
	return
}

// LoadScript evaluates the rule script at path.
func LoadScript(path string, arch *regs.Arch) (st *Static, err error) {
	return ParseScript(path, nil, arch)
}
