package machine

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/langerrors"
)

// HostInterop is the single reflection capability the F-VM's
// FieldReference/MethodCall/Constructor/ComponentLookup opcodes dispatch
// through. The embedding runtime supplies an implementation (or leaves it
// nil, in which case those opcodes fail with TypeError); this keeps the
// core VM free of any real reflection package.
type HostInterop interface {
	Field(target interface{}, name string) (interface{}, error)
	Method(target interface{}, name string, args []interface{}) (interface{}, error)
	Construct(typeName string, args []interface{}) (interface{}, error)
	Component(target interface{}, name string) (interface{}, error)
}

// SetHost registers h as the machine's HostInterop; until it is called the
// host is nil.
func (m *Machine) SetHost(h HostInterop) { m.host = h }

func toIfaces(vs []cell.Value) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		switch v.Tag {
		case cell.Int:
			out[i] = v.I
		case cell.Float:
			out[i] = v.F
		case cell.Bool:
			out[i] = v.B
		default:
			out[i] = v.Obj
		}
	}
	return out
}

func nameOf(v cell.Value) string {
	if v.Tag == cell.Ref {
		if s, ok := v.Obj.(interface{ Name() string }); ok {
			return s.Name()
		}
	}
	return v.String()
}

func (m *Machine) hostFieldReference(target, name cell.Value) (cell.Value, error) {
	if m.host == nil {
		return cell.Value{}, langerrors.TypeError("no host interop registered for field reference")
	}
	v, err := m.host.Field(target.Obj, nameOf(name))
	if err != nil {
		return cell.Value{}, err
	}
	return cell.SetReference(v), nil
}

func (m *Machine) hostMethodCall(target, name cell.Value, args []cell.Value) (cell.Value, error) {
	if m.host == nil {
		return cell.Value{}, langerrors.TypeError("no host interop registered for method call")
	}
	v, err := m.host.Method(target.Obj, nameOf(name), toIfaces(args))
	if err != nil {
		return cell.Value{}, err
	}
	return cell.SetReference(v), nil
}

func (m *Machine) hostConstructor(typ cell.Value, args []cell.Value) (cell.Value, error) {
	if m.host == nil {
		return cell.Value{}, langerrors.TypeError("no host interop registered for constructor")
	}
	v, err := m.host.Construct(nameOf(typ), toIfaces(args))
	if err != nil {
		return cell.Value{}, err
	}
	return cell.SetReference(v), nil
}

func (m *Machine) hostComponentLookup(target, name cell.Value) (cell.Value, error) {
	if m.host == nil {
		return cell.Value{}, langerrors.TypeError("no host interop registered for component lookup")
	}
	v, err := m.host.Component(target.Obj, nameOf(name))
	if err != nil {
		return cell.Value{}, err
	}
	return cell.SetReference(v), nil
}
