package script

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/table"
	"github.com/dshills/cellstore/internal/value"
)

// maxExact is the largest integer a Lua number holds exactly.
const maxExact = 1 << 53

// checkHeader reads a header given as a label or a list of labels.
func checkHeader(L *lua.LState, n int) snapshot.Header {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return snapshot.NewHeader(string(v))
	case *lua.LTable:
		labels := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			labels = append(labels, L.ToStringMeta(v.RawGetInt(i)).String())
		}
		if len(labels) == 0 {
			L.ArgError(n, "empty header")
		}
		return snapshot.NewHeader(labels...)
	default:
		L.ArgError(n, "header must be a string or a list of strings")
		return nil
	}
}

// toLua converts a cell value. BigInt and BigDecimal become strings.
func toLua(v value.Value) lua.LValue {
	switch v.Kind() {
	case value.KindText:
		s, _ := v.AsText()
		return lua.LString(s)
	case value.KindInteger:
		i, _ := v.AsInt()
		return lua.LNumber(i)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return lua.LNumber(f)
	case value.KindBigInt, value.KindBigDecimal:
		return lua.LString(v.String())
	default:
		return lua.LNil
	}
}

// fromLua converts a Lua value. Integral numbers become Integer.
func fromLua(lv lua.LValue) (value.Value, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return value.Empty, nil
	case lua.LString:
		return value.Text(string(v)), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) <= maxExact {
			return value.Int(int64(f)), nil
		}
		return value.Float(f), nil
	case lua.LBool:
		if v {
			return value.Text("true"), nil
		}
		return value.Text("false"), nil
	default:
		return value.Empty, fmt.Errorf("cannot store a %s in a cell", lv.Type())
	}
}

func eventsToLua(L *lua.LState, events []table.Event) *lua.LTable {
	list := L.CreateTable(len(events), 0)
	for _, e := range events {
		labels := L.CreateTable(len(e.New.Header), 0)
		for _, l := range e.New.Header {
			labels.Append(lua.LString(l))
		}
		t := L.CreateTable(0, 6)
		t.RawSetString("header", lua.LString(e.New.Header.Path("/")))
		t.RawSetString("labels", labels)
		t.RawSetString("row", lua.LNumber(e.New.Index))
		t.RawSetString("old", toLua(e.Old.Value))
		t.RawSetString("new", toLua(e.New.Value))
		t.RawSetString("version", lua.LNumber(e.Version()))
		list.Append(t)
	}
	return list
}
