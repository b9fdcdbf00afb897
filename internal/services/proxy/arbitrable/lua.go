package arbitrable

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// luaEntryPoint is the function every contract script defines.
const luaEntryPoint = "rule"

// DefaultLuaStepBudget caps the instructions one settlement may run.
const DefaultLuaStepBudget = 1_000_000

const luaHookInterval = 1000

// ErrRulingDeclined is returned when a script's rule function returns false.
var ErrRulingDeclined = errors.New("arbitrable declined the ruling")

// LuaContract runs a settlement script. Each call gets a fresh interpreter
// with only the base, string, table and math libraries; file and module
// loading is removed.
//
// The script receives the dispute id as a decimal string, since Lua numbers
// cannot hold every 64-bit id, and the ruling as a number. Calling error()
// or returning false aborts the execution.
type LuaContract struct {
	name   string
	source string
	// StepBudget bounds executed instructions; zero means DefaultLuaStepBudget.
	StepBudget int
}

// NewLuaContract compiles source and checks it defines rule.
func NewLuaContract(name, source string) (*LuaContract, error) {
	contract := &LuaContract{name: name, source: source}
	l, err := contract.load(context.Background(), "")
	if err != nil {
		return nil, err
	}
	l.Global(luaEntryPoint)
	defined := l.IsFunction(-1)
	l.Pop(1)
	if !defined {
		return nil, fmt.Errorf("lua contract %s: global function %s is not defined", name, luaEntryPoint)
	}
	return contract, nil
}

// LoadLuaContract reads and compiles the script at path.
func LoadLuaContract(path string) (*LuaContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lua contract: %w", err)
	}
	return NewLuaContract(filepath.Base(path), string(data))
}

// Name returns the script name used in errors.
func (c *LuaContract) Name() string {
	return c.name
}

// Rule implements Invoker.
func (c *LuaContract) Rule(ctx context.Context, target identity.Address, disputeID uint64, ruling uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l, err := c.load(ctx, target.String())
	if err != nil {
		return err
	}
	l.Global(luaEntryPoint)
	if !l.IsFunction(-1) {
		return fmt.Errorf("lua contract %s: global function %s is not defined", c.name, luaEntryPoint)
	}
	l.PushString(strconv.FormatUint(disputeID, 10))
	l.PushInteger(int(ruling))
	if err := l.ProtectedCall(2, 1, 0); err != nil {
		return fmt.Errorf("lua contract %s: %w", c.name, err)
	}
	if l.IsBoolean(-1) && !l.ToBoolean(-1) {
		return fmt.Errorf("lua contract %s: %w", c.name, ErrRulingDeclined)
	}
	return nil
}

// load builds a sandboxed state and runs the script's top-level chunk.
func (c *LuaContract) load(ctx context.Context, target string) (*lua.State, error) {
	l := lua.NewState()
	for _, lib := range []struct {
		name string
		open lua.Function
	}{
		{"_G", lua.BaseOpen},
		{"string", lua.StringOpen},
		{"table", lua.TableOpen},
		{"math", lua.MathOpen},
	} {
		lua.Require(l, lib.name, lib.open, true)
		l.Pop(1)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "collectgarbage"} {
		l.PushNil()
		l.SetGlobal(name)
	}
	l.Register("print", c.print)
	l.PushString(target)
	l.SetGlobal("target")

	budget := c.StepBudget
	if budget <= 0 {
		budget = DefaultLuaStepBudget
	}
	steps := 0
	lua.SetDebugHook(l, func(state *lua.State, _ lua.Debug) {
		steps += luaHookInterval
		if steps > budget {
			lua.Errorf(state, "step budget of %d exceeded", budget)
		}
		if err := ctx.Err(); err != nil {
			lua.Errorf(state, "%s", err.Error())
		}
	}, lua.MaskCount, luaHookInterval)

	if err := lua.LoadBuffer(l, c.source, c.name, "t"); err != nil {
		return nil, fmt.Errorf("lua contract %s: compile: %w", c.name, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("lua contract %s: load: %w", c.name, err)
	}
	return l, nil
}

func (c *LuaContract) print(l *lua.State) int {
	n := l.Top()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, _ := lua.ToStringMeta(l, i)
		l.Pop(1)
		parts = append(parts, s)
	}
	log.Printf("lua contract %s: %s", c.name, strings.Join(parts, " "))
	return 0
}
