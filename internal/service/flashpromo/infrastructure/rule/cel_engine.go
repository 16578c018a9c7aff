// internal/service/flashpromo/infrastructure/rule/cel_engine.go
package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// CELRuleEngineAdapter 是 port.RuleEngine 接口的 CEL 实现。
// 分群规则写成 CEL 表达式，如 "fact.total_spent > 500.0 && fact.age_days < 60"。
// 编译结果按表达式缓存，热路径上只做求值。
type CELRuleEngineAdapter struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELRuleEngineAdapter 创建一个新的规则引擎适配器实例。
func NewCELRuleEngineAdapter() (*CELRuleEngineAdapter, error) {
	env, err := cel.NewEnv(
		cel.Variable("fact", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel environment: %w", err)
	}
	return &CELRuleEngineAdapter{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate 对一条表达式求值。表达式必须产出布尔值。
func (a *CELRuleEngineAdapter) Evaluate(expression string, fact map[string]interface{}) (bool, error) {
	program, err := a.compile(expression)
	if err != nil {
		return false, err
	}

	out, _, err := program.Eval(map[string]interface{}{"fact": fact})
	if err != nil {
		return false, fmt.Errorf("rule evaluation failed: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to a boolean", expression)
	}
	return result, nil
}

func (a *CELRuleEngineAdapter) compile(expression string) (cel.Program, error) {
	a.mu.RLock()
	program, ok := a.programs[expression]
	a.mu.RUnlock()
	if ok {
		return program, nil
	}

	ast, issues := a.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid rule expression: %w", issues.Err())
	}
	program, err := a.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule program: %w", err)
	}

	a.mu.Lock()
	a.programs[expression] = program
	a.mu.Unlock()
	return program, nil
}
