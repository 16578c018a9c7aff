// internal/service/flashpromo/domain/port/rule.go
package port

// RuleEngine 对一条规则表达式求值。fact 是扁平的用户事实快照
// （如 total_spent、age_days）。用于可配置的自定义分群规则。
type RuleEngine interface {
	Evaluate(expression string, fact map[string]interface{}) (bool, error)
}
