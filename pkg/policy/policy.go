package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// Policy evaluates Rego rules under a single package
type Policy struct {
	query *rego.PreparedEvalQuery
}

// Decision is the outcome of an evaluation. Deny holds reasons for rejecting
// the input; Exclude holds items to leave out.
type Decision struct {
	Deny    []string
	Exclude []string
}

// Denied reports whether any deny rule matched
func (d *Decision) Denied() bool {
	return d != nil && len(d.Deny) > 0
}

// regoPrintHook forwards Rego print() statements to the context logger
type regoPrintHook struct {
	ctx context.Context
}

func (h *regoPrintHook) Print(pctx print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Load reads all .rego files from dir and prepares a query for pkg, e.g.
// "export". It returns nil without error when dir holds no policy files.
func Load(ctx context.Context, dir, pkg string) (*Policy, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", dir))
	}
	if len(files) == 0 {
		return nil, nil
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules[file] = string(data)
	}

	return New(ctx, pkg, modules)
}

// New prepares a query for pkg from in-memory modules keyed by file name
func New(ctx context.Context, pkg string, modules map[string]string) (*Policy, error) {
	query := "data." + pkg
	options := []func(*rego.Rego){
		rego.Query(query),
		rego.EnablePrintStatements(true),
	}
	for name, src := range modules {
		options = append(options, rego.Module(name, src))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare query", goerr.V("query", query))
	}

	return &Policy{query: &prepared}, nil
}

// Evaluate runs the policy against input. Rules named deny and exclude are
// read as sets of strings; anything else is ignored.
func (p *Policy) Evaluate(ctx context.Context, input any) (*Decision, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{ctx: ctx}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate policy")
	}

	decision := &Decision{}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return decision, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("unexpected policy result",
			goerr.V("type", fmt.Sprintf("%T", rs[0].Expressions[0].Value)))
	}

	if decision.Deny, err = stringSet(data["deny"]); err != nil {
		return nil, goerr.Wrap(err, "invalid deny rule")
	}
	if decision.Exclude, err = stringSet(data["exclude"]); err != nil {
		return nil, goerr.Wrap(err, "invalid exclude rule")
	}

	return decision, nil
}

func stringSet(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, goerr.New("rule is not a set", goerr.V("type", fmt.Sprintf("%T", v)))
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, goerr.New("rule value is not a string", goerr.V("value", item))
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
