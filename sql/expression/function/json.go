package function

import (
	"strconv"
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerJSONFunctions(r *Registry) {
	r.Register(&jsonExtractFunc{})
	r.Register(&jsonObjectFunc{})
	r.Register(&jsonArrayFunc{})
	r.Register(&jsonContainsFunc{})
}

// jsonPath navigates a decoded JSON document using MySQL's simplified
// "$.a.b[2]" path dialect: dotted member access and bracketed array
// indices. Returns ok=false if any path segment doesn't resolve.
func jsonPath(doc interface{}, path string) (interface{}, bool) {
	path = strings.TrimPrefix(path, "$")
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name := seg
		var indices []int
		for {
			open := strings.IndexByte(name, '[')
			if open < 0 {
				break
			}
			shut := strings.IndexByte(name[open:], ']')
			if shut < 0 {
				break
			}
			idxStr := name[open+1 : open+shut]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			indices = append(indices, idx)
			name = name[:open] + name[open+shut+1:]
		}
		if name != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			cur, ok = m[name]
			if !ok {
				return nil, false
			}
		}
		for _, idx := range indices {
			arr, ok := cur.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

type jsonExtractFunc struct {
	doc  sql.Expression
	path sql.Expression
}

func (f *jsonExtractFunc) FunctionName() string { return "json_extract" }
func (f *jsonExtractFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("json_extract", "2", len(args))
	}
	return &jsonExtractFunc{doc: args[0], path: args[1]}, nil
}
func (f *jsonExtractFunc) Type() sql.Type            { return types.JSON }
func (f *jsonExtractFunc) Resolved() bool            { return f.doc.Resolved() && f.path.Resolved() }
func (f *jsonExtractFunc) Children() []sql.Expression { return []sql.Expression{f.doc, f.path} }
func (f *jsonExtractFunc) String() string             { return "json_extract(" + f.doc.String() + ", " + f.path.String() + ")" }
func (f *jsonExtractFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("json_extract takes 2 children")
	}
	return &jsonExtractFunc{doc: children[0], path: children[1]}, nil
}
func (f *jsonExtractFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	dv, err := f.doc.Eval(ctx, row)
	if err != nil || dv == nil {
		return nil, err
	}
	converted, err := types.JSON.Convert(dv)
	if err != nil {
		return nil, err
	}
	jv := converted.(types.JSONValue)
	pv, err := f.path.Eval(ctx, row)
	if err != nil || pv == nil {
		return nil, err
	}
	path, err := asString(pv)
	if err != nil {
		return nil, err
	}
	result, ok := jsonPath(jv.Doc, path)
	if !ok {
		return nil, nil
	}
	return types.JSONValue{Doc: result}, nil
}

// jsonObjectFunc implements JSON_OBJECT(k1, v1, k2, v2, ...).
type jsonObjectFunc struct {
	args []sql.Expression
}

func (f *jsonObjectFunc) FunctionName() string { return "json_object" }
func (f *jsonObjectFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args)%2 != 0 {
		return nil, sql.ErrInvalidArgumentCount.New("json_object", "an even number of", len(args))
	}
	return &jsonObjectFunc{args: args}, nil
}
func (f *jsonObjectFunc) Type() sql.Type { return types.JSON }
func (f *jsonObjectFunc) Resolved() bool {
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *jsonObjectFunc) Children() []sql.Expression { return f.args }
func (f *jsonObjectFunc) String() string              { return "json_object(...)" }
func (f *jsonObjectFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &jsonObjectFunc{args: children}, nil
}
func (f *jsonObjectFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	doc := make(map[string]interface{}, len(f.args)/2)
	for i := 0; i < len(f.args); i += 2 {
		kv, err := f.args[i].Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		key, err := asString(kv)
		if err != nil {
			return nil, err
		}
		vv, err := f.args[i+1].Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		doc[key] = vv
	}
	return types.JSONValue{Doc: doc}, nil
}

// jsonArrayFunc implements JSON_ARRAY(v1, v2, ...).
type jsonArrayFunc struct{ args []sql.Expression }

func (f *jsonArrayFunc) FunctionName() string { return "json_array" }
func (f *jsonArrayFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	return &jsonArrayFunc{args: args}, nil
}
func (f *jsonArrayFunc) Type() sql.Type { return types.JSON }
func (f *jsonArrayFunc) Resolved() bool {
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *jsonArrayFunc) Children() []sql.Expression { return f.args }
func (f *jsonArrayFunc) String() string              { return "json_array(...)" }
func (f *jsonArrayFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &jsonArrayFunc{args: children}, nil
}
func (f *jsonArrayFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	arr := make([]interface{}, len(f.args))
	for i, a := range f.args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}
	return types.JSONValue{Doc: arr}, nil
}

// jsonContainsFunc implements JSON_CONTAINS(target, candidate).
type jsonContainsFunc struct{ target, candidate sql.Expression }

func (f *jsonContainsFunc) FunctionName() string { return "json_contains" }
func (f *jsonContainsFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("json_contains", "2", len(args))
	}
	return &jsonContainsFunc{target: args[0], candidate: args[1]}, nil
}
func (f *jsonContainsFunc) Type() sql.Type { return types.Boolean }
func (f *jsonContainsFunc) Resolved() bool { return f.target.Resolved() && f.candidate.Resolved() }
func (f *jsonContainsFunc) Children() []sql.Expression {
	return []sql.Expression{f.target, f.candidate}
}
func (f *jsonContainsFunc) String() string { return "json_contains(...)" }
func (f *jsonContainsFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("json_contains takes 2 children")
	}
	return &jsonContainsFunc{target: children[0], candidate: children[1]}, nil
}
func (f *jsonContainsFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	tv, err := f.target.Eval(ctx, row)
	if err != nil || tv == nil {
		return nil, err
	}
	tc, err := types.JSON.Convert(tv)
	if err != nil {
		return nil, err
	}
	cv, err := f.candidate.Eval(ctx, row)
	if err != nil || cv == nil {
		return nil, err
	}
	cc, err := types.JSON.Convert(cv)
	if err != nil {
		return nil, err
	}
	return jsonContains(tc.(types.JSONValue).Doc, cc.(types.JSONValue).Doc), nil
}

func jsonContains(target, candidate interface{}) bool {
	switch t := target.(type) {
	case []interface{}:
		for _, elem := range t {
			if jsonContains(elem, candidate) {
				return true
			}
		}
		return false
	case map[string]interface{}:
		cm, ok := candidate.(map[string]interface{})
		if !ok {
			return false
		}
		for k, cv := range cm {
			tv, ok := t[k]
			if !ok || !jsonContains(tv, cv) {
				return false
			}
		}
		return true
	default:
		return target == candidate
	}
}
