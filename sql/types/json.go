package types

import (
	encjson "encoding/json"

	"github.com/vinedb/vine/sql"
)

// JSONValue wraps an already-decoded JSON document (map[string]interface{},
// []interface{}, string, float64, bool, or nil) so JSON-typed row slots are
// distinguishable from a plain string.
type JSONValue struct {
	Doc interface{}
}

func (j JSONValue) String() string {
	b, err := encjson.Marshal(j.Doc)
	if err != nil {
		return "null"
	}
	return string(b)
}

type jsonType struct{}

var JSON sql.Type = jsonType{}

func (jsonType) Tag() sql.ValueTag { return sql.TagJSON }
func (jsonType) String() string    { return "JSON" }
func (jsonType) Zero() interface{} { return JSONValue{Doc: nil} }
func (jsonType) Promote() sql.Type { return jsonType{} }

func (jsonType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch j := v.(type) {
	case JSONValue:
		return j, nil
	case string:
		var doc interface{}
		if err := encjson.Unmarshal([]byte(j), &doc); err != nil {
			return nil, sql.ErrTypeMismatch.New(v, v, "JSON")
		}
		return JSONValue{Doc: doc}, nil
	default:
		return JSONValue{Doc: v}, nil
	}
}

func (jsonType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	aj, _ := a.(JSONValue)
	bj, _ := b.(JSONValue)
	as, bs := aj.String(), bj.String()
	switch {
	case as < bs:
		return -1, nil
	case as > bs:
		return 1, nil
	default:
		return 0, nil
	}
}
