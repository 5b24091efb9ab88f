package types

import "github.com/vinedb/vine/sql"

type nullType struct{}

// Null is the type of the literal NULL, used only for untyped NULL
// constants before they're bound against a column's declared type.
var Null sql.Type = nullType{}

func (nullType) Tag() sql.ValueTag       { return sql.TagNull }
func (nullType) String() string          { return "NULL" }
func (nullType) Zero() interface{}       { return nil }
func (nullType) Promote() sql.Type       { return nullType{} }
func (nullType) Convert(v interface{}) (interface{}, error) { return nil, nil }
func (nullType) Compare(a, b interface{}) (int, error)       { return 0, nil }
