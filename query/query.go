package query

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/relboost"
	"github.com/xh3b4sd/relboost/registry"
)

type Query struct {
	// Set is the required split the feature table is generated for, one of
	// train, val or test.
	Set string
	// Sub is the optional number of train rows to restrict feature generation
	// to. Zero means all rows.
	Sub int
	// Tem is the required SQL template, usually a task's feats.sql. The
	// template sees exactly the fields below and nothing else.
	//
	//	drop table if exists engage_{{ .Set }}_feats;
	//	create table engage_{{ .Set }}_feats as
	//	select * from user_engagement_{{ .Set }}
	//	{{- if and (eq .Set "train") (gt .Subsample 0) }}
	//	limit {{ .Subsample }}
	//	{{- end }}
	Tem string
}

func (q *Query) Execute() ([]byte, error) {
	{
		q.configs()
	}

	{
		err := q.verify()
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var buf bytes.Buffer
	{
		t, err := template.New("query").Option("missingkey=error").Funcs(q.funcs()).Parse(q.Tem)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		err = t.Execute(&buf, q.mapping())
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	return buf.Bytes(), nil
}

func (q *Query) configs() {
	if q.Set == "" {
		panic("Query.Set must not be empty")
	}

	if q.Tem == "" {
		panic("Query.Tem must not be empty")
	}
}

func (q *Query) funcs() template.FuncMap {
	fun := sprig.TxtFuncMap()

	// Functions reaching into the process environment or the filesystem have
	// no place in rendered SQL.
	for _, k := range []string{"env", "expandenv", "getHostByName"} {
		delete(fun, k)
	}

	fun["ident"] = ident

	return fun
}

func (q *Query) mapping() map[string]interface{} {
	return map[string]interface{}{
		"Set":       q.Set,
		"Subsample": q.Sub,
	}
}

func (q *Query) verify() error {
	var ok bool
	for _, s := range relboost.Splits {
		if q.Set == s {
			ok = true
		}
	}

	if !ok {
		return tracer.Maskf(invalidContextError, "Query.Set must be one of %v, got %q", relboost.Splits, q.Set)
	}

	if q.Sub < 0 {
		return tracer.Maskf(invalidContextError, "Query.Sub must not be negative, got %d", q.Sub)
	}

	return nil
}

// ident passes through plain SQL identifiers and fails rendering for anything
// else, so that template authors can interpolate names safely.
//
//	select * from {{ ident (printf "%s_%s" "user_engagement" .Set) }}
func ident(s string) (string, error) {
	if !registry.Identifier(s) {
		return "", tracer.Maskf(invalidIdentifierError, "%q", s)
	}

	return s, nil
}
