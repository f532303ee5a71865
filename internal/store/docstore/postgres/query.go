package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

// compilePatch folds ops into one nested jsonb expression over body. The
// returned guard keeps the UPDATE from matching when a path the ops rely on
// is absent from the stored document. Guards run against the stored body, so
// a path written by an earlier op of the same list is not guarded.
func compilePatch(ops []docstore.PatchOperation, args []any) (string, string, []any, error) {
	if err := docstore.ValidatePatch(ops); err != nil {
		return "", "", nil, err
	}

	expr := "body"
	var guard strings.Builder
	var written []writtenPath

	for _, op := range ops {
		segs, _ := docstore.SplitPath(op.Path)

		val, err := json.Marshal(op.Value)
		if err != nil {
			return "", "", nil, fmt.Errorf("encode patch value for %s: %w", op.Path, err)
		}

		last := segs[len(segs)-1]
		parent := segs[:len(segs)-1]

		switch {
		case op.Op == docstore.PatchAdd && isArrayPosition(last):
			insertAfter := false
			target := segs
			if last == "-" {
				target = append(append([]string{}, parent...), "-1")
				insertAfter = true
			}
			args = append(args, pq.Array(target), string(val))
			expr = fmt.Sprintf("jsonb_insert(%s, $%d::text[], $%d::jsonb, %t)", expr, len(args)-1, len(args), insertAfter)

		case op.Op == docstore.PatchReplace:
			args = append(args, pq.Array(segs), string(val))
			expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], $%d::jsonb, false)", expr, len(args)-1, len(args))
			if !createdBy(written, segs) {
				fmt.Fprintf(&guard, "\n\t\t  AND body #> $%d::text[] IS NOT NULL", len(args)-1)
			}
			written = append(written, writtenPath{segs: segs, value: op.Value.Interface()})
			continue

		default:
			args = append(args, pq.Array(segs), string(val))
			expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], $%d::jsonb, true)", expr, len(args)-1, len(args))
		}

		if len(parent) > 0 && !createdBy(written, parent) {
			args = append(args, pq.Array(parent))
			fmt.Fprintf(&guard, "\n\t\t  AND body #> $%d::text[] IS NOT NULL", len(args))
		}

		if !isArrayPosition(last) {
			written = append(written, writtenPath{segs: segs, value: op.Value.Interface()})
		}
	}

	return expr, guard.String(), args, nil
}

type writtenPath struct {
	segs  []string
	value any
}

// createdBy reports whether an earlier op wrote a value that contains path.
func createdBy(written []writtenPath, path []string) bool {
	for i := len(written) - 1; i >= 0; i-- {
		w := written[i]
		if len(w.segs) > len(path) || !slices.Equal(w.segs, path[:len(w.segs)]) {
			continue
		}

		return containsPath(w.value, path[len(w.segs):])
	}

	return false
}

func containsPath(node any, segs []string) bool {
	for _, seg := range segs {
		switch n := node.(type) {
		case map[string]any:
			next, ok := n[seg]
			if !ok {
				return false
			}
			node = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(n) {
				return false
			}
			node = n[i]
		default:
			return false
		}
	}

	return node != nil
}

func isArrayPosition(seg string) bool {
	if seg == "-" {
		return true
	}
	_, err := strconv.Atoi(seg)

	return err == nil
}

// compileFilter renders f as a boolean SQL expression over body. A comparison
// on a missing path is false; a kind mismatch is true only for !=.
func compileFilter(f docstore.Filter, args []any) (string, []any, error) {
	switch t := f.(type) {
	case nil:
		return "TRUE", args, nil

	case docstore.Comparison:
		return compileComparison(t, args)

	case docstore.And, docstore.Or:
		var subs []docstore.Filter
		joiner := " AND "
		if or, ok := t.(docstore.Or); ok {
			subs, joiner = or, " OR "
		} else {
			subs = t.(docstore.And)
		}
		if len(subs) == 0 {
			if joiner == " OR " {
				return "FALSE", args, nil
			}
			return "TRUE", args, nil
		}

		parts := make([]string, 0, len(subs))
		for _, sub := range subs {
			var (
				sql string
				err error
			)
			sql, args, err = compileFilter(sub, args)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
		}
		return "(" + strings.Join(parts, joiner) + ")", args, nil

	default:
		return "", nil, fmt.Errorf("unknown filter %T", f)
	}
}

func compileComparison(c docstore.Comparison, args []any) (string, []any, error) {
	segs, err := docstore.SplitPath(c.Path)
	if err != nil {
		return "", nil, err
	}

	args = append(args, pq.Array(segs))
	p := len(args)
	node := fmt.Sprintf("body #> $%d::text[]", p)
	text := fmt.Sprintf("body #>> $%d::text[]", p)

	mismatch := "FALSE"
	if c.Op == docstore.OpNe {
		mismatch = node + " IS NOT NULL"
	}

	switch c.Value.Kind() {
	case docstore.KindNull:
		return fmt.Sprintf("COALESCE(jsonb_typeof(%s) %s 'null', FALSE)", node, sqlOp(c.Op)), args, nil

	case docstore.KindString:
		s, _ := c.Value.AsString()
		args = append(args, s)
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s) = 'string' THEN %s %s $%d ELSE %s END)",
			node, text, sqlOp(c.Op), len(args), mismatch), args, nil

	case docstore.KindNumber:
		n, _ := c.Value.AsNumber()
		args = append(args, n)
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s) = 'number' THEN (%s)::numeric %s $%d ELSE %s END)",
			node, text, sqlOp(c.Op), len(args), mismatch), args, nil

	case docstore.KindBool:
		b, _ := c.Value.AsBool()
		args = append(args, b)
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s) = 'boolean' THEN (%s)::boolean %s $%d ELSE %s END)",
			node, text, sqlOp(c.Op), len(args), mismatch), args, nil

	default:
		val, err := json.Marshal(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value for %s: %w", c.Path, err)
		}
		args = append(args, string(val))
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN FALSE ELSE %s %s $%d::jsonb END)",
			node, node, sqlOp(c.Op), len(args)), args, nil
	}
}

func sqlOp(op docstore.CompareOp) string {
	if op == docstore.OpNe {
		return "<>"
	}

	return string(op)
}

var paramRe = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)

// bindParams rewrites @name placeholders to positional ones, reusing one
// position per distinct name.
func bindParams(text string, params map[string]any, args []any) (string, []any, error) {
	positions := make(map[string]int)

	var missing string
	out := paramRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1:]
		if pos, ok := positions[name]; ok {
			return "$" + strconv.Itoa(pos)
		}

		v, ok := params[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		if dv, ok := v.(docstore.Value); ok {
			v = dv.Interface()
		}

		args = append(args, v)
		positions[name] = len(args)

		return "$" + strconv.Itoa(len(args))
	})

	if missing != "" {
		return "", nil, fmt.Errorf("query parameter @%s is not bound", missing)
	}

	return out, args, nil
}

type pager struct {
	c       *Container
	q       docstore.Query
	started bool
	done    bool
	query   string
	args    []any
	offset  int
}

func (p *pager) More() bool {
	return !p.done
}

func (p *pager) NextPage(ctx context.Context) ([][]byte, error) {
	if p.done {
		return nil, nil
	}

	if !p.started {
		p.started = true
		if err := p.build(); err != nil {
			p.done = true
			return nil, err
		}
	}

	size := p.q.EffectivePageSize()
	if p.q.Limit > 0 && p.q.Limit-p.offset < size {
		size = p.q.Limit - p.offset
	}

	args := append(append([]any{}, p.args...), size, p.offset)
	query := fmt.Sprintf("%s\n\t\tLIMIT $%d OFFSET $%d;", p.query, len(args)-1, len(args))

	rows, err := p.c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var page [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		page = append(page, body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	p.offset += len(page)
	if len(page) < size || (p.q.Limit > 0 && p.offset >= p.q.Limit) {
		p.done = true
	}

	return page, nil
}

func (p *pager) build() error {
	args := []any{p.c.collection}

	var where strings.Builder
	where.WriteString(`
		SELECT body
		FROM documents
		WHERE collection = $1
		  AND (expires_at IS NULL OR expires_at > NOW())`)

	if p.q.PartitionKey != "" {
		args = append(args, p.q.PartitionKey)
		fmt.Fprintf(&where, "\n\t\t  AND partition_key = $%d", len(args))
	}

	if p.q.Text != "" {
		text, bound, err := bindParams(p.q.Text, p.q.Params, args)
		if err != nil {
			return err
		}
		args = bound
		fmt.Fprintf(&where, "\n\t\t  AND (%s)", text)
	} else if p.q.Filter != nil {
		if err := docstore.ValidateFilter(p.q.Filter); err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}

		sql, bound, err := compileFilter(p.q.Filter, args)
		if err != nil {
			return err
		}
		args = bound
		fmt.Fprintf(&where, "\n\t\t  AND %s", sql)
	}

	where.WriteString("\n\t\tORDER BY partition_key, id")

	p.query = where.String()
	p.args = args

	return nil
}
