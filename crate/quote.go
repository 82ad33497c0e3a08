package crate

import (
	"fmt"
	"strings"
)

// PostgreSQL reserved words; the target database reserves all of them.
var postgresReserved = []string{
	"all", "analyse", "analyze", "and", "any", "array", "as", "asc",
	"asymmetric", "authorization", "between", "binary", "both", "case",
	"cast", "check", "collate", "column", "constraint", "create", "cross",
	"current_catalog", "current_date", "current_role", "current_schema",
	"current_time", "current_timestamp", "current_user", "default",
	"deferrable", "desc", "distinct", "do", "else", "end", "except",
	"false", "fetch", "for", "foreign", "freeze", "from", "full", "grant",
	"group", "having", "ilike", "in", "initially", "inner", "intersect",
	"into", "is", "isnull", "join", "leading", "left", "like", "limit",
	"localtime", "localtimestamp", "natural", "new", "not", "notnull",
	"null", "of", "off", "offset", "old", "on", "only", "or", "order",
	"outer", "over", "overlaps", "placing", "primary", "references",
	"returning", "right", "select", "session_user", "similar", "some",
	"symmetric", "table", "then", "to", "trailing", "true", "union",
	"unique", "user", "using", "variadic", "verbose", "when", "where",
	"window", "with",
}

// Words reserved by the target database in addition to PostgreSQL's.
var crateReserved = []string{
	"add", "alter", "between", "by", "called", "costs", "delete", "deny",
	"directory", "drop", "escape", "exists", "extract", "first", "function",
	"if", "index", "input", "insert", "last", "match", "nulls", "object",
	"persistent", "recursive", "reset", "returns", "revoke", "set",
	"stratify", "transient", "try_cast", "unbounded", "update",
}

var reservedWords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(postgresReserved)+len(crateReserved))
	for _, w := range postgresReserved {
		m[w] = struct{}{}
	}
	for _, w := range crateReserved {
		m[w] = struct{}{}
	}
	return m
}()

// IsReserved reports whether word is a reserved word, case-insensitively.
func IsReserved(word string) bool {
	_, ok := reservedWords[strings.ToLower(word)]
	return ok
}

func isLegalChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '$'
}

// RequiresQuotes reports whether name must be quoted to be read back as is:
// reserved words, names with upper-case letters or characters outside
// [a-z0-9_$], and names starting with a digit, '$' or '_'.
func RequiresQuotes(name string) bool {
	if name == "" {
		return true
	}
	if IsReserved(name) || strings.ToLower(name) != name {
		return true
	}
	first := name[0]
	if first >= '0' && first <= '9' || first == '$' || first == '_' {
		return true
	}
	for i := 0; i < len(name); i++ {
		if !isLegalChar(name[i]) {
			return true
		}
	}
	return false
}

// QuoteIdentifier quotes name when RequiresQuotes says so.
func QuoteIdentifier(name string) string {
	if !RequiresQuotes(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteRelationName quotes each part of a simple or qualified relation name.
// Input that starts or ends with a double quote is returned unchanged.
func QuoteRelationName(ident string) (string, error) {
	if strings.HasPrefix(ident, `"`) || strings.HasSuffix(ident, `"`) {
		return ident, nil
	}

	parts := strings.Split(ident, ".")
	if len(parts) > 3 {
		return "", fmt.Errorf("invalid relation name, too many parts: %s", ident)
	}
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// quoteLiteral renders s as a single-quoted string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
