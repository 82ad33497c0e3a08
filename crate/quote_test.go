package crate

import "testing"

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"my_table", "my_table"},
		{"my-table", `"my-table"`},
		{"MyTable", `"MyTable"`},
		{"table", `"table"`},
		{"true", `"true"`},
		{"select", `"select"`},
		{"object", `"object"`},
		{"match", `"match"`},
		{"_id", `"_id"`},
		{"1col", `"1col"`},
		{"$x", `"$x"`},
		{"col$1", "col$1"},
		{`we"ird`, `"we""ird"`},
		{"", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteIdentifier(tt.name); got != tt.want {
				t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestQuoteRelationName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my_table", "my_table"},
		{"my-table", `"my-table"`},
		{"MyTable", `"MyTable"`},
		{"my_schema.my_table", "my_schema.my_table"},
		{"my-schema.my_table", `"my-schema".my_table`},
		{"crate.doc.t01", "crate.doc.t01"},
		{"table", `"table"`},
		{"true", `"true"`},
		{"select", `"select"`},
		{`"Foo"`, `"Foo"`},
		{`"foo.bar"`, `"foo.bar"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := QuoteRelationName(tt.in)
			if err != nil {
				t.Fatalf("QuoteRelationName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("QuoteRelationName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteRelationName_Idempotent(t *testing.T) {
	for _, in := range []string{"my-table", "MyTable", "my-schema.my_table", "select"} {
		once, err := QuoteRelationName(in)
		if err != nil {
			t.Fatalf("QuoteRelationName(%q) error = %v", in, err)
		}
		twice, err := QuoteRelationName(once)
		if err != nil {
			t.Fatalf("QuoteRelationName(%q) error = %v", once, err)
		}
		if once != twice && once[0] == '"' {
			t.Errorf("not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestQuoteRelationName_TooManyParts(t *testing.T) {
	_, err := QuoteRelationName("a.b.c.d")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "invalid relation name, too many parts: a.b.c.d" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsReserved(t *testing.T) {
	for _, w := range []string{"SELECT", "update", "try_cast", "ilike"} {
		if !IsReserved(w) {
			t.Errorf("IsReserved(%q) = false", w)
		}
	}
	if IsReserved("name") {
		t.Error(`IsReserved("name") = true`)
	}
}
