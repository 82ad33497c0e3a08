package options_test

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/options"
)

func TestFromURL(t *testing.T) {
	params := url.Values{}
	for k, v := range map[string]string{
		"if-exists":                     "replace",
		"partitioned-by":                "time",
		"clustered-by":                  `"A"`,
		"replicas":                      "0-2",
		"shards":                        "2",
		"durability":                    "async",
		"max-fields":                    "42",
		"column-policy":                 "dynamic",
		"refresh-interval":              "500",
		"routing-shards":                "5",
		"disable-read":                  "true",
		"disable-write":                 "true",
		"disable-metadata":              "true",
		"read-only":                     "true",
		"read-only-allow-delete":        "true",
		"soft-deletes-enable":           "false",
		"soft-deletes-retention-period": "48h",
		"compression":                   "deflate",
	} {
		params.Set(k, v)
	}

	got, err := options.FromURL("crate://crate@localhost:4200/testdrive/demo?" + params.Encode())
	if err != nil {
		t.Fatalf("FromURL() error = %v", err)
	}

	want := map[string]any{
		`crate_"blocks.metadata"`:                     "true",
		`crate_"blocks.read"`:                         "true",
		`crate_"blocks.read_only"`:                    "true",
		`crate_"blocks.read_only_allow_delete"`:       "true",
		`crate_"blocks.write"`:                        "true",
		`crate_"mapping.total_fields.limit"`:          42,
		`crate_"soft_deletes.enabled"`:                "false",
		`crate_"soft_deletes.retention_lease.period"`: "'48h'",
		`crate_"translog.durability"`:                 "'async'",
		"crate_clustered_by":                          `"A"`,
		"crate_codec":                                 "'best_compression'",
		"crate_column_policy":                         "'dynamic'",
		"crate_number_of_replicas":                    "'0-2'",
		"crate_number_of_routing_shards":              5,
		"crate_number_of_shards":                      2,
		"crate_partitioned_by":                        "time",
		"crate_refresh_interval":                      500,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromURL() =\n%v\nwant\n%v", got, want)
	}
}

func TestFromQueryParams_Prefixes(t *testing.T) {
	got, err := options.FromQueryParams(map[string]string{
		"translog.sync_interval": "1000",
		"durability":             "request",
		"translog.durability":    "async",
		"codec":                  "best_compression",
		"column_policy":          "dynamic",
	})
	if err != nil {
		t.Fatalf("FromQueryParams() error = %v", err)
	}

	want := map[string]any{
		`crate_"translog.sync_interval"`: "1000",
		`crate_"translog.durability"`:    "'request'",
		`crate_"codec"`:                  "best_compression",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromQueryParams() = %v, want %v", got, want)
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		spec     options.Spec
		expected any
	}{
		{"untyped", `"A"`, options.Spec{Name: "x"}, `"A"`},
		{"string quoted", "'48h'", options.Spec{Name: "x", Kind: options.Str}, "'48h'"},
		{"int", "'7'", options.Spec{Name: "x", Kind: options.Int}, 7},
		{"negative int", "-1", options.Spec{Name: "x", Kind: options.Int}, -1},
		{"bool yes", "yes", options.Spec{Name: "x", Kind: options.Bool}, "true"},
		{"bool off", "OFF", options.Spec{Name: "x", Kind: options.Bool}, "false"},
		{"choice translated", "lz4", options.Catalog["compression"], "'default'"},
		{"choice", "hybridfs", options.Catalog["store-type"], "'hybridfs'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := options.Convert(tt.value, tt.spec)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Convert() = %#v, want %#v", got, tt.expected)
			}
		})
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		spec   options.Spec
		errMsg string
	}{
		{"bad int", "many", options.Catalog["shards"], `invalid integer "many"`},
		{"bad bool", "maybe", options.Catalog["read-only"], `invalid boolean "maybe"`},
		{"bad choice", "lax", options.Catalog["column-policy"], "value lax not permitted, allowed choices: strict, dynamic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := options.Convert(tt.value, tt.spec)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}

	if _, err := options.FromQueryParams(map[string]string{"durability": "sometimes"}); err == nil {
		t.Error("FromQueryParams() accepted an invalid choice")
	}
}

func TestFromValues_LastWins(t *testing.T) {
	got, err := options.FromValues(url.Values{"shards": {"2", "6"}})
	if err != nil {
		t.Fatal(err)
	}
	if got["crate_number_of_shards"] != 6 {
		t.Errorf("shards = %v, want 6", got["crate_number_of_shards"])
	}
}

func TestFromURL_RendersAsTableOptions(t *testing.T) {
	opts, err := options.FromURL("crate://localhost:4200/?shards=3&clustered-by=id&durability=async&partitioned-by=day")
	if err != nil {
		t.Fatal(err)
	}
	expected := ` CLUSTERED BY (id) INTO 3 SHARDS PARTITIONED BY (day) WITH ("translog.durability" = 'async')`
	if got := crate.TableOptions(opts); got != expected {
		t.Errorf("TableOptions() = %q, want %q", got, expected)
	}
}

func TestCatalog(t *testing.T) {
	shorthands := options.Shorthands()
	if len(shorthands) != len(options.Catalog) {
		t.Fatalf("Shorthands() returned %d keys for %d entries", len(shorthands), len(options.Catalog))
	}
	for i := 1; i < len(shorthands); i++ {
		if shorthands[i-1] >= shorthands[i] {
			t.Errorf("Shorthands() not sorted at %q", shorthands[i])
		}
	}
	for key, spec := range options.Catalog {
		if !strings.HasPrefix(spec.Name, crate.OptionPrefix) {
			t.Errorf("%s: name %q is not namespaced", key, spec.Name)
		}
		for _, choice := range spec.Choices {
			if _, err := options.Convert(choice, spec); err != nil {
				t.Errorf("%s: choice %q rejected: %v", key, choice, err)
			}
		}
	}
}
