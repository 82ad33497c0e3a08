package options

const docsBase = "https://cratedb.com/docs/crate/reference/en/latest/sql/statements/create-table.html#"

// Catalog maps URL shorthand parameters to table options.
var Catalog = map[string]Spec{
	// Cluster options.
	"clustered-by":   {Name: "crate_clustered_by"},
	"partitioned-by": {Name: "crate_partitioned_by"},
	"shards":         {Name: "crate_number_of_shards", Kind: Int, Default: 4},

	// Table options.
	"async-flush-interval": {
		Name:        `crate_"translog.sync_interval"`,
		Kind:        Int,
		Unit:        "ms",
		Default:     5000,
		Description: "Transaction log flushing interval when using `durability=async`.",
		Docs:        docsBase + "translog-sync-interval",
	},
	"async-flush-size": {
		Name:        `crate_"translog.flush_threshold_size"`,
		Kind:        Str,
		Unit:        "bytes",
		Default:     "512Mb",
		Description: "Transaction log flushing threshold size when using `durability=async`.",
		Docs:        docsBase + "translog-flush-threshold-size",
	},
	"column-policy": {
		Name:    "crate_column_policy",
		Kind:    Str,
		Choices: []string{"strict", "dynamic"},
		Default: "strict",
		Description: "The column policy of the table. `strict` rejects any column which is not defined in the schema. " +
			"`dynamic` adds new columns on demand.",
		Docs: docsBase + "column-policy",
	},
	"compression": {
		Name:    "crate_codec",
		Kind:    Str,
		Choices: []string{"lz4", "deflate"},
		Default: "lz4",
		Translate: map[string]string{
			"lz4":     "default",
			"deflate": "best_compression",
		},
		Description: "Data is stored with LZ4 compression by default. DEFLATE gives a higher compression ratio " +
			"at the expense of slower column value lookups.",
		Docs: docsBase + "codec",
	},
	"disable-read": {
		Name:        `crate_"blocks.read"`,
		Kind:        Bool,
		Default:     false,
		Description: "Set to `true` to disable all read operations for a table.",
		Docs:        docsBase + "blocks-read",
	},
	"disable-metadata": {
		Name:        `crate_"blocks.metadata"`,
		Kind:        Bool,
		Default:     false,
		Description: "Set to `true` to disable modifications on table settings.",
		Docs:        docsBase + "blocks-metadata",
	},
	"disable-write": {
		Name:        `crate_"blocks.write"`,
		Kind:        Bool,
		Default:     false,
		Description: "Set to `true` to disable all write operations for a table.",
		Docs:        docsBase + "blocks-write",
	},
	"durability": {
		Name:    `crate_"translog.durability"`,
		Kind:    Str,
		Choices: []string{"request", "async"},
		Default: "request",
		Description: "With `request` the transaction log is flushed after every write operation. " +
			"With `async` it is flushed to disk periodically in the background.",
		Docs: docsBase + "translog-durability",
	},
	"max-fields": {
		Name:    `crate_"mapping.total_fields.limit"`,
		Kind:    Int,
		Default: 1000,
		Description: "Maximum number of columns allowed for a table, " +
			"including both the user facing mapping (columns) and internal fields.",
		Docs: docsBase + "mapping-total-fields-limit",
	},
	"max-ngram-diff": {
		Name:        "crate_max_ngram_diff",
		Kind:        Int,
		Default:     1,
		Description: "Maximum difference between `max_ngram` and `min_ngram` when using the `NGramTokenizer` or the `NGramTokenFilter`.",
		Docs:        docsBase + "max-ngram-diff",
	},
	"max-merge-threads": {
		Name: `crate_"merge.scheduler.max_thread_count"`,
		Kind: Int,
		Description: "Maximum number of threads on a single shard that may be merging at once. " +
			"Auto-configured from the number of CPU cores by default. On spinning drives, decrease this to 1.",
		Docs: docsBase + "merge-scheduler-max-thread-count",
	},
	"max-shingle-diff": {
		Name:        "crate_max_shingle_diff",
		Kind:        Int,
		Default:     3,
		Description: "Maximum difference between `min_shingle_size` and `max_shingle_size` when using the `ShingleTokenFilter`.",
		Docs:        docsBase + "max-shingle-diff",
	},
	"min-shards-write": {
		Name:        `crate_"write.wait_for_active_shards"`,
		Kind:        Str,
		Default:     "1",
		Description: "Number of shard copies that need to be active for write operations to proceed.",
		Docs:        docsBase + "write-wait-for-active-shards",
	},
	"read-only": {
		Name:        `crate_"blocks.read_only"`,
		Kind:        Bool,
		Default:     false,
		Description: "Table is read only if set to `true`. Allows writes and table settings changes if set to `false`.",
		Docs:        docsBase + "blocks-read-only",
	},
	"read-only-allow-delete": {
		Name:        `crate_"blocks.read_only_allow_delete"`,
		Kind:        Bool,
		Default:     false,
		Description: "Allows to have a read only table that additionally can be deleted.",
		Docs:        docsBase + "blocks-read-only-allow-delete",
	},
	"refresh-interval": {
		Name:        "crate_refresh_interval",
		Kind:        Int,
		Unit:        "ms",
		Default:     1000,
		Description: "Interval for table-level automatic background refresh.",
		Docs:        docsBase + "refresh-interval",
	},
	"replicas": {
		Name:        "crate_number_of_replicas",
		Kind:        Str,
		Default:     "0-1",
		Description: "The number or range of replicas each shard of a table should have for normal operation.",
		Docs:        docsBase + "number-of-replicas",
	},
	"routing-shards": {
		Name:        "crate_number_of_routing_shards",
		Kind:        Int,
		Description: "The hashing space that is used internally to distribute documents across shards.",
		Docs:        docsBase + "number-of-routing-shards",
	},
	"routing-max-shards-per-node": {
		Name:    `crate_"routing.allocation.total_shards_per_node"`,
		Kind:    Int,
		Default: -1,
		Description: "Total number of shards (replicas and primaries) allowed to be allocated on a single node. " +
			"Unbounded by default.",
		Docs: docsBase + "routing-allocation-total-shards-per-node",
	},
	"routing-policy": {
		Name:        `crate_"routing.allocation.enable"`,
		Kind:        Str,
		Choices:     []string{"all", "primaries", "new_primaries", "none"},
		Default:     "all",
		Description: "Control shard allocation for a specific table.",
		Docs:        docsBase + "routing-allocation-enable",
	},
	"routing-max-retries": {
		Name:        `crate_"allocation.max_retries"`,
		Kind:        Int,
		Default:     5,
		Description: "Attempts to allocate a shard before giving up and leaving the shard unallocated.",
		Docs:        docsBase + "allocation-max-retries",
	},
	"routing-include": {
		Name:        `crate_"routing.allocation.include.{attribute}"`,
		Kind:        Str,
		Description: "Assign the table to a node whose `{attribute}` has at least one of the comma-separated values.",
		Docs:        docsBase + "routing-allocation-include-attribute",
	},
	"routing-require": {
		Name:        `crate_"routing.allocation.require.{attribute}"`,
		Kind:        Str,
		Description: "Assign the table to a node whose `{attribute}` has all of the comma-separated values.",
		Docs:        docsBase + "routing-allocation-require-attribute",
	},
	"routing-exclude": {
		Name:        `crate_"routing.allocation.exclude.{attribute}"`,
		Kind:        Str,
		Description: "Assign the table to a node whose `{attribute}` has none of the comma-separated values.",
		Docs:        docsBase + "routing-allocation-exclude-attribute",
	},
	"shard-unassigned-reallocate-delay": {
		Name:        `crate_"unassigned.node_left.delayed_timeout"`,
		Kind:        Str,
		Default:     "1m",
		Description: "Delay the allocation of replica shards which have become unassigned because a node has left.",
		Docs:        docsBase + "unassigned-node-left-delayed-timeout",
	},
	"soft-deletes-enable": {
		Name:        `crate_"soft_deletes.enabled"`,
		Kind:        Bool,
		Default:     true,
		Description: "Whether soft deletes are enabled or disabled.",
		Docs:        docsBase + "soft-deletes-enabled",
	},
	"soft-deletes-retention-period": {
		Name:        `crate_"soft_deletes.retention_lease.period"`,
		Kind:        Str,
		Default:     "12h",
		Description: "The maximum period for which a retention lease is retained before it is considered expired.",
		Docs:        docsBase + "soft-deletes-retention-lease-period",
	},
	"store-type": {
		Name:        `crate_"store.type"`,
		Kind:        Str,
		Choices:     []string{"fs", "niofs", "mmapfs", "hybridfs"},
		Default:     "fs",
		Description: "Control how data is stored and accessed on disk. It cannot be changed after table creation.",
		Docs:        docsBase + "store-type",
	},
}

// Prefixes lists second-level setting namespaces passed through without a
// catalog entry.
var Prefixes = []string{
	"allocation.",
	"blocks.",
	"codec",
	"mapping.",
	"merge.",
	"routing.",
	"soft_deletes.",
	"store.",
	"translog.",
	"unassigned.",
	"write.",
}
