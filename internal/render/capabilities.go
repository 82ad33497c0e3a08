package render

// RowLockingLevel indicates the level of row-level locking support.
type RowLockingLevel int

const (
	RowLockingNone  RowLockingLevel = iota // No row locking
	RowLockingBasic                        // FOR UPDATE, FOR SHARE
)

// Capabilities describes the SQL features supported by a dialect.
type Capabilities struct {
	Upsert              bool            // ON CONFLICT
	Returning           bool            // RETURNING clause
	CaseInsensitiveLike bool            // native ILIKE operator
	LikeEscape          bool            // LIKE ... ESCAPE
	AnyArray            bool            // <value> <op> ANY (<array>)
	ForeignKeys         bool            // FOREIGN KEY constraints
	UniqueConstraints   bool            // UNIQUE constraints
	RowLocking          RowLockingLevel // FOR UPDATE/SHARE support
}
