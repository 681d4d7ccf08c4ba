package meta

import "github.com/Alia5/dynbind/internal/codegen/scanner"

// Metadata holds everything scanned for one generator run.
// Shared between the orchestrator and the emitter, read-only once built.
type Metadata struct {
	Structs       []scanner.StructDescriptor `json:"structs" yaml:"structs" toml:"structs"`
	AffectedFiles []string                   `json:"affectedFiles" yaml:"affectedFiles" toml:"affectedFiles"` // source paths that contributed a struct
}

// TableRow is one entry of the global lookup table.
// Struct rows leave Member empty, field rows leave Struct empty.
type TableRow struct {
	Struct   string
	Member   string
	External string
}

// TableSize returns the number of lookup table rows: one per struct plus one per field.
func (md *Metadata) TableSize() int {
	n := len(md.Structs)
	for _, s := range md.Structs {
		n += len(s.Fields)
	}
	return n
}

// Table builds the lookup table rows in struct discovery, then field declaration order.
func (md *Metadata) Table() []TableRow {
	rows := make([]TableRow, 0, md.TableSize())
	for _, s := range md.Structs {
		rows = append(rows, TableRow{Struct: s.NativeName, External: s.ExternalName})
		for _, f := range s.Fields {
			rows = append(rows, TableRow{Member: f.NativeMemberName, External: f.ExternalFieldKey})
		}
	}
	return rows
}

// FieldCount returns the total number of fields across all structs.
func (md *Metadata) FieldCount() int {
	return md.TableSize() - len(md.Structs)
}
