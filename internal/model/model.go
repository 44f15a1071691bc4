// Package model holds the data types shared across every analysis stage:
// the binary-level metadata, the per-function call graph record, the
// materialized call tree, and the integrity-check report.
package model

import "encoding/json"

// BinaryMetadata is the one-time-derived summary of an analyzed ELF file.
type BinaryMetadata struct {
	FileName      string `json:"file_name"`
	FileType      string `json:"file_type"`
	FileSize      uint64 `json:"file_size"`
	Arch          string `json:"arch"`
	PIE           bool   `json:"pie"`
	Stripped      bool   `json:"stripped"`
	StaticLinking string `json:"static_linking"`
	Language      string `json:"language"`
	EntryPoint    uint64 `json:"entry_point"`
}

// SyscallDescriptor is one row of the external syscall-number table,
// keyed by numeric id. Only id, name, category and arguments are kept;
// arguments is carried as raw JSON, and any other field in a table row
// is dropped on load.
type SyscallDescriptor struct {
	ID       uint64          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Category string          `json:"category,omitempty"`
	Args     json.RawMessage `json:"arguments,omitempty"`
}

// FunctionRecord is one enumerated function, keyed by its demangled name
// in the owning map. Children, Disassembly and HasSyscall are filled in
// by the call-graph builder; InboundCount by the invocation counter;
// SyscallInfos by the syscall classifier.
type FunctionRecord struct {
	Name         string              `json:"name"`
	StartAddr    uint64              `json:"start_addr"`
	EndAddr      uint64              `json:"end_addr"`
	InboundCount int                 `json:"invocation_entry"`
	Jmp          int                 `json:"jmp"`
	Children     []string            `json:"children"`
	Disassembly  *string             `json:"disassembly,omitempty"`
	HasSyscall   bool                `json:"syscall"`
	SyscallInfos []SyscallDescriptor `json:"syscall_infos,omitempty"`
}

// NewFunctionRecord creates a FunctionRecord with the given address range
// and zero values for everything the later pipeline stages still owe it.
func NewFunctionRecord(name string, startAddr, endAddr uint64) *FunctionRecord {
	return &FunctionRecord{
		Name:      name,
		StartAddr: startAddr,
		EndAddr:   endAddr,
		Children:  []string{},
	}
}

// SetDisassembly records the textual disassembly listing for this function.
func (f *FunctionRecord) SetDisassembly(disassembly string) {
	f.Disassembly = &disassembly
}

// AddChild appends name to Children iff it is not already present,
// preserving first-occurrence order.
func (f *FunctionRecord) AddChild(name string) {
	for _, c := range f.Children {
		if c == name {
			return
		}
	}
	f.Children = append(f.Children, name)
}

// TreeNode is a materialized, cycle-safe, depth-bounded node of a call
// tree rooted at some function name.
type TreeNode struct {
	ID       int         `json:"id"`
	Text     string      `json:"text"`
	Children []*TreeNode `json:"children,omitempty"`
}

// NewTreeNode allocates a childless node with the given id and label.
func NewTreeNode(id int, text string) *TreeNode {
	return &TreeNode{ID: id, Text: text}
}

// AddChild appends child to the node's ordered child list.
func (n *TreeNode) AddChild(child *TreeNode) {
	n.Children = append(n.Children, child)
}

// Clone returns a deep copy of the subtree rooted at n. Memoized subtree
// reuse in the tree materializer hands out clones rather than shared
// pointers, so mutating one use of a shared subtree never affects another.
func (n *TreeNode) Clone() *TreeNode {
	if n == nil {
		return nil
	}
	clone := &TreeNode{ID: n.ID, Text: n.Text}
	if n.Children != nil {
		clone.Children = make([]*TreeNode, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = c.Clone()
		}
	}
	return clone
}

// CheckResult is one named boolean check within an integrity category.
type CheckResult struct {
	Name        string          `json:"name"`
	Status      bool            `json:"status"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// CategoryResult groups related CheckResults under a named category.
type CategoryResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Checks      []CheckResult `json:"checks"`
}

// IntegrityReport is the full structural/hardening report for one binary.
type IntegrityReport struct {
	BinaryPath string           `json:"binary_path"`
	Categories []CategoryResult `json:"categories"`
}
