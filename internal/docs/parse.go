package docs

import (
	"encoding/json"
	"fmt"
)

// Parse builds an item tree from crystal docs JSON bytes.
func Parse(data []byte) (*Tree, error) {
	var prog Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("unmarshaling crystal docs JSON: %w", err)
	}
	if prog.Program == nil {
		return nil, fmt.Errorf("crystal docs JSON has no \"program\" entry")
	}
	// The top-level namespace is reported under its display name; it must
	// not contribute to anyone's path.
	prog.Program.FullName = ""
	if prog.Program.Kind == "" {
		prog.Program.Kind = string(KindModule)
	}
	return NewTree(prog.Program)
}
