package tokenizer

import "encoding/binary"

type symbolID int32

// symbolTable interns symbol strings so word shapes can be held as id slices.
type symbolTable struct {
	ids   map[string]symbolID
	names []string
}

func newSymbolTable() *symbolTable {
	return &symbolTable{ids: make(map[string]symbolID, 256)}
}

func (t *symbolTable) intern(s string) symbolID {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := symbolID(len(t.names))
	t.ids[s] = id
	t.names = append(t.names, s)
	return id
}

func (t *symbolTable) lookup(s string) (symbolID, bool) {
	id, ok := t.ids[s]
	return id, ok
}

func (t *symbolTable) name(id symbolID) string {
	return t.names[id]
}

// shapeKey packs a shape into a string usable as a map key.
func shapeKey(symbols []symbolID) string {
	buf := make([]byte, 0, 4*len(symbols))
	for _, s := range symbols {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(s))
	}
	return string(buf)
}
