package model

// RelationKind categorizes the relationship between two board entities.
type RelationKind string

const (
	KindDepends  RelationKind = "depends"
	KindSubtask  RelationKind = "subtask"
	KindSequence RelationKind = "sequence"
	KindLink     RelationKind = "link"
)

// TokenKinds are the kinds that are encoded as tokens in task text, in the
// order the codec and the graph builder visit them.
var TokenKinds = []RelationKind{KindDepends, KindSubtask, KindSequence}

// String returns the string representation of the kind.
func (k RelationKind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k RelationKind) IsValid() bool {
	switch k {
	case KindDepends, KindSubtask, KindSequence, KindLink:
		return true
	}
	return false
}

// HasToken reports whether relations of this kind live in task text.
// Link edges exist only on the board.
func (k RelationKind) HasToken() bool {
	return k == KindDepends || k == KindSubtask || k == KindSequence
}

// IsHierarchical reports whether the kind forms parent/child structure.
func (k RelationKind) IsHierarchical() bool {
	return k == KindDepends || k == KindSubtask
}

// Edge is a directed, typed relation between two node ids. For a token of
// kind K held by task T that references X, the edge is X -> T.
type Edge struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Type  RelationKind `json:"type"`
	Label string       `json:"label,omitempty"`
}

// Signature identifies an edge regardless of its label.
type Signature struct {
	From string
	To   string
	Type RelationKind
}

// Signature returns the identity of the edge.
func (e Edge) Signature() Signature {
	return Signature{From: e.From, To: e.To, Type: e.Type}
}

// Touches reports whether id is either endpoint.
func (e Edge) Touches(id string) bool {
	return e.From == id || e.To == id
}
