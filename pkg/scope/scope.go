package scope

// Scope is one node of the test hierarchy. Hosts create scopes; the
// controller only reads them and indexes them by ID, which must be unique
// among the scopes that are entered at the same time.
type Scope interface {
	ID() string
	// Parent is nil at the root.
	Parent() Scope
	// Declarations may be nil when the scope declares nothing.
	Declarations() *Declarations
}

// Node is a ready-made Scope for hosts that do not have their own.
type Node struct {
	id     string
	parent Scope
	decl   *Declarations
}

// NewNode returns a scope named id under parent. A typed nil parent is
// treated as the root.
func NewNode(id string, parent Scope, decl *Declarations) *Node {
	if n, ok := parent.(*Node); ok && n == nil {
		parent = nil
	}
	return &Node{id: id, parent: parent, decl: decl}
}

func (n *Node) ID() string                  { return n.id }
func (n *Node) Parent() Scope               { return n.parent }
func (n *Node) Declarations() *Declarations { return n.decl }

func (n *Node) String() string { return n.id }
