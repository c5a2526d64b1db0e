// Package container provides the base parent/child/anomaly tree shared by
// every domain object the disk decomposer produces: disks, sectors, files,
// and parsed file contents all embed a Container.
package container

import "fmt"

// Level is the severity of an observed Anomaly.
type Level int

const (
	// INFO is a purely informational observation; nothing is wrong.
	INFO Level = iota
	// UNUSUAL is a deviation from common practice that is still valid.
	UNUSUAL
	// CORRUPTION is data that violates a format invariant.
	CORRUPTION
)

// String renders a Level the way diagnostics expect to see it.
func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case UNUSUAL:
		return "UNUSUAL"
	case CORRUPTION:
		return "CORRUPTION"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Anomaly is a single recorded observation about a deviation from expected
// disk state, attached to the container that noticed it.
type Anomaly struct {
	Level   Level
	Message string
}

// String renders an Anomaly for display.
func (a Anomaly) String() string {
	return fmt.Sprintf("%s: %s", a.Level, a.Message)
}

// Container is the base of every domain object in the decomposition. It
// holds a parent link, an ordered list of children, and an ordered list of
// anomalies. Anomalies accumulate; they are never thrown, so a walk that
// hits bad data can keep going.
//
// Embedders must call Init(self) once, right after construction, passing
// themselves as self — Go has no implicit "self" for embedded types, so
// this is how a Container learns the identity it should hand to its
// children as their parent.
type Container struct {
	self      Node
	parent    Node
	children  []Node
	anomalies []Anomaly
}

// Node is the interface every container-embedding type satisfies.
type Node interface {
	AddChild(child Node)
	Parent() Node
	setParent(p Node)
	Children() []Node
	Recurse(visitor func(Node))
	Anomalies() []Anomaly
	AppendAnomaly(level Level, format string, args ...interface{})
}

// Init records self as the identity this Container hands to children as
// their parent. Call it once, immediately after constructing the embedding
// type.
func (c *Container) Init(self Node) { c.self = self }

// AddChild appends child to c's children and sets its parent to c. It is a
// programming error to add a child that already has a parent.
func (c *Container) AddChild(child Node) {
	if child.Parent() != nil {
		panic(fmt.Sprintf("container: %v already has a parent", child))
	}
	c.children = append(c.children, child)
	child.setParent(c.self)
}

// Parent returns c's parent container, or nil for a root.
func (c *Container) Parent() Node { return c.parent }

func (c *Container) setParent(p Node) { c.parent = p }

// Children returns c's children in insertion order.
func (c *Container) Children() []Node { return c.children }

// Recurse applies visitor to every descendant of c, depth-first, pre-order,
// in child-insertion order.
func (c *Container) Recurse(visitor func(Node)) {
	for _, child := range c.children {
		visitor(child)
		child.Recurse(visitor)
	}
}

// AppendAnomaly attaches a new Anomaly of the given level to c.
func (c *Container) AppendAnomaly(level Level, format string, args ...interface{}) {
	c.anomalies = append(c.anomalies, Anomaly{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Anomalies returns c's own anomalies (not its descendants'), in the order
// they were recorded.
func (c *Container) Anomalies() []Anomaly { return c.anomalies }
