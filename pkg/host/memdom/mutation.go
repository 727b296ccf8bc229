package memdom

// Op identifies a host mutation.
type Op uint8

const (
	OpCreateElement Op = iota + 1
	OpCreateText
	OpAppendChild
	OpPrependChild
	OpInsertBefore
	OpInsertAfter
	OpRemoveChild
	OpRemove
	OpSetAttribute
	OpSetTextContent
	OpAppendText
	OpReplaceText
	OpClone
	OpListen
	OpRelease
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpAppendChild:
		return "AppendChild"
	case OpPrependChild:
		return "PrependChild"
	case OpInsertBefore:
		return "InsertBefore"
	case OpInsertAfter:
		return "InsertAfter"
	case OpRemoveChild:
		return "RemoveChild"
	case OpRemove:
		return "Remove"
	case OpSetAttribute:
		return "SetAttribute"
	case OpSetTextContent:
		return "SetTextContent"
	case OpAppendText:
		return "AppendText"
	case OpReplaceText:
		return "ReplaceText"
	case OpClone:
		return "Clone"
	case OpListen:
		return "Listen"
	case OpRelease:
		return "Release"
	default:
		return "Unknown"
	}
}

// Mutation describes one host operation by node id.
//
//	CreateElement   Target=new id, Name=tag
//	CreateText      Target=new id, Value=text
//	AppendChild     Target=parent, Child
//	PrependChild    Target=parent, Child
//	InsertBefore    Target=parent, Child, Ref (0 appends)
//	InsertAfter     Target=parent, Child, Ref
//	RemoveChild     Target=parent, Child
//	Remove          Target
//	SetAttribute    Target, Name, Value
//	SetTextContent  Target, Child=new text id, Value
//	AppendText      Target=parent, Child
//	ReplaceText     Target=parent, Child=new, Ref=old
//	Clone           Target=source, Child=first id of the copy
//	Listen          Target, Name, UID
//	Release         Target
type Mutation struct {
	Op     Op
	Target uint64
	Child  uint64
	Ref    uint64
	Name   string
	Value  string
	UID    uint64
}
