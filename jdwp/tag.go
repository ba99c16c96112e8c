package jdwp

import "fmt"

// Tag is the one-byte type code that prefixes a value on the wire. The codes
// are ASCII letters from the JVM type signature grammar.
type Tag uint8

const (
	TagArray       Tag = '['
	TagByte        Tag = 'B'
	TagChar        Tag = 'C'
	TagObject      Tag = 'L'
	TagFloat       Tag = 'F'
	TagDouble      Tag = 'D'
	TagInt         Tag = 'I'
	TagLong        Tag = 'J'
	TagShort       Tag = 'S'
	TagVoid        Tag = 'V'
	TagBoolean     Tag = 'Z'
	TagString      Tag = 's'
	TagThread      Tag = 't'
	TagThreadGroup Tag = 'g'
	TagClassLoader Tag = 'l'
	TagClassObject Tag = 'c'
)

func (t Tag) String() string {
	switch t {
	case TagArray:
		return "array"
	case TagByte:
		return "byte"
	case TagChar:
		return "char"
	case TagObject:
		return "object"
	case TagFloat:
		return "float"
	case TagDouble:
		return "double"
	case TagInt:
		return "int"
	case TagLong:
		return "long"
	case TagShort:
		return "short"
	case TagVoid:
		return "void"
	case TagBoolean:
		return "boolean"
	case TagString:
		return "string"
	case TagThread:
		return "thread"
	case TagThreadGroup:
		return "thread group"
	case TagClassLoader:
		return "class loader"
	case TagClassObject:
		return "class object"
	default:
		return fmt.Sprintf("TAG(0x%02x)", uint8(t))
	}
}

// IsObject reports whether t denotes an object reference whose wire payload
// is a plain object identifier. String is excluded: string values arrive
// inline as length-prefixed UTF-8.
func (t Tag) IsObject() bool {
	switch t {
	case TagArray, TagObject, TagThread, TagThreadGroup, TagClassLoader, TagClassObject:
		return true
	}
	return false
}
