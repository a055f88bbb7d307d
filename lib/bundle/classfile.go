// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Constant pool tags (JVMS §4.4).
const (
	constantUtf8               = 1
	constantInteger            = 3
	constantFloat              = 4
	constantLong               = 5
	constantDouble             = 6
	constantClass              = 7
	constantString             = 8
	constantFieldref           = 9
	constantMethodref          = 10
	constantInterfaceMethodref = 11
	constantNameAndType        = 12
	constantMethodHandle       = 15
	constantMethodType         = 16
	constantDynamic            = 17
	constantInvokeDynamic      = 18
	constantModule             = 19
	constantPackage            = 20
)

const (
	classMagic   = 0xCAFEBABE
	accessPublic = 0x0001
)

var errTruncated = errors.New("truncated class file")

// classFile holds the parts of a class file the validator needs.
type classFile struct {
	name      string
	superName string
	methods   []methodInfo
}

type methodInfo struct {
	flags      uint16
	name       string
	descriptor string
}

func (c *classFile) hasPublicMethod(name, descriptor string) bool {
	for _, method := range c.methods {
		if method.flags&accessPublic != 0 && method.name == name && method.descriptor == descriptor {
			return true
		}
	}
	return false
}

// classReader is a bounds-checked big-endian cursor. The first
// out-of-range read records errTruncated; later reads return zero.
type classReader struct {
	data   []byte
	offset int
	err    error
}

func (r *classReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.offset+n > len(r.data) {
		r.err = errTruncated
		return nil
	}
	chunk := r.data[r.offset : r.offset+n]
	r.offset += n
	return chunk
}

func (r *classReader) u1() uint8 {
	if chunk := r.take(1); chunk != nil {
		return chunk[0]
	}
	return 0
}

func (r *classReader) u2() uint16 {
	if chunk := r.take(2); chunk != nil {
		return binary.BigEndian.Uint16(chunk)
	}
	return 0
}

func (r *classReader) u4() uint32 {
	if chunk := r.take(4); chunk != nil {
		return binary.BigEndian.Uint32(chunk)
	}
	return 0
}

// skipAttributes skips an attributes table.
func (r *classReader) skipAttributes() {
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		r.u2() // attribute_name_index
		r.take(int(r.u4()))
	}
}

// constantPool keeps the UTF-8 entries and the name index of each
// CONSTANT_Class entry; nothing else is needed to resolve names.
type constantPool struct {
	utf8    map[uint16]string
	classes map[uint16]uint16
}

func (p constantPool) utf8At(index uint16) (string, error) {
	value, ok := p.utf8[index]
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not a UTF-8 entry", index)
	}
	return value, nil
}

func (p constantPool) classNameAt(index uint16) (string, error) {
	nameIndex, ok := p.classes[index]
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not a class entry", index)
	}
	return p.utf8At(nameIndex)
}

// parseClassFile extracts the class name, superclass name, and method
// table from a class file. Class names are returned in internal
// (slash-separated) form. Modified UTF-8 is decoded as plain UTF-8,
// which is exact for every identifier javac emits outside the
// supplementary planes.
func parseClassFile(data []byte) (*classFile, error) {
	reader := &classReader{data: data}
	if magic := reader.u4(); reader.err == nil && magic != classMagic {
		return nil, fmt.Errorf("bad class file magic 0x%08X", magic)
	}
	reader.u2() // minor_version
	reader.u2() // major_version

	pool := constantPool{utf8: make(map[uint16]string), classes: make(map[uint16]uint16)}
	poolCount := reader.u2()
	for index := uint16(1); index < poolCount && reader.err == nil; index++ {
		tag := reader.u1()
		switch tag {
		case constantUtf8:
			length := int(reader.u2())
			pool.utf8[index] = string(reader.take(length))
		case constantClass:
			pool.classes[index] = reader.u2()
		case constantString, constantMethodType, constantModule, constantPackage:
			reader.take(2)
		case constantMethodHandle:
			reader.take(3)
		case constantInteger, constantFloat, constantFieldref, constantMethodref,
			constantInterfaceMethodref, constantNameAndType, constantDynamic, constantInvokeDynamic:
			reader.take(4)
		case constantLong, constantDouble:
			// Eight-byte constants occupy two pool slots.
			reader.take(8)
			index++
		default:
			if reader.err == nil {
				return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, index)
			}
		}
	}

	reader.u2() // access_flags
	thisClass := reader.u2()
	superClass := reader.u2()
	reader.take(2 * int(reader.u2())) // interfaces

	fieldCount := int(reader.u2())
	for i := 0; i < fieldCount && reader.err == nil; i++ {
		reader.take(6) // access_flags, name_index, descriptor_index
		reader.skipAttributes()
	}

	type rawMethod struct {
		flags, name, descriptor uint16
	}
	var rawMethods []rawMethod
	methodCount := int(reader.u2())
	for i := 0; i < methodCount && reader.err == nil; i++ {
		method := rawMethod{flags: reader.u2(), name: reader.u2(), descriptor: reader.u2()}
		reader.skipAttributes()
		rawMethods = append(rawMethods, method)
	}
	if reader.err != nil {
		return nil, reader.err
	}

	class := &classFile{}
	var err error
	if class.name, err = pool.classNameAt(thisClass); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	// Only java/lang/Object (and module-info) has super_class 0.
	if superClass != 0 {
		if class.superName, err = pool.classNameAt(superClass); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}
	for _, raw := range rawMethods {
		name, err := pool.utf8At(raw.name)
		if err != nil {
			return nil, fmt.Errorf("method name: %w", err)
		}
		descriptor, err := pool.utf8At(raw.descriptor)
		if err != nil {
			return nil, fmt.Errorf("method descriptor: %w", err)
		}
		class.methods = append(class.methods, methodInfo{flags: raw.flags, name: name, descriptor: descriptor})
	}
	return class, nil
}
