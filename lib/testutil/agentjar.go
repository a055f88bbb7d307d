// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Method descriptors of the two agentmain forms the instrument agent
// accepts.
const (
	AgentMainWithInstrumentation = "(Ljava/lang/String;Ljava/lang/instrument/Instrumentation;)V"
	AgentMainArgsOnly            = "(Ljava/lang/String;)V"
)

// Class file access flags used by the builders below.
const (
	AccessPublic uint16 = 0x0001
	AccessStatic uint16 = 0x0008
	AccessSuper  uint16 = 0x0020
)

// ClassMethod is one method_info entry of a generated class file.
type ClassMethod struct {
	Name       string
	Descriptor string
	Flags      uint16
}

// ClassSpec describes a minimal class file. Name and Super are binary
// names with '/' separators; an empty Super means java/lang/Object.
// When WithLongConstant is set, a CONSTANT_Long entry is placed before
// the method names so parsers must honour its two-slot width.
type ClassSpec struct {
	Name             string
	Super            string
	Methods          []ClassMethod
	WithLongConstant bool
}

// PublicStatic is the access mask javac emits for agentmain.
const PublicStatic = AccessPublic | AccessStatic

// ClassFile assembles a class file (major version 52) containing only
// the constant pool entries, access flags, and methods that spec
// declares. Methods have no Code attribute; the result is parseable
// but not loadable by a real JVM.
func ClassFile(spec ClassSpec) []byte {
	super := spec.Super
	if super == "" {
		super = "java/lang/Object"
	}

	var pool bytes.Buffer
	count := uint16(1)
	utf8 := func(value string) uint16 {
		pool.WriteByte(1)
		binary.Write(&pool, binary.BigEndian, uint16(len(value)))
		pool.WriteString(value)
		count++
		return count - 1
	}
	class := func(name string) uint16 {
		nameIndex := utf8(name)
		pool.WriteByte(7)
		binary.Write(&pool, binary.BigEndian, nameIndex)
		count++
		return count - 1
	}

	thisIndex := class(spec.Name)
	superIndex := class(super)
	if spec.WithLongConstant {
		pool.WriteByte(5)
		binary.Write(&pool, binary.BigEndian, uint64(0x1122334455667788))
		count += 2
	}

	type methodRef struct {
		flags, name, descriptor uint16
	}
	var methods []methodRef
	for _, method := range spec.Methods {
		methods = append(methods, methodRef{
			flags:      method.Flags,
			name:       utf8(method.Name),
			descriptor: utf8(method.Descriptor),
		})
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major
	binary.Write(&out, binary.BigEndian, count)
	out.Write(pool.Bytes())
	binary.Write(&out, binary.BigEndian, AccessPublic|AccessSuper)
	binary.Write(&out, binary.BigEndian, thisIndex)
	binary.Write(&out, binary.BigEndian, superIndex)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields
	binary.Write(&out, binary.BigEndian, uint16(len(methods)))
	for _, method := range methods {
		binary.Write(&out, binary.BigEndian, method.flags)
		binary.Write(&out, binary.BigEndian, method.name)
		binary.Write(&out, binary.BigEndian, method.descriptor)
		binary.Write(&out, binary.BigEndian, uint16(0)) // attributes
	}
	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes
	return out.Bytes()
}

// JarSpec describes an archive written by [WriteJar]. Manifest is the
// literal META-INF/MANIFEST.MF content; when empty no manifest entry is
// written. Prefix is written before the zip data, the way an agent jar
// is appended to an executable.
type JarSpec struct {
	Manifest string
	Classes  []ClassSpec
	Entries  map[string][]byte
	Prefix   []byte
}

// WriteJar writes the archive described by spec to path, failing the
// test on any error.
func WriteJar(t *testing.T, path string, spec JarSpec) {
	t.Helper()

	var buffer bytes.Buffer
	buffer.Write(spec.Prefix)
	writer := zip.NewWriter(&buffer)
	writer.SetOffset(int64(len(spec.Prefix)))

	add := func(name string, data []byte) {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("creating jar entry %s: %v", name, err)
		}
		if _, err := entry.Write(data); err != nil {
			t.Fatalf("writing jar entry %s: %v", name, err)
		}
	}

	if spec.Manifest != "" {
		add("META-INF/MANIFEST.MF", []byte(spec.Manifest))
	}
	for _, class := range spec.Classes {
		add(class.Name+".class", ClassFile(class))
	}
	for name, data := range spec.Entries {
		add(name, data)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing jar writer: %v", err)
	}
	if err := os.WriteFile(path, buffer.Bytes(), 0644); err != nil {
		t.Fatalf("writing jar %s: %v", path, err)
	}
}

// AgentJar writes a well-formed agent jar named agent.jar into
// directory. agentClass is the dotted class name declared in the
// Agent-Class attribute; the class declares a public static
// agentmain(String, Instrumentation). Returns the jar path.
func AgentJar(t *testing.T, directory, agentClass string) string {
	t.Helper()
	path := filepath.Join(directory, "agent.jar")
	WriteJar(t, path, JarSpec{
		Manifest: "Manifest-Version: 1.0\r\nAgent-Class: " + agentClass + "\r\n\r\n",
		Classes: []ClassSpec{{
			Name: strings.ReplaceAll(agentClass, ".", "/"),
			Methods: []ClassMethod{
				{Name: "agentmain", Descriptor: AgentMainWithInstrumentation, Flags: PublicStatic},
			},
		}},
	})
	return path
}
