// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/attachant/lib/binhash"
)

const (
	// AgentClassAttribute is the manifest attribute naming the class
	// the instrument agent initializes on dynamic attach.
	AgentClassAttribute = "Agent-Class"

	// AgentMainMethod is the initialization routine invoked on the
	// entry point class.
	AgentMainMethod = "agentmain"

	manifestPath = "META-INF/MANIFEST.MF"

	// maxClassSize bounds how much of a single class entry is read.
	maxClassSize = 16 << 20

	// maxHierarchyDepth bounds the superclass walk so that a cyclic
	// (malformed) hierarchy inside the archive cannot loop forever.
	maxHierarchyDepth = 64
)

// Descriptors of the two accepted agentmain forms.
const (
	descriptorWithInstrumentation = "(Ljava/lang/String;Ljava/lang/instrument/Instrumentation;)V"
	descriptorArgsOnly            = "(Ljava/lang/String;)V"
)

// InitSignature identifies which agentmain form the entry point
// exposes.
type InitSignature int

const (
	// SignatureWithInstrumentation is agentmain(String, Instrumentation).
	SignatureWithInstrumentation InitSignature = iota + 1
	// SignatureArgsOnly is agentmain(String).
	SignatureArgsOnly
)

func (s InitSignature) String() string {
	switch s {
	case SignatureWithInstrumentation:
		return "agentmain(String, Instrumentation)"
	case SignatureArgsOnly:
		return "agentmain(String)"
	default:
		return fmt.Sprintf("InitSignature(%d)", int(s))
	}
}

// descriptor returns the JVM method descriptor for the signature.
func (s InitSignature) descriptor() string {
	if s == SignatureWithInstrumentation {
		return descriptorWithInstrumentation
	}
	return descriptorArgsOnly
}

// Bundle is the result of a successful validation.
type Bundle struct {
	// Path is the bundle path as given to Validate.
	Path string

	// EntryPoint is the dotted class name from Agent-Class.
	EntryPoint string

	// Signature is the agentmain form found on the entry point.
	Signature InitSignature

	// Version is Implementation-Version from the manifest main
	// section, or "" when absent.
	Version string

	// Digest is the BLAKE3 bundle digest of the archive bytes.
	Digest binhash.Digest
}

// Validate checks that path is a usable agent bundle. The archive is
// closed before Validate returns on every path.
func Validate(path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableBundle, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadableBundle, path)
	}

	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableBundle, path, err)
	}
	defer archive.Close()

	attributes, err := readManifest(&archive.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entryPoint := strings.TrimSpace(attributes.Get(AgentClassAttribute))
	if entryPoint == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntryPointAttribute, path)
	}

	loader := archiveLoader{files: indexArchive(&archive.Reader)}
	signature, err := loader.resolveInitSignature(entryPoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	digest, err := binhash.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableBundle, err)
	}

	return &Bundle{
		Path:       path,
		EntryPoint: entryPoint,
		Signature:  signature,
		Version:    attributes.Get("Implementation-Version"),
		Digest:     digest,
	}, nil
}

// readManifest returns the main-section attributes of the archive's
// manifest. A missing manifest is reported as a missing Agent-Class,
// since that is the only attribute the caller needs from it.
func readManifest(archive *zip.Reader) (Attributes, error) {
	for _, file := range archive.File {
		if !strings.EqualFold(file.Name, manifestPath) {
			continue
		}
		reader, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %w", ErrUnreadableBundle, manifestPath, err)
		}
		defer reader.Close()
		data, err := io.ReadAll(io.LimitReader(reader, maxClassSize))
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrUnreadableBundle, manifestPath, err)
		}
		return ParseManifest(data), nil
	}
	return nil, fmt.Errorf("%w: archive has no %s", ErrMissingEntryPointAttribute, manifestPath)
}

func indexArchive(archive *zip.Reader) map[string]*zip.File {
	files := make(map[string]*zip.File, len(archive.File))
	for _, file := range archive.File {
		files[file.Name] = file
	}
	return files
}

// archiveLoader resolves classes using only the archive's own entries.
type archiveLoader struct {
	files map[string]*zip.File
}

// load parses the class with the given internal (slash-separated) name.
// found is false when the archive has no entry for it.
func (l archiveLoader) load(internalName string) (class *classFile, found bool, err error) {
	file, ok := l.files[internalName+".class"]
	if !ok {
		return nil, false, nil
	}
	reader, err := file.Open()
	if err != nil {
		return nil, true, err
	}
	defer reader.Close()
	data, err := io.ReadAll(io.LimitReader(reader, maxClassSize))
	if err != nil {
		return nil, true, err
	}
	class, err = parseClassFile(data)
	if err != nil {
		return nil, true, err
	}
	if class.name != internalName {
		return nil, true, fmt.Errorf("entry %s.class declares class %s", internalName, class.name)
	}
	return class, true, nil
}

// resolveInitSignature loads the entry point and searches its hierarchy
// for agentmain, preferring the Instrumentation form.
func (l archiveLoader) resolveInitSignature(entryPoint string) (InitSignature, error) {
	internalName, err := internalClassName(entryPoint)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEntryPointUnresolvable, err)
	}

	entry, found, err := l.load(internalName)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrEntryPointUnresolvable, entryPoint, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: %s is not in the bundle", ErrEntryPointUnresolvable, entryPoint)
	}

	// Collect the part of the hierarchy that lives in the archive.
	// Superclasses outside it (java/lang/Object, library classes)
	// cannot contribute an agentmain the validator can see.
	hierarchy := []*classFile{entry}
	for current := entry; current.superName != "" && len(hierarchy) < maxHierarchyDepth; {
		parent, found, err := l.load(current.superName)
		if err != nil {
			return 0, fmt.Errorf("%w: superclass %s of %s: %w",
				ErrEntryPointUnresolvable, current.superName, entryPoint, err)
		}
		if !found {
			break
		}
		hierarchy = append(hierarchy, parent)
		current = parent
	}

	for _, signature := range []InitSignature{SignatureWithInstrumentation, SignatureArgsOnly} {
		for _, class := range hierarchy {
			if class.hasPublicMethod(AgentMainMethod, signature.descriptor()) {
				return signature, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s declares neither agentmain(String, Instrumentation) nor agentmain(String)",
		ErrMissingInitRoutine, entryPoint)
}

// internalClassName converts a dotted binary class name to the
// slash-separated form used for archive entries and class files.
func internalClassName(name string) (string, error) {
	if strings.ContainsAny(name, " \t/;[") {
		return "", fmt.Errorf("invalid class name %q", name)
	}
	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return "", fmt.Errorf("invalid class name %q", name)
		}
	}
	return strings.ReplaceAll(name, ".", "/"), nil
}
