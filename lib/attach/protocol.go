// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// protocolVersion is the only attach protocol version HotSpot speaks.
const protocolVersion = "1"

// requestArgumentCount is the fixed number of arguments in every
// request; unused trailing arguments are sent empty.
const requestArgumentCount = 3

// maxResponseLength bounds how much command output is buffered.
// A full system properties dump is a few tens of kilobytes.
const maxResponseLength = 4 << 20

// Completion statuses with protocol-level meaning.
const (
	statusOK         = 0
	statusBadVersion = 101
)

// Return codes from the instrument agent's Agent_OnAttach.
const (
	returnCodeOutOfMemory = -4 // JNI_ENOMEM
	returnCodeBadJar      = 100
	returnCodeNotOnPath   = 101
	returnCodeStartFailed = 102
)

// loadResultPrefix precedes the agent return code in load responses
// from JDK 9 and later. JDK 8 sends the bare integer.
const loadResultPrefix = "return code: "

// OperationError is returned when the target completes a command with
// a non-zero status.
type OperationError struct {
	Command string
	Status  int
	Message string
}

func (e *OperationError) Error() string {
	switch {
	case e.Status == statusBadVersion:
		return "protocol mismatch with target VM"
	case e.Command == "load" && e.Message != "":
		return "failed to load agent library: " + e.Message
	case e.Command == "load":
		return "failed to load agent library"
	case e.Message != "":
		return fmt.Sprintf("%s failed in target VM: %s", e.Command, e.Message)
	default:
		return fmt.Sprintf("%s failed in target VM (status %d)", e.Command, e.Status)
	}
}

// AgentLoadError is returned when the target ran the instrument agent
// but the agent reported a non-zero return code, or reported
// something that is not a return code at all.
type AgentLoadError struct {
	// ReturnCode is the Agent_OnAttach result. Zero when the
	// response could not be parsed; Message then holds it verbatim.
	ReturnCode int
	Message    string
}

func (e *AgentLoadError) Error() string {
	if e.ReturnCode == 0 {
		return "agent load failed: " + e.Message
	}
	return fmt.Sprintf("agent load failed: %s (return code %d)", e.Message, e.ReturnCode)
}

// writeRequest writes one framed request. Arguments beyond the fixed
// count, or containing NUL, are rejected before anything is written.
func writeRequest(w io.Writer, command string, arguments ...string) error {
	if len(arguments) > requestArgumentCount {
		return fmt.Errorf("attach request %q has %d arguments, maximum is %d",
			command, len(arguments), requestArgumentCount)
	}
	var request bytes.Buffer
	field := func(value string) error {
		if strings.IndexByte(value, 0) >= 0 {
			return fmt.Errorf("attach request %q: argument contains NUL byte", command)
		}
		request.WriteString(value)
		request.WriteByte(0)
		return nil
	}
	if err := field(protocolVersion); err != nil {
		return err
	}
	if err := field(command); err != nil {
		return err
	}
	for i := 0; i < requestArgumentCount; i++ {
		argument := ""
		if i < len(arguments) {
			argument = arguments[i]
		}
		if err := field(argument); err != nil {
			return err
		}
	}
	if _, err := w.Write(request.Bytes()); err != nil {
		return fmt.Errorf("writing attach request %q: %w", command, err)
	}
	return nil
}

// readResponse reads the completion status line and the remaining
// output until the target closes the connection.
func readResponse(r io.Reader) (status int, output string, err error) {
	reader := bufio.NewReader(io.LimitReader(r, maxResponseLength))
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, "", fmt.Errorf("reading attach response status: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, "", fmt.Errorf("target VM closed the connection without responding")
	}
	status, err = strconv.Atoi(line)
	if err != nil {
		return 0, "", fmt.Errorf("malformed attach response status %q", line)
	}
	rest, err := io.ReadAll(reader)
	if err != nil {
		return 0, "", fmt.Errorf("reading attach response output: %w", err)
	}
	return status, string(rest), nil
}

// execute performs one request/response exchange on rw and converts
// a non-zero completion status into an *OperationError.
func execute(rw io.ReadWriter, command string, arguments ...string) (string, error) {
	if err := writeRequest(rw, command, arguments...); err != nil {
		return "", err
	}
	status, output, err := readResponse(rw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", command, err)
	}
	if status != statusOK {
		return "", &OperationError{Command: command, Status: status, Message: strings.TrimSpace(output)}
	}
	return output, nil
}

// loadArguments returns the arguments of a load request for the JAR at
// path. The instrument library takes "<jar>[=<options>]" as its option
// string.
func loadArguments(path, options string) []string {
	agentOptions := path
	if options != "" {
		agentOptions += "=" + options
	}
	return []string{"instrument", "false", agentOptions}
}

// checkLoadResult interprets the output of a successful load request.
func checkLoadResult(output string) error {
	line, _, _ := strings.Cut(output, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return &AgentLoadError{Message: "target VM did not respond"}
	}
	code, err := strconv.Atoi(strings.TrimPrefix(line, loadResultPrefix))
	if err != nil {
		return &AgentLoadError{Message: line}
	}
	switch code {
	case 0:
		return nil
	case returnCodeOutOfMemory:
		return &AgentLoadError{ReturnCode: code, Message: "insufficient memory"}
	case returnCodeBadJar:
		return &AgentLoadError{ReturnCode: code, Message: "agent JAR not found or no Agent-Class attribute"}
	case returnCodeNotOnPath:
		return &AgentLoadError{ReturnCode: code, Message: "unable to add JAR file to system class path"}
	case returnCodeStartFailed:
		return &AgentLoadError{ReturnCode: code, Message: "agent JAR loaded but agent failed to initialize"}
	default:
		return &AgentLoadError{ReturnCode: code, Message: "unknown reason"}
	}
}
