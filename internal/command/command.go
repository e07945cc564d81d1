// Package command parses the lines typed at the myftp client prompt.
package command

import (
	"fmt"
	"net"
	"regexp"
)

// Kind identifies a client command.
type Kind int

// Command kinds.
const (
	Invalid Kind = iota
	Open
	List
	Get
	Put
	Sha
	Quit
)

func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case List:
		return "ls"
	case Get:
		return "get"
	case Put:
		return "put"
	case Sha:
		return "sha256"
	case Quit:
		return "quit"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is a parsed client command.
// IP and Port are set for Open, Name for Get, Put and Sha.
type Command struct {
	Kind Kind
	IP   string
	Port string
	Name string
}

// Patterns must match the whole line.
var (
	openPattern = regexp.MustCompile(`^open (\S+) (\S+)\s*$`)
	listPattern = regexp.MustCompile(`^ls\s*$`)
	getPattern  = regexp.MustCompile(`^get (.+)$`)
	putPattern  = regexp.MustCompile(`^put (.+)$`)
	shaPattern  = regexp.MustCompile(`^sha256 (.+)$`)
	quitPattern = regexp.MustCompile(`^quit\s*$`)

	portPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Parse parses a single line, without its line terminator.
// Anything it does not recognise is returned as an Invalid command.
//
// The name argument of get, put and sha256 is the rest of the line, spaces included.
// The open arguments must be an IPv4 or IPv6 literal, and a decimal port.
func Parse(line string) Command {
	if m := openPattern.FindStringSubmatch(line); m != nil {
		if net.ParseIP(m[1]) == nil || !portPattern.MatchString(m[2]) {
			return Command{Kind: Invalid}
		}
		return Command{Kind: Open, IP: m[1], Port: m[2]}
	}

	if listPattern.MatchString(line) {
		return Command{Kind: List}
	}

	if m := getPattern.FindStringSubmatch(line); m != nil {
		return Command{Kind: Get, Name: m[1]}
	}

	if m := putPattern.FindStringSubmatch(line); m != nil {
		return Command{Kind: Put, Name: m[1]}
	}

	if m := shaPattern.FindStringSubmatch(line); m != nil {
		return Command{Kind: Sha, Name: m[1]}
	}

	if quitPattern.MatchString(line) {
		return Command{Kind: Quit}
	}

	return Command{Kind: Invalid}
}
