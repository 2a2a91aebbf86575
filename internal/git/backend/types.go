package backend

import (
	"strings"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string

	// FilesChanged counts the files touched by the commit against its first parent,
	// regardless of any path restriction used to find it.
	FilesChanged int
}

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	if c == nil {
		return ""
	}
	line, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimRight(line, "\r")
}

func (c *Commit) IsMerge() bool {
	return c != nil && len(c.ParentHashes) > 1
}

type Kind uint8

const (
	KindCLI Kind = iota
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	default:
		return "cli"
	}
}

// KindFromString maps a user supplied backend name to a Kind. Unknown names fall back to
// the CLI backend.
func KindFromString(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "go-git", "gogit":
		return KindNative
	default:
		return KindCLI
	}
}
