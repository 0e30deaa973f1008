package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	replyOK      = "OK"
	replyNil     = "(nil)"
	replyError   = "ERROR"
	farewellLine = "Have a good day!"
)

var (
	errInvalidCharacters  = errors.New("invalid input characters detected")
	errBadCommand         = errors.New("bad command")
	errNumberOfParameters = errors.New("number of parameters")
	errBadSetParameters   = errors.New("bad SET parameters")
	errMemberNotFound     = errors.New("member not found")
)

// argumentError reports a numeric argument that does not parse
type argumentError struct {
	name string
}

func (e *argumentError) Error() string {
	return fmt.Sprintf("bad argument: %s is not an integer", e.name)
}

// makeError renders err as an ERROR line
func makeError(err error) string {
	return replyError + " " + err.Error()
}

// isError reports whether a rendered reply is an ERROR line
func isError(reply string) bool {
	return strings.HasPrefix(reply, replyError)
}

func makeInteger(n int64) string {
	return strconv.FormatInt(n, 10)
}

// makeList joins members with single spaces. No members render as an empty line
func makeList(items []string) string {
	return strings.Join(items, " ")
}
