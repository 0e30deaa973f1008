package server

import (
	"strconv"

	"github.com/eternalApril/starlight/internal/storage"
)

// commandContext carries the arguments of one request, the command name excluded
type commandContext struct {
	args    []string
	storage storage.Storage
}

type command interface {
	execute(ctx *commandContext) (string, error)
}

type commandFunc func(ctx *commandContext) (string, error)

func (c commandFunc) execute(ctx *commandContext) (string, error) {
	return c(ctx)
}

func parseInt64(arg, name string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, &argumentError{name: name}
	}
	return n, nil
}

func parseIndex(arg, name string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, &argumentError{name: name}
	}
	return n, nil
}

// set handles SET key value [EX seconds]
func set(ctx *commandContext) (string, error) {
	var opts storage.SetOptions

	switch {
	case len(ctx.args) == 2:
	case len(ctx.args) == 4 && ctx.args[2] == "EX":
		ttl, err := parseInt64(ctx.args[3], "seconds")
		if err != nil {
			return "", err
		}
		opts = storage.SetOptions{TTL: ttl, HasTTL: true}
	default:
		return "", errBadSetParameters
	}

	ctx.storage.Set(ctx.args[0], ctx.args[1], opts)
	return replyOK, nil
}

func get(ctx *commandContext) (string, error) {
	val, ok, err := ctx.storage.Get(ctx.args[0])
	if err != nil {
		return "", err
	}
	if !ok {
		return replyNil, nil
	}
	return val, nil
}

func incr(ctx *commandContext) (string, error) {
	n, err := ctx.storage.Incr(ctx.args[0])
	if err != nil {
		return "", err
	}
	return makeInteger(n), nil
}

func del(ctx *commandContext) (string, error) {
	return makeInteger(int64(ctx.storage.Del(ctx.args[0]))), nil
}

func dbsize(ctx *commandContext) (string, error) {
	return makeInteger(int64(ctx.storage.DBSize())), nil
}

// zadd handles ZADD key score member
func zadd(ctx *commandContext) (string, error) {
	score, err := parseInt64(ctx.args[1], "score")
	if err != nil {
		return "", err
	}
	if _, err := ctx.storage.ZAdd(ctx.args[0], score, ctx.args[2]); err != nil {
		return "", err
	}
	return replyOK, nil
}

func zcard(ctx *commandContext) (string, error) {
	n, err := ctx.storage.ZCard(ctx.args[0])
	if err != nil {
		return "", err
	}
	return makeInteger(int64(n)), nil
}

// zrank answers an error rather than (nil) for a missing member
func zrank(ctx *commandContext) (string, error) {
	rank, ok, err := ctx.storage.ZRank(ctx.args[0], ctx.args[1])
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errMemberNotFound
	}
	return makeInteger(int64(rank)), nil
}

// zrange handles ZRANGE key start stop
func zrange(ctx *commandContext) (string, error) {
	start, err := parseIndex(ctx.args[1], "start")
	if err != nil {
		return "", err
	}
	stop, err := parseIndex(ctx.args[2], "stop")
	if err != nil {
		return "", err
	}

	members, err := ctx.storage.ZRange(ctx.args[0], start, stop)
	if err != nil {
		return "", err
	}
	return makeList(members), nil
}
