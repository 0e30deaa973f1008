package server

import (
	"fmt"
	"strings"

	"github.com/eternalApril/starlight/internal/metrics"
	"github.com/eternalApril/starlight/internal/storage"
	"go.uber.org/zap"
)

// unknownCommand labels metrics for requests that matched no command
const unknownCommand = "unknown"

// Engine turns request lines into response lines.
// It is not safe for concurrent use: the request queue is its only caller
type Engine struct {
	commands map[string]command // Registry of available commands, names are case-sensitive
	storage  storage.Storage
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewEngine initializes the engine and registers the basic commands. collector may be nil
func NewEngine(s storage.Storage, logger *zap.Logger, collector *metrics.Collector) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := Engine{
		commands: make(map[string]command),
		storage:  s,
		logger:   logger,
		metrics:  collector,
	}
	engine.registerBasicCommand()

	return &engine
}

// register adds a new command to the engine. Every command needs an entry in commandRegistry
func (e *Engine) register(name string, cmd command) {
	if _, ok := commandRegistry[name]; !ok {
		panic(fmt.Sprintf("server: command %s has no metadata", name))
	}
	e.commands[name] = cmd
}

// registerBasicCommand fills the registry with standard commands
func (e *Engine) registerBasicCommand() {
	e.register("SET", commandFunc(set))
	e.register("GET", commandFunc(get))
	e.register("INCR", commandFunc(incr))
	e.register("DEL", commandFunc(del))
	e.register("DBSIZE", commandFunc(dbsize))
	e.register("ZADD", commandFunc(zadd))
	e.register("ZCARD", commandFunc(zcard))
	e.register("ZRANK", commandFunc(zrank))
	e.register("ZRANGE", commandFunc(zrange))
}

// Process validates, tokenizes and executes one request.
// Failures of any kind come back as an ERROR line, never as a panic
func (e *Engine) Process(request string) (reply string) {
	name := unknownCommand

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked",
				zap.String("cmd", name),
				zap.Any("panic", r),
			)
			reply = makeError(fmt.Errorf("internal error: %v", r))
		}
		e.metrics.CommandProcessed(name, !isError(reply))
	}()

	if !validRequest(request) {
		return makeError(errInvalidCharacters)
	}

	tokens := tokenize(request)
	switch {
	case request == "":
		return makeError(errBadCommand)
	case len(tokens) == 0:
		// only spaces: a command name was expected but none was given
		return makeError(errNumberOfParameters)
	}

	cmd, ok := e.commands[tokens[0]]
	if !ok {
		return makeError(errBadCommand)
	}
	name = tokens[0]
	meta := commandRegistry[name]

	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", len(tokens)-1),
			zap.Bool("write", meta.hasFlag("write")),
		)
	}

	if !meta.acceptsTokens(len(tokens)) {
		return makeError(errNumberOfParameters)
	}

	res, err := cmd.execute(&commandContext{
		args:    tokens[1:],
		storage: e.storage,
	})
	if err != nil {
		return makeError(err)
	}
	return res
}

// Sweep reclaims expired keys. The request queue calls it between requests
func (e *Engine) Sweep() int {
	n := e.storage.Sweep()
	if n > 0 && e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("swept expired keys", zap.Int("count", n))
	}
	return n
}

// validRequest reports whether request holds only letters, digits, spaces, '-' and '_'
func validRequest(request string) bool {
	for i := 0; i < len(request); i++ {
		c := request[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == ' ', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// tokenize splits request on single spaces and drops trailing empty tokens,
// so "GET k " reads as GET k while "GET  k" keeps its empty key
func tokenize(request string) []string {
	tokens := strings.Split(request, " ")
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
